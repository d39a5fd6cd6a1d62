// Package session tracks the wallet connection of one milknet process: the
// connected account, the active network and a contract client bound to both.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/Mohsinsiddi/milknet/internal/log"
	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/network"
	"github.com/Mohsinsiddi/milknet/internal/provider"
)

// RoleKey is the local storage key holding the cached role.
const RoleKey = "userRole"

const eventBuffer = 16

// RoleStore persists the cached role.
type RoleStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// ContractFactory builds a contract client for a network and signer.
type ContractFactory func(ctx context.Context, d *network.Descriptor, s *provider.Signer) (milknet.Contract, error)

// BindContract is the default ContractFactory.
func BindContract(_ context.Context, d *network.Descriptor, s *provider.Signer) (milknet.Contract, error) {
	return milknet.New(d.ContractAddress, s.Backend, s.Opts)
}

// Config wires a Manager.
type Config struct {
	// Provider may be nil, in which case Connect fails with ErrProviderMissing.
	Provider    provider.Provider
	Networks    *network.Table
	Roles       RoleStore
	NewContract ContractFactory
}

// Manager owns the session snapshot. Actions run on the caller's goroutine;
// provider events are handled on one internal goroutine.
type Manager struct {
	provider    provider.Provider
	networks    *network.Table
	roles       RoleStore
	newContract ContractFactory

	mu    sync.Mutex
	snap  Snapshot
	epoch uint64
	// connectEp is the epoch opened by the most recent Connect.
	connectEp uint64

	feed event.Feed

	ctx       context.Context
	cancel    context.CancelFunc
	subs      []event.Subscription
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates the session, loads the cached role and subscribes to provider
// events. Call Close to release the subscriptions.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.Networks == nil {
		return nil, errors.New("session: network table is required")
	}
	m := &Manager{
		provider:    cfg.Provider,
		networks:    cfg.Networks,
		roles:       cfg.Roles,
		newContract: cfg.NewContract,
	}
	if m.newContract == nil {
		m.newContract = BindContract
	}
	if m.roles != nil {
		if v, ok := m.roles.Get(RoleKey); ok {
			if role, err := ParseRole(v); err == nil {
				m.snap.Role = role
			} else {
				log.L(ctx).Warnf("ignoring cached role: %s", err)
			}
		}
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	if m.provider != nil {
		accounts := make(chan []common.Address, eventBuffer)
		chains := make(chan uint64, eventBuffer)
		m.subs = []event.Subscription{
			m.provider.SubscribeAccountsChanged(accounts),
			m.provider.SubscribeChainChanged(chains),
		}
		m.wg.Add(1)
		go m.loop(accounts, chains)
	}
	return m, nil
}

// Close unsubscribes from provider events and stops the event goroutine.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		for _, sub := range m.subs {
			sub.Unsubscribe()
		}
		m.cancel()
		m.wg.Wait()
	})
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Role returns the cached role. It is available before any connection.
func (m *Manager) Role() Role {
	return m.Snapshot().Role
}

// Networks returns the supported-network table.
func (m *Manager) Networks() *network.Table {
	return m.networks
}

// SubscribeSnapshots delivers every published snapshot to ch. Receivers that
// can fall behind should compare Version and drop older snapshots.
func (m *Manager) SubscribeSnapshots(ch chan<- Snapshot) event.Subscription {
	return m.feed.Subscribe(ch)
}

// Connect asks the provider for accounts and initialises the network.
func (m *Manager) Connect(ctx context.Context) error {
	if m.provider == nil {
		return ErrProviderMissing
	}
	ep := m.startConnect()
	defer m.endConnect(ep)

	accounts, err := m.provider.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = &provider.RPCError{Code: provider.CodeUserRejected, Message: "No accounts exposed."}
	}
	if err != nil {
		if provider.ErrorCode(err) == provider.CodeUserRejected {
			return fmt.Errorf("%w: %w", ErrUserRejected, err)
		}
		return fmt.Errorf("requesting accounts: %w", err)
	}

	account := accounts[0].Hex()
	ep, ok := m.advance(ep, func(s *Snapshot) { s.Account = account })
	if !ok {
		log.L(ctx).Debug("connect superseded by a newer wallet event")
		return nil
	}
	log.L(ctx).Infof("connected account %s", account)
	return m.initializeNetwork(ctx, ep, account)
}

// Disconnect clears the local session. Provider permissions are untouched.
func (m *Manager) Disconnect() {
	m.bump(func(s *Snapshot) {
		s.Account = ""
		s.NetworkName = ""
		s.Contract = nil
		s.NetworkError = ""
		s.Paused = false
		s.Connecting = false
	})
}

// SwitchNetwork asks the provider to change chains, adding the chain first
// when the provider does not know it. The session itself changes only when
// the resulting chainChanged event arrives.
func (m *Manager) SwitchNetwork(ctx context.Context, chainID uint64) error {
	if m.provider == nil {
		return ErrProviderMissing
	}
	err := m.provider.SwitchChain(ctx, chainID)
	if err == nil {
		return nil
	}
	if provider.ErrorCode(err) != provider.CodeUnrecognizedChain {
		return fmt.Errorf("%w: %w", ErrNetworkSwitchFailed, err)
	}

	desc, lookupErr := m.networks.Lookup(chainID)
	if lookupErr != nil {
		return fmt.Errorf("%w: %w", ErrNetworkSwitchFailed, lookupErr)
	}
	log.L(ctx).Infof("wallet does not know chain %d, adding %s", chainID, desc.AddChain.ChainName)
	if err := m.provider.AddChain(ctx, desc.AddChain); err != nil {
		return fmt.Errorf("%w: adding chain: %w", ErrNetworkSwitchFailed, err)
	}
	if err := m.provider.SwitchChain(ctx, chainID); err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkSwitchFailed, err)
	}
	return nil
}

// RegisterRole caches role in the session and in local storage. It is a UI
// convenience and does not check on-chain registration.
func (m *Manager) RegisterRole(role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	m.publish(func(s *Snapshot) { s.Role = role })
	if m.roles == nil {
		return nil
	}
	if err := m.roles.Set(RoleKey, string(role)); err != nil {
		return fmt.Errorf("caching role: %w", err)
	}
	return nil
}

// initializeNetwork reads the provider's chain and (re)builds the contract.
func (m *Manager) initializeNetwork(ctx context.Context, ep uint64, account string) error {
	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		err = fmt.Errorf("reading chain id: %w", err)
		m.apply(ep, func(s *Snapshot) {
			s.NetworkName = ""
			s.Contract = nil
			s.NetworkError = err.Error()
			s.Paused = false
			s.Connecting = false
		})
		return err
	}
	return m.initializeChain(ctx, ep, account, chainID)
}

func (m *Manager) initializeChain(ctx context.Context, ep uint64, account string, chainID uint64) error {
	desc, err := m.networks.Lookup(chainID)
	if err != nil {
		err = fmt.Errorf("%w: chain %d. Please switch to %s", ErrUnsupportedNetwork, chainID, m.networks.Names())
		m.fail(ep, chainID, err)
		return err
	}

	contract, err := m.bind(ctx, desc, account)
	if err != nil {
		err = fmt.Errorf("%w: %s at %s: %w", ErrContractUnreachable, desc.Name, desc.ContractAddress.Hex(), err)
		m.fail(ep, chainID, err)
		return err
	}

	if !m.apply(ep, func(s *Snapshot) {
		s.ChainID = chainID
		s.NetworkName = desc.Name
		s.Contract = contract
		s.NetworkError = ""
		s.Paused = false
		s.Connecting = false
	}) {
		log.L(ctx).Debugf("dropping stale initialisation for chain %d", chainID)
		return nil
	}
	log.L(ctx).Infof("contract ready on %s", desc.Name)

	m.checkPaused(ctx, ep, contract)
	return nil
}

func (m *Manager) bind(ctx context.Context, desc *network.Descriptor, account string) (milknet.Contract, error) {
	signer, err := m.provider.Signer(ctx, common.HexToAddress(account))
	if err != nil {
		return nil, fmt.Errorf("getting signer: %w", err)
	}
	contract, err := m.newContract(ctx, desc, signer)
	if err != nil {
		return nil, err
	}
	counter, err := contract.BatchCounter(ctx)
	if err != nil {
		return nil, err
	}
	log.L(ctx).Debugf("contract verified, %s batches", counter)
	return contract, nil
}

// checkPaused mirrors the contract's pause flag. Advisory only.
func (m *Manager) checkPaused(ctx context.Context, ep uint64, contract milknet.Contract) {
	paused, err := contract.Paused(ctx)
	if err != nil {
		log.L(ctx).Warnf("paused check failed: %s", err)
		return
	}
	m.apply(ep, func(s *Snapshot) {
		if s.Contract == contract {
			s.Paused = paused
		}
	})
}

func (m *Manager) fail(ep, chainID uint64, err error) {
	m.apply(ep, func(s *Snapshot) {
		s.ChainID = chainID
		s.NetworkName = ""
		s.Contract = nil
		s.NetworkError = err.Error()
		s.Paused = false
		s.Connecting = false
	})
}

func (m *Manager) loop(accounts <-chan []common.Address, chains <-chan uint64) {
	defer m.wg.Done()
	ctx := log.WithLogField(m.ctx, "role", "session-events")
	for {
		select {
		case list := <-accounts:
			m.onAccountsChanged(ctx, list)
		case id := <-chains:
			m.onChainChanged(ctx, id)
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) onAccountsChanged(ctx context.Context, accounts []common.Address) {
	if len(accounts) == 0 {
		log.L(ctx).Info("wallet exposed no accounts, disconnecting")
		m.Disconnect()
		return
	}
	account := accounts[0].Hex()

	m.mu.Lock()
	same := m.snap.Account == account
	m.mu.Unlock()
	if same {
		return
	}

	ep := m.bump(func(s *Snapshot) {
		s.Account = account
		s.Contract = nil
		s.Paused = false
	})
	log.L(ctx).Infof("account changed to %s", account)
	if err := m.initializeNetwork(ctx, ep, account); err != nil {
		log.L(ctx).Warnf("reinitialising after account change: %s", err)
	}
}

func (m *Manager) onChainChanged(ctx context.Context, chainID uint64) {
	m.mu.Lock()
	account := m.snap.Account
	m.snap.ChainID = chainID
	if account != "" {
		m.epoch++
		m.snap.Contract = nil
		m.snap.Paused = false
	}
	ep := m.epoch
	m.snap.Version++
	snap := m.snap
	m.mu.Unlock()
	m.feed.Send(snap)

	if account == "" {
		log.L(ctx).Debugf("recorded chain %d while disconnected", chainID)
		return
	}
	log.L(ctx).Infof("chain changed to %d", chainID)
	if err := m.initializeChain(ctx, ep, account, chainID); err != nil {
		log.L(ctx).Warnf("reinitialising after chain change: %s", err)
	}
}

// startConnect opens a new epoch owned by Connect and marks the session as
// connecting.
func (m *Manager) startConnect() uint64 {
	m.mu.Lock()
	m.epoch++
	m.connectEp = m.epoch
	ep := m.epoch
	m.snap.Connecting = true
	m.snap.Version++
	snap := m.snap
	m.mu.Unlock()
	m.feed.Send(snap)
	return ep
}

// endConnect clears Connecting unless a later Connect owns the flag or it
// is already cleared.
func (m *Manager) endConnect(ep uint64) {
	m.mu.Lock()
	if m.connectEp != ep || !m.snap.Connecting {
		m.mu.Unlock()
		return
	}
	m.snap.Connecting = false
	m.snap.Version++
	snap := m.snap
	m.mu.Unlock()
	m.feed.Send(snap)
}

// bump applies fn unconditionally and starts a new epoch.
func (m *Manager) bump(fn func(*Snapshot)) uint64 {
	m.mu.Lock()
	m.epoch++
	ep := m.epoch
	fn(&m.snap)
	m.snap.Version++
	snap := m.snap
	m.mu.Unlock()
	m.feed.Send(snap)
	return ep
}

// advance applies fn and starts a new epoch if ep is still current.
func (m *Manager) advance(ep uint64, fn func(*Snapshot)) (uint64, bool) {
	m.mu.Lock()
	if ep != m.epoch {
		m.mu.Unlock()
		return 0, false
	}
	m.epoch++
	ep = m.epoch
	fn(&m.snap)
	m.snap.Version++
	snap := m.snap
	m.mu.Unlock()
	m.feed.Send(snap)
	return ep, true
}

// apply applies fn only if ep is still current.
func (m *Manager) apply(ep uint64, fn func(*Snapshot)) bool {
	m.mu.Lock()
	if ep != m.epoch {
		m.mu.Unlock()
		return false
	}
	fn(&m.snap)
	m.snap.Version++
	snap := m.snap
	m.mu.Unlock()
	m.feed.Send(snap)
	return true
}

// publish applies fn without touching the epoch.
func (m *Manager) publish(fn func(*Snapshot)) {
	m.mu.Lock()
	fn(&m.snap)
	m.snap.Version++
	snap := m.snap
	m.mu.Unlock()
	m.feed.Send(snap)
}
