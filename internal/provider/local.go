package provider

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"

	"github.com/Mohsinsiddi/milknet/internal/log"
	"github.com/Mohsinsiddi/milknet/internal/network"
	"github.com/Mohsinsiddi/milknet/internal/rpc"
	"github.com/Mohsinsiddi/milknet/internal/wallet"
)

// Approver asks the user to confirm a wallet action.
type Approver func(ctx context.Context, prompt string) bool

// AutoApprove approves everything.
func AutoApprove(context.Context, string) bool { return true }

// DialFunc connects to an RPC endpoint.
type DialFunc func(ctx context.Context, url string) (Backend, error)

func dialEthclient(ctx context.Context, url string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LocalConfig configures a Local provider.
type LocalConfig struct {
	Wallets *wallet.Manager
	// Account is the wallet name to expose. Empty selects the default wallet.
	Account string
	// Chains the wallet already knows about.
	Chains         []network.AddChainParams
	InitialChainID uint64
	Approve        Approver
	Algorithm      rpc.Algorithm
	Dial           DialFunc
}

// Local is a wallet provider backed by the milknet wallet store and the OS
// keyring. Chain access goes through the best reachable RPC endpoint.
type Local struct {
	wallets *wallet.Manager
	approve Approver
	algo    rpc.Algorithm
	dial    DialFunc

	mu         sync.Mutex
	chains     map[uint64]network.AddChainParams
	chainID    uint64
	account    string
	authorized bool
	selectors  map[uint64]*rpc.Selector
	backends   map[uint64]Backend

	accountsFeed event.Feed
	chainFeed    event.Feed
}

var _ Provider = (*Local)(nil)

// NewLocal creates a Local provider.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.Wallets == nil {
		return nil, fmt.Errorf("provider: wallet manager is required")
	}
	l := &Local{
		wallets:   cfg.Wallets,
		approve:   cfg.Approve,
		algo:      cfg.Algorithm,
		dial:      cfg.Dial,
		chains:    make(map[uint64]network.AddChainParams),
		chainID:   cfg.InitialChainID,
		account:   cfg.Account,
		selectors: make(map[uint64]*rpc.Selector),
		backends:  make(map[uint64]Backend),
	}
	if l.approve == nil {
		l.approve = AutoApprove
	}
	if l.algo == "" {
		l.algo = rpc.AlgorithmFastest
	}
	if l.dial == nil {
		l.dial = dialEthclient
	}
	for _, p := range cfg.Chains {
		id, err := network.ParseChainID(p.ChainID)
		if err != nil {
			return nil, fmt.Errorf("provider: chain %q: %w", p.ChainName, err)
		}
		l.chains[id] = p
	}
	if l.chainID == 0 && len(cfg.Chains) > 0 {
		l.chainID, _ = network.ParseChainID(cfg.Chains[0].ChainID)
	}
	return l, nil
}

func (l *Local) currentWallet() (*wallet.Wallet, error) {
	if l.account != "" {
		return l.wallets.Get(l.account)
	}
	if w := l.wallets.Default(); w != nil {
		return w, nil
	}
	return nil, &RPCError{Code: CodeUnauthorized, Message: "No wallet configured. Add one with `milknet wallet add`."}
}

// RequestAccounts implements Provider.
func (l *Local) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	l.mu.Lock()
	w, err := l.currentWallet()
	authorized := l.authorized
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if !authorized {
		prompt := fmt.Sprintf("Connect wallet %q (%s) to MilkNet?", w.Name, w.Address)
		if !l.approve(ctx, prompt) {
			return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
		}
		l.mu.Lock()
		l.authorized = true
		l.account = w.Name
		l.mu.Unlock()
		log.L(ctx).Debugf("wallet %s authorized", w.Address)
	}
	return []common.Address{w.Addr()}, nil
}

// Accounts implements Provider.
func (l *Local) Accounts(ctx context.Context) ([]common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.authorized {
		return nil, nil
	}
	w, err := l.currentWallet()
	if err != nil {
		return nil, nil
	}
	return []common.Address{w.Addr()}, nil
}

// ChainID implements Provider.
func (l *Local) ChainID(context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chainID, nil
}

// SwitchChain implements Provider.
func (l *Local) SwitchChain(ctx context.Context, chainID uint64) error {
	l.mu.Lock()
	params, known := l.chains[chainID]
	current := l.chainID
	l.mu.Unlock()

	if !known {
		return &RPCError{
			Code:    CodeUnrecognizedChain,
			Message: fmt.Sprintf("Unrecognized chain ID %q. Try adding the chain first.", network.ChainIDHex(chainID)),
		}
	}
	if chainID == current {
		return nil
	}
	if !l.approve(ctx, fmt.Sprintf("Switch network to %s?", params.ChainName)) {
		return &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
	}

	l.mu.Lock()
	l.chainID = chainID
	l.mu.Unlock()
	log.L(ctx).Debugf("chain switched to %d", chainID)
	l.chainFeed.Send(chainID)
	return nil
}

// AddChain implements Provider.
func (l *Local) AddChain(ctx context.Context, params network.AddChainParams) error {
	if err := params.Validate(); err != nil {
		return &RPCError{Code: -32602, Message: fmt.Sprintf("Invalid chain parameters: %s", err)}
	}
	id, _ := network.ParseChainID(params.ChainID)

	l.mu.Lock()
	_, known := l.chains[id]
	l.mu.Unlock()
	if known {
		return nil
	}
	if !l.approve(ctx, fmt.Sprintf("Allow MilkNet to add network %s (%s)?", params.ChainName, params.RPCURLs[0])) {
		return &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
	}

	l.mu.Lock()
	l.chains[id] = params
	l.mu.Unlock()
	return nil
}

// Signer implements Provider. Watch-only wallets get a signer without
// transaction options.
func (l *Local) Signer(ctx context.Context, account common.Address) (*Signer, error) {
	l.mu.Lock()
	authorized := l.authorized
	chainID := l.chainID
	params, known := l.chains[chainID]
	l.mu.Unlock()

	if !authorized {
		return nil, &RPCError{Code: CodeUnauthorized, Message: "The requested account has not been authorized by the user."}
	}
	w, err := l.wallets.ByAddress(account)
	if err != nil {
		return nil, &RPCError{Code: CodeUnauthorized, Message: fmt.Sprintf("Unknown account %s.", account.Hex())}
	}
	if !known {
		return nil, &RPCError{Code: CodeUnrecognizedChain, Message: fmt.Sprintf("No RPC endpoint for chain %d.", chainID)}
	}

	backend, err := l.backend(ctx, chainID, params.RPCURLs)
	if err != nil {
		return nil, err
	}

	s := &Signer{Account: account, ChainID: chainID, Backend: backend}
	if w.Type == wallet.TypeSigning {
		s.Opts, err = wallet.NewSigner(w, l.wallets.Keys()).TransactOpts(ctx, new(big.Int).SetUint64(chainID))
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (l *Local) backend(ctx context.Context, chainID uint64, urls []string) (Backend, error) {
	l.mu.Lock()
	if b, ok := l.backends[chainID]; ok {
		l.mu.Unlock()
		return b, nil
	}
	sel, ok := l.selectors[chainID]
	if !ok {
		sel = rpc.NewSelector(l.algo, nil)
		l.selectors[chainID] = sel
	}
	l.mu.Unlock()

	url, err := sel.Select(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("selecting rpc for chain %d: %w", chainID, err)
	}
	b, err := l.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	log.L(ctx).Debugf("chain %d using rpc %s", chainID, url)

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.backends[chainID]; ok {
		closeBackend(b)
		return existing, nil
	}
	l.backends[chainID] = b
	return b, nil
}

// SelectAccount exposes a different wallet. Connected sessions see an
// accountsChanged event.
func (l *Local) SelectAccount(name string) error {
	w, err := l.wallets.Get(name)
	if err != nil {
		return err
	}
	l.mu.Lock()
	changed := l.account != name
	l.account = name
	authorized := l.authorized
	l.mu.Unlock()

	if changed && authorized {
		l.accountsFeed.Send([]common.Address{w.Addr()})
	}
	return nil
}

// Wallets lists the wallets SelectAccount accepts, ordered by name.
func (l *Local) Wallets() []*wallet.Wallet {
	return l.wallets.List()
}

// Lock revokes the exposed accounts, like locking a browser wallet.
func (l *Local) Lock() {
	l.mu.Lock()
	was := l.authorized
	l.authorized = false
	l.mu.Unlock()
	if was {
		l.accountsFeed.Send([]common.Address{})
	}
}

// SubscribeAccountsChanged implements Provider.
func (l *Local) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return l.accountsFeed.Subscribe(ch)
}

// SubscribeChainChanged implements Provider.
func (l *Local) SubscribeChainChanged(ch chan<- uint64) event.Subscription {
	return l.chainFeed.Subscribe(ch)
}

// Close releases RPC connections.
func (l *Local) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, b := range l.backends {
		closeBackend(b)
		delete(l.backends, id)
	}
}

func closeBackend(b Backend) {
	if c, ok := b.(interface{ Close() }); ok {
		c.Close()
	}
}
