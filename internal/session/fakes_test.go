package session_test

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/network"
	"github.com/Mohsinsiddi/milknet/internal/provider"
)

var (
	farmer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	buyer  = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

const mainnet uint64 = 1

// walletStub is an in-memory wallet provider driven by the test.
type walletStub struct {
	mu        sync.Mutex
	accounts  []common.Address
	reject    bool
	chainID   uint64
	known     map[uint64]bool
	addErr    error
	switchErr error
	signerErr error
	gate      chan struct{}
	calls     []string

	accountsFeed event.Feed
	chainFeed    event.Feed
}

func newWalletStub(chainID uint64, known ...uint64) *walletStub {
	w := &walletStub{
		accounts: []common.Address{farmer},
		chainID:  chainID,
		known:    map[uint64]bool{chainID: true},
	}
	for _, id := range known {
		w.known[id] = true
	}
	return w
}

func (w *walletStub) record(call string) {
	w.mu.Lock()
	w.calls = append(w.calls, call)
	w.mu.Unlock()
}

func (w *walletStub) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *walletStub) RequestAccounts(context.Context) ([]common.Address, error) {
	w.record("requestAccounts")
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reject {
		return nil, &provider.RPCError{Code: provider.CodeUserRejected, Message: "User rejected the request."}
	}
	return append([]common.Address(nil), w.accounts...), nil
}

func (w *walletStub) Accounts(context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]common.Address(nil), w.accounts...), nil
}

func (w *walletStub) ChainID(context.Context) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID, nil
}

func (w *walletStub) SwitchChain(_ context.Context, chainID uint64) error {
	w.record("switch")
	w.mu.Lock()
	if w.switchErr != nil {
		err := w.switchErr
		w.mu.Unlock()
		return err
	}
	if !w.known[chainID] {
		w.mu.Unlock()
		return &provider.RPCError{Code: provider.CodeUnrecognizedChain, Message: "Unrecognized chain ID."}
	}
	w.chainID = chainID
	w.mu.Unlock()
	w.chainFeed.Send(chainID)
	return nil
}

func (w *walletStub) AddChain(_ context.Context, params network.AddChainParams) error {
	w.record("add")
	id, err := network.ParseChainID(params.ChainID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.addErr != nil {
		return w.addErr
	}
	w.known[id] = true
	return nil
}

func (w *walletStub) Signer(_ context.Context, account common.Address) (*provider.Signer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signerErr != nil {
		return nil, w.signerErr
	}
	return &provider.Signer{Account: account, ChainID: w.chainID}, nil
}

func (w *walletStub) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return w.accountsFeed.Subscribe(ch)
}

func (w *walletStub) SubscribeChainChanged(ch chan<- uint64) event.Subscription {
	return w.chainFeed.Subscribe(ch)
}

// emitAccounts simulates the user changing accounts in the wallet.
func (w *walletStub) emitAccounts(accounts ...common.Address) int {
	w.mu.Lock()
	w.accounts = accounts
	w.mu.Unlock()
	return w.accountsFeed.Send(accounts)
}

// emitChain simulates the user changing networks in the wallet.
func (w *walletStub) emitChain(chainID uint64) int {
	w.mu.Lock()
	w.chainID = chainID
	w.known[chainID] = true
	w.mu.Unlock()
	return w.chainFeed.Send(chainID)
}

func (w *walletStub) currentChain() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID
}

// stubContract answers the two reads the session makes.
type stubContract struct {
	milknet.Contract
	chainID    uint64
	account    common.Address
	paused     bool
	counterErr error
	pausedErr  error
}

func (c *stubContract) BatchCounter(context.Context) (*big.Int, error) {
	if c.counterErr != nil {
		return nil, c.counterErr
	}
	return big.NewInt(3), nil
}

func (c *stubContract) Paused(context.Context) (bool, error) {
	if c.pausedErr != nil {
		return false, c.pausedErr
	}
	return c.paused, nil
}

// contractFactory builds stub contracts and counts how often it was asked.
type contractFactory struct {
	mu          sync.Mutex
	built       int
	unreachable map[uint64]error
	paused      bool
	counterErr  error
	pausedErr   error
}

func (f *contractFactory) New(_ context.Context, d *network.Descriptor, s *provider.Signer) (milknet.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built++
	if err := f.unreachable[d.ChainID]; err != nil {
		return nil, err
	}
	return &stubContract{
		chainID:    d.ChainID,
		account:    s.Account,
		paused:     f.paused,
		counterErr: f.counterErr,
		pausedErr:  f.pausedErr,
	}, nil
}

func (f *contractFactory) Built() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built
}
