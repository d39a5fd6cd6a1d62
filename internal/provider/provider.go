// Package provider defines the wallet provider the session talks to and a
// local, keyring-backed implementation of it.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/Mohsinsiddi/milknet/internal/network"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnrecognizedChain = 4902
)

// RPCError is an error reported by the wallet provider.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// ErrorCode returns the provider error code carried by err, or 0.
func ErrorCode(err error) int {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return 0
}

// Backend is what contract clients need from a chain connection.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Signer bundles everything needed to talk to a contract as one account.
// Opts is nil for accounts that cannot sign.
type Signer struct {
	Account common.Address
	ChainID uint64
	Backend Backend
	Opts    *bind.TransactOpts
}

// Provider is an injected wallet: it owns accounts, knows the active chain
// and emits events when either changes.
type Provider interface {
	// RequestAccounts asks the user to expose accounts. Denial is a 4001 RPCError.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts returns the accounts already exposed, without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	// SwitchChain fails with a 4902 RPCError when the chain is unknown.
	SwitchChain(ctx context.Context, chainID uint64) error
	AddChain(ctx context.Context, params network.AddChainParams) error
	Signer(ctx context.Context, account common.Address) (*Signer, error)

	SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription
	SubscribeChainChanged(ch chan<- uint64) event.Subscription
}
