package milknet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrTxReverted is returned by Wait when the transaction was mined but failed.
var ErrTxReverted = errors.New("transaction reverted")

// PendingTx is a sent transaction that may not be mined yet.
type PendingTx struct {
	Tx      *types.Transaction
	backend bind.DeployBackend
}

func newPendingTx(tx *types.Transaction, b bind.DeployBackend) *PendingTx {
	return &PendingTx{Tx: tx, backend: b}
}

// Hash returns the transaction hash.
func (p *PendingTx) Hash() common.Hash { return p.Tx.Hash() }

// Wait blocks until the transaction is mined or ctx ends.
func (p *PendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, p.backend, p.Tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", p.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrTxReverted, p.Hash().Hex())
	}
	return receipt, nil
}
