// Package milknet is a typed client for the MilkNet marketplace contract.
package milknet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/milknet/internal/log"
)

// ErrReadOnly is returned by writes on a client without transaction options.
var ErrReadOnly = errors.New("contract client is read-only")

// Contract is the MilkNet surface used by the session and the CLI.
type Contract interface {
	Address() common.Address
	// CanTransact is false for clients bound to a watch-only account.
	CanTransact() bool

	BatchCounter(ctx context.Context) (*big.Int, error)
	Paused(ctx context.Context) (bool, error)
	Batch(ctx context.Context, id *big.Int) (*Batch, error)
	Order(ctx context.Context, id *big.Int) (*Order, error)
	Farmer(ctx context.Context, addr common.Address) (*Participant, error)
	Consumer(ctx context.Context, addr common.Address) (*Participant, error)
	ConsumerOrders(ctx context.Context, addr common.Address) ([]*big.Int, error)
	ActiveBatches(ctx context.Context, now time.Time) ([]*Batch, error)

	RegisterFarmer(ctx context.Context, name, location string) (*PendingTx, error)
	RegisterConsumer(ctx context.Context, name, location string) (*PendingTx, error)
	CreateBatch(ctx context.Context, quantity, pricePerLiter *big.Int, expiry time.Time) (*PendingTx, error)
	PlaceOrder(ctx context.Context, batchID, quantity, value *big.Int) (*PendingTx, error)
	ConfirmDelivery(ctx context.Context, orderID *big.Int) (*PendingTx, error)
}

// Backend is the chain connection a client needs.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// boundContract is the part of *bind.BoundContract the client uses.
type boundContract interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// Client talks to one deployed MilkNet contract as one account.
type Client struct {
	address  common.Address
	contract boundContract
	receipts bind.DeployBackend
	opts     *bind.TransactOpts
}

var _ Contract = (*Client)(nil)

// New binds the contract at address. opts may be nil for a read-only client.
func New(address common.Address, backend Backend, opts *bind.TransactOpts) (*Client, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, fmt.Errorf("parsing milknet abi: %w", err)
	}
	return &Client{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		receipts: backend,
		opts:     opts,
	}, nil
}

// Address returns the contract address.
func (c *Client) Address() common.Address { return c.address }

// CanTransact reports whether writes are possible.
func (c *Client) CanTransact() bool { return c.opts != nil }

func (c *Client) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if c.opts != nil {
		opts.From = c.opts.From
	}
	if err := c.contract.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

// BatchCounter returns the number of batches ever created.
func (c *Client) BatchCounter(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, "batchCounter")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Paused returns the contract's pause flag.
func (c *Client) Paused(ctx context.Context) (bool, error) {
	out, err := c.call(ctx, "paused")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// Batch reads one batch.
func (c *Client) Batch(ctx context.Context, id *big.Int) (*Batch, error) {
	out, err := c.call(ctx, "batches", id)
	if err != nil {
		return nil, err
	}
	expiry := *abi.ConvertType(out[4], new(*big.Int)).(**big.Int)
	return &Batch{
		ID:            *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Farmer:        *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		Quantity:      *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		PricePerLiter: *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		Expiry:        time.Unix(expiry.Int64(), 0),
		Flags:         *abi.ConvertType(out[5], new(uint8)).(*uint8),
	}, nil
}

// Order reads one order.
func (c *Client) Order(ctx context.Context, id *big.Int) (*Order, error) {
	out, err := c.call(ctx, "orders", id)
	if err != nil {
		return nil, err
	}
	return &Order{
		ID:          *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		BatchID:     *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		Consumer:    *abi.ConvertType(out[2], new(common.Address)).(*common.Address),
		Farmer:      *abi.ConvertType(out[3], new(common.Address)).(*common.Address),
		Quantity:    *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		TotalPrice:  *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		IsDelivered: *abi.ConvertType(out[6], new(bool)).(*bool),
	}, nil
}

func (c *Client) participant(ctx context.Context, method string, addr common.Address) (*Participant, error) {
	out, err := c.call(ctx, method, addr)
	if err != nil {
		return nil, err
	}
	return &Participant{
		Name:         *abi.ConvertType(out[0], new(string)).(*string),
		Location:     *abi.ConvertType(out[1], new(string)).(*string),
		IsRegistered: *abi.ConvertType(out[2], new(bool)).(*bool),
	}, nil
}

// Farmer reads a farmer registration.
func (c *Client) Farmer(ctx context.Context, addr common.Address) (*Participant, error) {
	return c.participant(ctx, "farmers", addr)
}

// Consumer reads a buyer registration.
func (c *Client) Consumer(ctx context.Context, addr common.Address) (*Participant, error) {
	return c.participant(ctx, "consumers", addr)
}

// ConsumerOrders lists the order ids placed by addr.
func (c *Client) ConsumerOrders(ctx context.Context, addr common.Address) ([]*big.Int, error) {
	out, err := c.call(ctx, "consumerOrders", addr)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

// ActiveBatches walks batch ids 1..batchCounter and keeps the ones that are
// active, not deleted and not expired at now.
func (c *Client) ActiveBatches(ctx context.Context, now time.Time) ([]*Batch, error) {
	counter, err := c.BatchCounter(ctx)
	if err != nil {
		return nil, err
	}
	var active []*Batch
	for id := int64(1); id <= counter.Int64(); id++ {
		b, err := c.Batch(ctx, big.NewInt(id))
		if err != nil {
			return nil, err
		}
		if b.Active(now) {
			active = append(active, b)
		}
	}
	log.L(ctx).Debugf("%d of %s batches active", len(active), counter)
	return active, nil
}

func (c *Client) transact(ctx context.Context, value *big.Int, method string, params ...interface{}) (*PendingTx, error) {
	if c.opts == nil {
		return nil, ErrReadOnly
	}
	opts := *c.opts
	opts.Context = ctx
	opts.Value = value
	tx, err := c.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	log.L(ctx).Infof("sent %s tx %s", method, tx.Hash().Hex())
	return newPendingTx(tx, c.receipts), nil
}

// RegisterFarmer registers the signer as a farmer.
func (c *Client) RegisterFarmer(ctx context.Context, name, location string) (*PendingTx, error) {
	return c.transact(ctx, nil, "registerFarmer", name, location)
}

// RegisterConsumer registers the signer as a buyer.
func (c *Client) RegisterConsumer(ctx context.Context, name, location string) (*PendingTx, error) {
	return c.transact(ctx, nil, "registerConsumer", name, location)
}

// CreateBatch lists a new batch.
func (c *Client) CreateBatch(ctx context.Context, quantity, pricePerLiter *big.Int, expiry time.Time) (*PendingTx, error) {
	return c.transact(ctx, nil, "createBatch", quantity, pricePerLiter, big.NewInt(expiry.Unix()))
}

// PlaceOrder orders quantity liters from a batch, paying value wei.
func (c *Client) PlaceOrder(ctx context.Context, batchID, quantity, value *big.Int) (*PendingTx, error) {
	return c.transact(ctx, value, "placeOrder", batchID, quantity)
}

// ConfirmDelivery marks an order delivered, releasing escrow.
func (c *Client) ConfirmDelivery(ctx context.Context, orderID *big.Int) (*PendingTx, error) {
	return c.transact(ctx, nil, "confirmDelivery", orderID)
}
