package milknet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	farmerAddr   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	buyerAddr    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// chainCaller answers eth_call by decoding the selector with the real ABI
// and packing whatever the handler returns.
type chainCaller struct {
	handlers map[string]func(args []interface{}) ([]interface{}, error)
	calls    []string
}

func (c *chainCaller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (c *chainCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	c.calls = append(c.calls, method.Name)
	h, ok := c.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s", method.Name)
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	outs, err := h(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outs...)
}

func readClient(t *testing.T, caller *chainCaller) *Client {
	t.Helper()
	parsed, err := ABI()
	require.NoError(t, err)
	return &Client{
		address:  contractAddr,
		contract: bind.NewBoundContract(contractAddr, parsed, caller, nil, nil),
	}
}

func batchOutputs(id int64, farmer common.Address, qty, price int64, expiry time.Time, flags uint8) []interface{} {
	return []interface{}{big.NewInt(id), farmer, big.NewInt(qty), big.NewInt(price), big.NewInt(expiry.Unix()), flags}
}

func TestABIParses(t *testing.T) {
	parsed, err := ABI()
	require.NoError(t, err)
	for _, name := range []string{"batchCounter", "paused", "batches", "orders", "farmers", "consumers",
		"consumerOrders", "registerFarmer", "registerConsumer", "createBatch", "placeOrder", "confirmDelivery"} {
		assert.Contains(t, parsed.Methods, name)
	}
	assert.True(t, parsed.Methods["placeOrder"].IsPayable())
	assert.NotEmpty(t, ABIJSON())
}

func TestBatchCounterAndPaused(t *testing.T) {
	caller := &chainCaller{handlers: map[string]func([]interface{}) ([]interface{}, error){
		"batchCounter": func([]interface{}) ([]interface{}, error) { return []interface{}{big.NewInt(7)}, nil },
		"paused":       func([]interface{}) ([]interface{}, error) { return []interface{}{true}, nil },
	}}
	c := readClient(t, caller)
	ctx := context.Background()

	n, err := c.BatchCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n.Int64())

	paused, err := c.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)
	assert.Equal(t, contractAddr, c.Address())
	assert.False(t, c.CanTransact())
}

func TestCallErrorNamesMethod(t *testing.T) {
	c := readClient(t, &chainCaller{})
	_, err := c.BatchCounter(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batchCounter")
}

func TestBatchDecodes(t *testing.T) {
	expiry := time.Unix(1_900_000_000, 0)
	caller := &chainCaller{handlers: map[string]func([]interface{}) ([]interface{}, error){
		"batches": func(args []interface{}) ([]interface{}, error) {
			id := args[0].(*big.Int).Int64()
			return batchOutputs(id, farmerAddr, 100, 5e15, expiry, FlagActive), nil
		},
	}}
	b, err := readClient(t, caller).Batch(context.Background(), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.ID.Int64())
	assert.Equal(t, farmerAddr, b.Farmer)
	assert.Equal(t, int64(100), b.Quantity.Int64())
	assert.Equal(t, int64(5e15), b.PricePerLiter.Int64())
	assert.True(t, expiry.Equal(b.Expiry))
	assert.Equal(t, FlagActive, b.Flags)
	assert.Equal(t, big.NewInt(5e16), b.Cost(big.NewInt(10)))
}

func TestOrderAndParticipantDecode(t *testing.T) {
	caller := &chainCaller{handlers: map[string]func([]interface{}) ([]interface{}, error){
		"orders": func(args []interface{}) ([]interface{}, error) {
			return []interface{}{args[0], big.NewInt(2), buyerAddr, farmerAddr, big.NewInt(4), big.NewInt(2e16), false}, nil
		},
		"farmers": func(args []interface{}) ([]interface{}, error) {
			assert.Equal(t, farmerAddr, args[0])
			return []interface{}{"Amina", "Kisumu", true}, nil
		},
		"consumers": func([]interface{}) ([]interface{}, error) {
			return []interface{}{"", "", false}, nil
		},
		"consumerOrders": func([]interface{}) ([]interface{}, error) {
			return []interface{}{[]*big.Int{big.NewInt(1), big.NewInt(9)}}, nil
		},
	}}
	c := readClient(t, caller)
	ctx := context.Background()

	o, err := c.Order(ctx, big.NewInt(9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), o.ID.Int64())
	assert.Equal(t, buyerAddr, o.Consumer)
	assert.Equal(t, farmerAddr, o.Farmer)
	assert.Equal(t, int64(2e16), o.TotalPrice.Int64())
	assert.False(t, o.IsDelivered)

	f, err := c.Farmer(ctx, farmerAddr)
	require.NoError(t, err)
	assert.Equal(t, Participant{Name: "Amina", Location: "Kisumu", IsRegistered: true}, *f)

	consumer, err := c.Consumer(ctx, buyerAddr)
	require.NoError(t, err)
	assert.False(t, consumer.IsRegistered)

	ids, err := c.ConsumerOrders(ctx, buyerAddr)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, int64(9), ids[1].Int64())
}

func TestActiveBatchesFiltersFlagsAndExpiry(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	later := now.Add(24 * time.Hour)
	earlier := now.Add(-time.Hour)
	rows := map[int64][]interface{}{
		1: batchOutputs(1, farmerAddr, 10, 1, later, FlagActive),
		2: batchOutputs(2, farmerAddr, 10, 1, later, FlagActive|FlagDeleted),
		3: batchOutputs(3, farmerAddr, 10, 1, earlier, FlagActive),
		4: batchOutputs(4, farmerAddr, 10, 1, later, 0),
		5: batchOutputs(5, buyerAddr, 10, 1, later, FlagActive),
	}
	caller := &chainCaller{handlers: map[string]func([]interface{}) ([]interface{}, error){
		"batchCounter": func([]interface{}) ([]interface{}, error) { return []interface{}{big.NewInt(5)}, nil },
		"batches": func(args []interface{}) ([]interface{}, error) {
			return rows[args[0].(*big.Int).Int64()], nil
		},
	}}

	active, err := readClient(t, caller).ActiveBatches(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].ID.Int64())
	assert.Equal(t, int64(5), active[1].ID.Int64())
}

// sender records transactions instead of broadcasting them.
type sender struct {
	method string
	params []interface{}
	value  *big.Int
	err    error
}

func (s *sender) Call(*bind.CallOpts, *[]interface{}, string, ...interface{}) error {
	return errors.New("not a reader")
}

func (s *sender) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.method, s.params, s.value = method, params, opts.Value
	return types.NewTransaction(1, contractAddr, opts.Value, 100000, big.NewInt(1), []byte(method)), nil
}

// receipts is a DeployBackend whose receipt shows up after a few polls.
type receipts struct {
	pending  int
	failures int
	status   uint64
}

func (r *receipts) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (r *receipts) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("rpc down")
	}
	if r.pending > 0 {
		r.pending--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: r.status}, nil
}

func writeClient(s *sender, r bind.DeployBackend) *Client {
	return &Client{
		address:  contractAddr,
		contract: s,
		receipts: r,
		opts:     &bind.TransactOpts{From: farmerAddr},
	}
}

func TestWritesEncodeArguments(t *testing.T) {
	s := &sender{}
	c := writeClient(s, &receipts{status: types.ReceiptStatusSuccessful})
	ctx := context.Background()

	_, err := c.RegisterFarmer(ctx, "Amina", "Kisumu")
	require.NoError(t, err)
	assert.Equal(t, "registerFarmer", s.method)
	assert.Equal(t, []interface{}{"Amina", "Kisumu"}, s.params)

	_, err = c.RegisterConsumer(ctx, "Ben", "Nairobi")
	require.NoError(t, err)
	assert.Equal(t, "registerConsumer", s.method)

	expiry := time.Unix(1_900_000_000, 0)
	_, err = c.CreateBatch(ctx, big.NewInt(50), big.NewInt(1e15), expiry)
	require.NoError(t, err)
	assert.Equal(t, "createBatch", s.method)
	assert.Equal(t, big.NewInt(expiry.Unix()), s.params[2])
	assert.Nil(t, s.value)

	_, err = c.PlaceOrder(ctx, big.NewInt(1), big.NewInt(5), big.NewInt(5e15))
	require.NoError(t, err)
	assert.Equal(t, "placeOrder", s.method)
	assert.Equal(t, big.NewInt(5e15), s.value)

	tx, err := c.ConfirmDelivery(ctx, big.NewInt(9))
	require.NoError(t, err)
	assert.Equal(t, "confirmDelivery", s.method)
	assert.NotEqual(t, common.Hash{}, tx.Hash())
	assert.True(t, c.CanTransact())
}

func TestWriteWithoutOptsIsReadOnly(t *testing.T) {
	c := &Client{address: contractAddr, contract: &sender{}}
	_, err := c.ConfirmDelivery(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestWriteErrorNamesMethod(t *testing.T) {
	c := writeClient(&sender{err: errors.New("insufficient funds")}, &receipts{})
	_, err := c.PlaceOrder(context.Background(), big.NewInt(1), big.NewInt(1), big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeOrder")
}

func TestPendingTxWaitPollsUntilMined(t *testing.T) {
	r := &receipts{pending: 1, status: types.ReceiptStatusSuccessful}
	c := writeClient(&sender{}, r)
	tx, err := c.ConfirmDelivery(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	receipt, err := tx.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Zero(t, r.pending)
}

func TestPendingTxWaitReverted(t *testing.T) {
	c := writeClient(&sender{}, &receipts{status: types.ReceiptStatusFailed})
	tx, err := c.ConfirmDelivery(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	receipt, err := tx.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTxReverted)
	require.NotNil(t, receipt)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
}

func TestPendingTxWaitContextCancelled(t *testing.T) {
	c := writeClient(&sender{}, &receipts{pending: 1 << 20})
	tx, err := c.ConfirmDelivery(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tx.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, tx.Hash().Hex())
}

func TestPendingTxWaitRetriesReceiptErrors(t *testing.T) {
	r := &receipts{failures: 1, status: types.ReceiptStatusSuccessful}
	c := writeClient(&sender{}, r)
	tx, err := c.ConfirmDelivery(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	receipt, err := tx.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Zero(t, r.failures)
}

func TestBatchActive(t *testing.T) {
	now := time.Now()
	b := &Batch{Flags: FlagActive, Expiry: now.Add(time.Minute)}
	assert.True(t, b.Active(now))
	b.Flags |= FlagDeleted
	assert.False(t, b.Active(now))
	b.Flags = FlagActive
	b.Expiry = now
	assert.False(t, b.Active(now))
}
