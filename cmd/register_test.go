package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/session"
)

// registry answers the two registration reads.
type registry struct {
	milknet.Contract
	farmers   map[common.Address]bool
	consumers map[common.Address]bool
	err       error
}

func (r *registry) Farmer(_ context.Context, a common.Address) (*milknet.Participant, error) {
	return &milknet.Participant{IsRegistered: r.farmers[a]}, r.err
}

func (r *registry) Consumer(_ context.Context, a common.Address) (*milknet.Participant, error) {
	return &milknet.Participant{IsRegistered: r.consumers[a]}, r.err
}

func TestIsRegistered(t *testing.T) {
	acct := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	r := &registry{farmers: map[common.Address]bool{acct: true}}
	ctx := context.Background()

	ok, err := isRegistered(ctx, r, session.RoleFarmer, acct)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = isRegistered(ctx, r, session.RoleBuyer, acct)
	require.NoError(t, err)
	assert.False(t, ok)

	r.err = errors.New("farmers: execution reverted")
	_, err = isRegistered(ctx, r, session.RoleFarmer, acct)
	assert.ErrorContains(t, err, "execution reverted")
}
