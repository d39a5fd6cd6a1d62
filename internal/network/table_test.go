package network

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sepoliaAddr = "0x1111111111111111111111111111111111111111"

func defaultTable() *Table {
	return NewTable(Defaults(map[uint64]string{SepoliaChainID: sepoliaAddr})...)
}

// ---------------------------------------------------------------------------
// Lookup / Resolve
// ---------------------------------------------------------------------------

func TestLookupSepolia(t *testing.T) {
	d, err := defaultTable().Lookup(SepoliaChainID)
	require.NoError(t, err)
	assert.Equal(t, "Sepolia", d.Name)
	assert.Equal(t, common.HexToAddress(sepoliaAddr), d.ContractAddress)
	assert.Equal(t, "0xaa36a7", d.AddChain.ChainID)
	assert.Equal(t, "https://sepolia.etherscan.io", d.Explorer())
}

func TestLookupUnsupported(t *testing.T) {
	_, err := defaultTable().Lookup(1)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestResolve(t *testing.T) {
	tbl := defaultTable()
	for _, in := range []string{"sepolia", "Sepolia Testnet", "11155111", "0xaa36a7", "0xAA36A7"} {
		d, err := tbl.Resolve(in)
		require.NoError(t, err, in)
		assert.Equal(t, SepoliaChainID, d.ChainID, in)
	}
	for _, in := range []string{"lisk-testnet", "LISK Testnet", "4202", "0x106a"} {
		d, err := tbl.Resolve(in)
		require.NoError(t, err, in)
		assert.Equal(t, LiskTestnetChainID, d.ChainID, in)
	}
	_, err := tbl.Resolve("mainnet")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSupportsAndAll(t *testing.T) {
	tbl := defaultTable()
	assert.True(t, tbl.Supports(SepoliaChainID))
	assert.False(t, tbl.Supports(137))

	all := tbl.All()
	require.Len(t, all, 2)
	assert.Equal(t, LiskTestnetChainID, all[0].ChainID) // ordered by id
	assert.Equal(t, SepoliaChainID, all[1].ChainID)
}

func TestNewTableOverride(t *testing.T) {
	extra := Descriptor{ChainID: SepoliaChainID, Name: "Sepolia (custom)"}
	tbl := NewTable(append(Defaults(nil), extra)...)
	d, err := tbl.Lookup(SepoliaChainID)
	require.NoError(t, err)
	assert.Equal(t, "Sepolia (custom)", d.Name)
	assert.Equal(t, "0xaa36a7", d.AddChain.ChainID, "chain id hex filled in")
	assert.Len(t, tbl.All(), 2)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "LISK Testnet or Sepolia", defaultTable().Names())
	assert.Equal(t, "", NewTable().Names())
	assert.Equal(t, "A", NewTable(Descriptor{ChainID: 1, Name: "A"}).Names())
	assert.Equal(t, "A, B or C", NewTable(
		Descriptor{ChainID: 1, Name: "A"},
		Descriptor{ChainID: 2, Name: "B"},
		Descriptor{ChainID: 3, Name: "C"},
	).Names())
}

// ---------------------------------------------------------------------------
// Chain id helpers
// ---------------------------------------------------------------------------

func TestChainIDHex(t *testing.T) {
	assert.Equal(t, "0xaa36a7", ChainIDHex(SepoliaChainID))
	assert.Equal(t, "0x106a", ChainIDHex(LiskTestnetChainID))
	assert.Equal(t, "0x1", ChainIDHex(1))
}

func TestParseChainID(t *testing.T) {
	id, err := ParseChainID(" 0x106A ")
	require.NoError(t, err)
	assert.Equal(t, uint64(4202), id)

	id, err = ParseChainID("11155111")
	require.NoError(t, err)
	assert.Equal(t, SepoliaChainID, id)

	_, err = ParseChainID("")
	assert.Error(t, err)
	_, err = ParseChainID("sepolia")
	assert.Error(t, err)
}

func TestAddChainParamsValidate(t *testing.T) {
	p := Defaults(nil)[0].AddChain
	require.NoError(t, p.Validate())

	bad := p
	bad.RPCURLs = nil
	assert.Error(t, bad.Validate())

	bad = p
	bad.ChainName = " "
	assert.Error(t, bad.Validate())

	bad = p
	bad.ChainID = "zz"
	assert.Error(t, bad.Validate())
}
