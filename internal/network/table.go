// Package network holds the static allow-list of chains the MilkNet contract
// is deployed on, together with the parameters a wallet needs to add them.
package network

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupported is returned when a chain id or name is not in the table.
var ErrUnsupported = errors.New("network not supported")

// Well-known chain ids of the reference deployment.
const (
	SepoliaChainID     uint64 = 11155111
	LiskTestnetChainID uint64 = 4202
)

// NativeCurrency mirrors the wallet_addEthereumChain currency object.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// AddChainParams is what a wallet needs to learn an unknown chain.
type AddChainParams struct {
	ChainID           string         `json:"chainId"` // 0x-prefixed hex
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// Validate checks the fields a wallet cannot do without.
func (p AddChainParams) Validate() error {
	if _, err := ParseChainID(p.ChainID); err != nil {
		return fmt.Errorf("chainId: %w", err)
	}
	if strings.TrimSpace(p.ChainName) == "" {
		return errors.New("chainName is required")
	}
	if len(p.RPCURLs) == 0 {
		return errors.New("at least one rpc url is required")
	}
	return nil
}

// Descriptor describes one supported network.
type Descriptor struct {
	ChainID         uint64         `json:"chain_id"`
	Name            string         `json:"name"`
	ContractAddress common.Address `json:"contract_address"`
	AddChain        AddChainParams `json:"add_chain"`
}

// Explorer returns the first block explorer URL, or "".
func (d *Descriptor) Explorer() string {
	if len(d.AddChain.BlockExplorerURLs) == 0 {
		return ""
	}
	return d.AddChain.BlockExplorerURLs[0]
}

// Table is the read-only set of supported networks.
type Table struct {
	byID map[uint64]*Descriptor
	ids  []uint64
}

// NewTable builds a table. Later descriptors with the same chain id replace
// earlier ones, which lets configuration override the defaults.
func NewTable(descs ...Descriptor) *Table {
	t := &Table{byID: make(map[uint64]*Descriptor, len(descs))}
	for i := range descs {
		d := descs[i]
		if d.AddChain.ChainID == "" {
			d.AddChain.ChainID = ChainIDHex(d.ChainID)
		}
		if _, seen := t.byID[d.ChainID]; !seen {
			t.ids = append(t.ids, d.ChainID)
		}
		t.byID[d.ChainID] = &d
	}
	sort.Slice(t.ids, func(i, j int) bool { return t.ids[i] < t.ids[j] })
	return t
}

// Lookup finds a network by chain id.
func (t *Table) Lookup(id uint64) (*Descriptor, error) {
	d, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: chain id %d", ErrUnsupported, id)
	}
	return d, nil
}

// Supports reports whether id is in the table.
func (t *Table) Supports(id uint64) bool {
	_, ok := t.byID[id]
	return ok
}

// Resolve accepts a chain id (decimal or 0x hex) or a case-insensitive name.
func (t *Table) Resolve(s string) (*Descriptor, error) {
	if id, err := ParseChainID(s); err == nil {
		return t.Lookup(id)
	}
	want := normalizeName(s)
	for _, id := range t.ids {
		d := t.byID[id]
		if normalizeName(d.Name) == want || normalizeName(d.AddChain.ChainName) == want {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// All returns the descriptors ordered by chain id.
func (t *Table) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.byID[id])
	}
	return out
}

// Names lists display names joined for messages: "Sepolia or LISK Testnet".
func (t *Table) Names() string {
	names := make([]string, 0, len(t.ids))
	for _, d := range t.All() {
		names = append(names, d.Name)
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

// ChainIDHex formats id the way wallets expect it: 11155111 → "0xaa36a7".
func ChainIDHex(id uint64) string {
	return "0x" + strconv.FormatUint(id, 16)
}

// ParseChainID accepts "11155111" or "0xaa36a7".
func ParseChainID(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, errors.New("empty chain id")
	}
	if strings.HasPrefix(s, "0x") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
