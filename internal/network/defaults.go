package network

import "github.com/ethereum/go-ethereum/common"

// Defaults returns the reference deployment: Sepolia and LISK Testnet.
// addrs maps chain id to the deployed MilkNet contract address; a missing
// entry leaves the zero address, which fails contract verification later.
func Defaults(addrs map[uint64]string) []Descriptor {
	return []Descriptor{
		{
			ChainID:         SepoliaChainID,
			Name:            "Sepolia",
			ContractAddress: common.HexToAddress(addrs[SepoliaChainID]),
			AddChain: AddChainParams{
				ChainID:           ChainIDHex(SepoliaChainID),
				ChainName:         "Sepolia Testnet",
				NativeCurrency:    NativeCurrency{Name: "Sepolia Ether", Symbol: "SEP", Decimals: 18},
				RPCURLs:           []string{"https://rpc.sepolia.org", "https://ethereum-sepolia-rpc.publicnode.com"},
				BlockExplorerURLs: []string{"https://sepolia.etherscan.io"},
			},
		},
		{
			ChainID:         LiskTestnetChainID,
			Name:            "LISK Testnet",
			ContractAddress: common.HexToAddress(addrs[LiskTestnetChainID]),
			AddChain: AddChainParams{
				ChainID:           ChainIDHex(LiskTestnetChainID),
				ChainName:         "Lisk Testnet",
				NativeCurrency:    NativeCurrency{Name: "Lisk", Symbol: "LSK", Decimals: 18},
				RPCURLs:           []string{"https://testnet-rpc.lisk.com"},
				BlockExplorerURLs: []string{"https://testnet-explorer.lisk.com"},
			},
		},
	}
}
