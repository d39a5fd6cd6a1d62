package config

import (
	"github.com/Mohsinsiddi/milknet/internal/log"
	"github.com/Mohsinsiddi/milknet/internal/network"
)

// Config holds all milknet configuration.
type Config struct {
	DefaultWallet string `json:"default_wallet"`
	RPCAlgorithm  string `json:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	AutoApprove   bool   `json:"auto_approve"`  // skip wallet permission prompts

	// ContractAddresses maps a chain id (decimal string) to the MilkNet
	// deployment on that chain.
	ContractAddresses map[string]string `json:"contract_addresses"`

	// Networks are added to (or replace) the built-in Sepolia / LISK entries.
	Networks []network.Descriptor `json:"networks,omitempty"`

	// InitialChainID is the chain the local wallet starts on.
	InitialChainID uint64 `json:"initial_chain_id"`

	TxConfirmTimeoutSeconds int `json:"tx_confirm_timeout_seconds"`

	Log log.Config `json:"log"`

	// internal: config dir path used for Save()
	configDir string
}
