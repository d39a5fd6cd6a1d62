package config

import "time"

// Environment variables read by Load.
const (
	EnvConfigDir       = "MILKNET_CONFIG_DIR"
	EnvSepoliaContract = "MILKNET_SEPOLIA_CONTRACT_ADDRESS"
	EnvLiskContract    = "MILKNET_LISK_CONTRACT_ADDRESS"
	EnvKeyringPassword = "MILKNET_KEYRING_PASSWORD"
)

// Timeouts used across cmd.
const (
	RPCSelectTimeout  = 10 * time.Second // endpoint benchmark before dialing
	SessionSettleWait = 30 * time.Second // wait for chainChanged after a switch
	DefaultTxConfirm  = 3 * time.Minute  // transaction confirmation wait
)
