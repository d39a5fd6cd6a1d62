package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/milknet/internal/log"
	"github.com/Mohsinsiddi/milknet/internal/network"
)

const (
	defaultAlgorithm = "fastest"

	configFile  = "config.json"
	walletsFile = "wallets.json"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.milknet.
// Contract addresses from the environment override the file.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".milknet")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.configDir = dir
	if cfg.ContractAddresses == nil {
		cfg.ContractAddresses = make(map[string]string)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// SetContractAddress records the MilkNet deployment for a chain.
func (c *Config) SetContractAddress(chainID uint64, addr string) {
	if c.ContractAddresses == nil {
		c.ContractAddresses = make(map[string]string)
	}
	c.ContractAddresses[strconv.FormatUint(chainID, 10)] = addr
}

// ContractAddress returns the configured deployment for a chain, or "".
func (c *Config) ContractAddress(chainID uint64) string {
	return c.ContractAddresses[strconv.FormatUint(chainID, 10)]
}

// NetworkTable builds the supported-network table: built-in defaults with
// configured addresses, then any configured networks on top.
func (c *Config) NetworkTable() *network.Table {
	addrs := make(map[uint64]string, len(c.ContractAddresses))
	for k, v := range c.ContractAddresses {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		addrs[id] = v
	}
	descs := append(network.Defaults(addrs), c.Networks...)
	return network.NewTable(descs...)
}

// TxConfirmTimeout returns the configured wait for receipts.
func (c *Config) TxConfirmTimeout() time.Duration {
	if c.TxConfirmTimeoutSeconds <= 0 {
		return DefaultTxConfirm
	}
	return time.Duration(c.TxConfirmTimeoutSeconds) * time.Second
}

// WalletsPath is where the wallet manager persists wallets.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		RPCAlgorithm:      defaultAlgorithm,
		InitialChainID:    network.SepoliaChainID,
		ContractAddresses: make(map[string]string),
		Log:               log.Defaults,
		configDir:         dir,
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSepoliaContract); v != "" {
		c.SetContractAddress(network.SepoliaChainID, v)
	}
	if v := os.Getenv(EnvLiskContract); v != "" {
		c.SetContractAddress(network.LiskTestnetChainID, v)
	}
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
