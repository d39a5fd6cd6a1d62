package cmd

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/milknet/internal/config"
	"github.com/Mohsinsiddi/milknet/internal/localstore"
	"github.com/Mohsinsiddi/milknet/internal/session"
)

// execute runs the root command against an isolated config and cache dir.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv(config.EnvKeyringPassword, "test")
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))
	return cache, rootCmd.Execute()
}

func TestNetworkListRuns(t *testing.T) {
	_, err := execute(t, "network", "list")
	require.NoError(t, err)
}

func TestNetworkSwitchUnknown(t *testing.T) {
	_, err := execute(t, "network", "switch", "mainnet")
	assert.ErrorContains(t, err, "not supported")
}

func TestABIRuns(t *testing.T) {
	_, err := execute(t, "abi")
	require.NoError(t, err)
}

func TestRoleSetPersists(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("cache dir follows XDG_CACHE_HOME on linux only")
	}
	cache, err := execute(t, "role", "farmer")
	require.NoError(t, err)

	store := localstore.Open(filepath.Join(cache, "milknet", "localstorage.json"))
	role, ok := store.Get(session.RoleKey)
	require.True(t, ok)
	assert.Equal(t, "farmer", role)
}

func TestRoleRejectsUnknown(t *testing.T) {
	_, err := execute(t, "role", "trader")
	assert.ErrorIs(t, err, session.ErrInvalidRole)
}

func TestRegisterRequiresNameAndLocation(t *testing.T) {
	_, err := execute(t, "register", "buyer")
	assert.ErrorContains(t, err, "--name and --location")
}

func TestConnectWithoutWallets(t *testing.T) {
	_, err := execute(t, "connect")
	assert.ErrorIs(t, err, session.ErrProviderMissing)
}

func TestCommandsNeedAWallet(t *testing.T) {
	_, err := execute(t, "orders")
	require.ErrorIs(t, err, session.ErrProviderMissing)
	assert.ErrorContains(t, err, "milknet wallet add")
}
