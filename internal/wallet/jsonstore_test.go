package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStoreLoadNoFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))
	wallets, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	store := NewJSONStore(path)

	w := &Wallet{
		Name:      "farmer",
		Address:   "0xABCD",
		Type:      TypeSigning,
		KeyRef:    "milknet.farmer",
		IsDefault: true,
		CreatedAt: "2024-01-01T00:00:00Z",
	}
	require.NoError(t, store.Save([]*Wallet{w}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, *w, *loaded[0])
}

func TestJSONStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o600))

	_, err := NewJSONStore(path).Load()
	require.Error(t, err)
}

func TestWithStoreOptionPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")

	mgr := NewManager(WithStore(NewJSONStore(path)))
	require.NoError(t, mgr.Add("buyer", &Wallet{Name: "buyer", Address: "0xABC", Type: TypeWatchOnly}))
	require.NoError(t, mgr.SetDefault("buyer"))

	mgr2 := NewManager(WithStore(NewJSONStore(path)))
	w, err := mgr2.Get("buyer")
	require.NoError(t, err)
	assert.Equal(t, "0xABC", w.Address)
	assert.True(t, w.IsDefault)
}
