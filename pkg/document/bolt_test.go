package document

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) Store {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "economy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltRoundTrip(t *testing.T) {
	store := newTestBoltStore(t)

	assert.Nil(t, store.Fetch("G1.U1.money"))
	require.NoError(t, store.Set("G1.U1.money", 500))
	assert.Equal(t, float64(500), store.Fetch("G1.U1.money"))

	require.NoError(t, store.Add("G1.U1.money", 25))
	require.NoError(t, store.Subtract("G1.U1.money", 125))
	assert.Equal(t, float64(400), store.Fetch("G1.U1.money"))
}

func TestBoltArrayOperations(t *testing.T) {
	store := newTestBoltStore(t)

	require.NoError(t, store.Push("G1.shop", map[string]any{"id": 1}))
	require.NoError(t, store.Push("G1.shop", map[string]any{"id": 2}))
	require.NoError(t, store.Pull("G1.shop", 0, map[string]any{"id": 1}))

	arr := store.Fetch("G1.shop").([]any)
	require.Len(t, arr, 1)
	elem := arr[0].(map[string]any)
	assert.Equal(t, float64(2), elem["id"])
}

func TestBoltRemoveGuild(t *testing.T) {
	store := newTestBoltStore(t)

	require.NoError(t, store.Set("G1.U1.money", 1))
	require.NoError(t, store.Set("G2.U1.money", 2))
	require.NoError(t, store.Remove("G1"))

	assert.Nil(t, store.Fetch("G1.U1.money"))
	all := store.All()
	assert.NotContains(t, all, "G1")
	assert.Contains(t, all, "G2")
}
