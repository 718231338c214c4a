package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SavePurchasesHistory = false
	eco := newTestEconomy(t, WithConfig(cfg))

	_, err := eco.History.Fetch("U1", "G1")
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	// A guild override re-enables it.
	require.NoError(t, eco.Settings.Set("savePurchasesHistory", true, "G1"))
	records, err := eco.History.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBuySkipsHistoryWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SavePurchasesHistory = false
	eco := newTestEconomy(t, WithConfig(cfg))

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)
	_, err = eco.Shop.Buy(sword.ID, "U1", "G1", 1, "", "test")
	require.NoError(t, err)

	records, err := eco.History.fetchRecords("U1", "G1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryEntriesGetSequentialIDs(t *testing.T) {
	eco := newTestEconomy(t)

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)

	require.NoError(t, eco.History.Add(sword.ID, "U1", "G1", 1))
	require.NoError(t, eco.History.Add(sword.ID, "U1", "G1", 3))

	records, err := eco.History.Fetch("U1", "G1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].ID)
	assert.Equal(t, 2, records[1].ID)
	assert.Equal(t, 3, records[1].Quantity)
	assert.Equal(t, 300, records[1].TotalPrice)
}

func TestHistoryAddSnapshotsTheItem(t *testing.T) {
	eco := newTestEconomy(t)

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100, Role: "<@&123>"})
	require.NoError(t, err)
	require.NoError(t, eco.History.Add(sword.ID, "U1", "G1", 1))

	records, err := eco.History.Fetch("U1", "G1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sword", records[0].Name)
	assert.Equal(t, 100, records[0].Price)
	assert.Equal(t, "<@&123>", records[0].Role)
	assert.Equal(t, "U1", records[0].MemberID)
	assert.Equal(t, "G1", records[0].GuildID)
	assert.NotEmpty(t, records[0].Date)
}

func TestHistoryAddUnknownItem(t *testing.T) {
	eco := newTestEconomy(t)

	require.NoError(t, eco.History.Add(42, "U1", "G1", 1))

	records, err := eco.History.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRemoveHistoryEntry(t *testing.T) {
	eco := newTestEconomy(t)

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)
	require.NoError(t, eco.History.Add(sword.ID, "U1", "G1", 1))
	require.NoError(t, eco.History.Add(sword.ID, "U1", "G1", 1))

	removed, err := eco.History.RemoveItem(1, "U1", "G1")
	require.NoError(t, err)
	assert.True(t, removed)

	records, err := eco.History.Fetch("U1", "G1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ID)

	removed, err = eco.History.RemoveItem(42, "U1", "G1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestClearHistory(t *testing.T) {
	eco := newTestEconomy(t)

	cleared, err := eco.History.Clear("U1", "G1")
	require.NoError(t, err)
	assert.False(t, cleared)

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)
	require.NoError(t, eco.History.Add(sword.ID, "U1", "G1", 1))

	cleared, err = eco.History.Clear("U1", "G1")
	require.NoError(t, err)
	assert.True(t, cleared)

	records, err := eco.History.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryItemRemove(t *testing.T) {
	eco := newTestEconomy(t)

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)
	require.NoError(t, eco.History.Add(sword.ID, "U1", "G1", 1))

	entry, err := eco.History.FindItem(1, "U1", "G1")
	require.NoError(t, err)
	require.True(t, entry.Exists)

	removed, err := entry.Remove()
	require.NoError(t, err)
	assert.True(t, removed)
}
