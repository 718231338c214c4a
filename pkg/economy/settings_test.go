package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGetWithoutOverride(t *testing.T) {
	eco := newTestEconomy(t)

	value, err := eco.Settings.Get("sellingItemPercent", "G1")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestSettingsSetAndGet(t *testing.T) {
	eco := newTestEconomy(t)

	require.NoError(t, eco.Settings.Set("sellingItemPercent", 50, "G1"))

	value, err := eco.Settings.Get("sellingItemPercent", "G1")
	require.NoError(t, err)
	n, ok := asInt(value)
	require.True(t, ok)
	assert.Equal(t, 50, n)
}

func TestSettingsRejectsUnknownKey(t *testing.T) {
	eco := newTestEconomy(t)

	err := eco.Settings.Set("bogusKey", 1, "G1")
	assert.ErrorIs(t, err, ErrSettingsKeyInvalid)

	_, err = eco.Settings.Get("bogusKey", "G1")
	assert.ErrorIs(t, err, ErrSettingsKeyInvalid)

	err = eco.Settings.Delete("bogusKey", "G1")
	assert.ErrorIs(t, err, ErrSettingsKeyInvalid)
}

func TestSettingsEnforceValueTypes(t *testing.T) {
	eco := newTestEconomy(t)

	err := eco.Settings.Set("sellingItemPercent", "half", "G1")
	assert.ErrorIs(t, err, ErrSettingsValueType)

	err = eco.Settings.Set("subtractOnBuy", 1, "G1")
	assert.ErrorIs(t, err, ErrSettingsValueType)

	require.NoError(t, eco.Settings.Set("subtractOnBuy", false, "G1"))
	require.NoError(t, eco.Settings.Set("workAmount", 25, "G1"))
	require.NoError(t, eco.Settings.Set("workAmount", []int{10, 50}, "G1"))

	err = eco.Settings.Set("workAmount", []int{1, 2, 3}, "G1")
	assert.ErrorIs(t, err, ErrSettingsValueType)
}

func TestSettingsDelete(t *testing.T) {
	eco := newTestEconomy(t)

	require.NoError(t, eco.Settings.Set("sellingItemPercent", 50, "G1"))
	require.NoError(t, eco.Settings.Delete("sellingItemPercent", "G1"))

	value, err := eco.Settings.Get("sellingItemPercent", "G1")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestSettingsReset(t *testing.T) {
	eco := newTestEconomy(t)

	require.NoError(t, eco.Settings.Set("sellingItemPercent", 10, "G1"))
	require.NoError(t, eco.Settings.Reset("G1"))

	value, err := eco.Settings.Get("sellingItemPercent", "G1")
	require.NoError(t, err)
	n, ok := asInt(value)
	require.True(t, ok)
	assert.Equal(t, 75, n)

	// Reset materializes every key as an explicit override.
	value, err = eco.Settings.Get("subtractOnBuy", "G1")
	require.NoError(t, err)
	assert.Equal(t, true, value)
}

func TestSettingsAllMergesOverridesWithDefaults(t *testing.T) {
	eco := newTestEconomy(t)

	require.NoError(t, eco.Settings.Set("sellingItemPercent", 50, "G1"))

	all, err := eco.Settings.All("G1")
	require.NoError(t, err)
	assert.Len(t, all, len(settingsKeys))

	n, ok := asInt(all["sellingItemPercent"])
	require.True(t, ok)
	assert.Equal(t, 50, n)

	// Everything else comes from the global configuration.
	assert.Equal(t, true, all["subtractOnBuy"])
	assert.Equal(t, []int{100}, all["dailyAmount"])
	assert.Equal(t, int64(24*60*60*1000), all["dailyCooldown"])
}

func TestSettingsOverridesChangeBehavior(t *testing.T) {
	eco := newTestEconomy(t)

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)
	require.NoError(t, eco.Settings.Set("subtractOnBuy", false, "G1"))

	result, err := eco.Shop.Buy(sword.ID, "U1", "G1", 1, "", "test")
	require.NoError(t, err)
	require.True(t, result.Status)

	balance, err := eco.Balance.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestSettingsAreScopedToGuilds(t *testing.T) {
	eco := newTestEconomy(t)

	require.NoError(t, eco.Settings.Set("sellingItemPercent", 50, "G1"))

	value, err := eco.Settings.Get("sellingItemPercent", "G2")
	require.NoError(t, err)
	assert.Nil(t, value)
}
