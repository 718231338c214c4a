package economy

import (
	"testing"

	"github.com/rbrabson/economy/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCurrency(t *testing.T) {
	eco := newTestEconomy(t)

	gems, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)
	assert.Equal(t, 1, gems.ID)
	assert.True(t, gems.Exists)

	tokens, err := eco.Currencies.Create("Tokens", "🪙", "G1")
	require.NoError(t, err)
	assert.Equal(t, 2, tokens.ID)

	_, err = eco.Currencies.Create("", "x", "G1")
	assert.ErrorIs(t, err, ErrInvalidItemName)
}

func TestFindCurrency(t *testing.T) {
	eco := newTestEconomy(t)

	gems, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)

	byID, err := eco.Currencies.Find("1", "G1")
	require.NoError(t, err)
	assert.Equal(t, gems.ID, byID.ID)

	byName, err := eco.Currencies.Find("GEMS", "G1")
	require.NoError(t, err)
	assert.True(t, byName.Exists)

	bySymbol, err := eco.Currencies.Find("💎", "G1")
	require.NoError(t, err)
	assert.True(t, bySymbol.Exists)

	missing, err := eco.Currencies.Find("Shells", "G1")
	require.NoError(t, err)
	assert.False(t, missing.Exists)
}

func TestEditCurrency(t *testing.T) {
	eco := newTestEconomy(t)

	gems, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)

	require.NoError(t, eco.Currencies.Edit(gems.ID, "G1", "name", "Crystals"))
	require.NoError(t, eco.Currencies.Edit(gems.ID, "G1", "symbol", "✨"))

	edited, err := eco.Currencies.Get(gems.ID, "G1")
	require.NoError(t, err)
	assert.Equal(t, "Crystals", edited.Name)
	assert.Equal(t, "✨", edited.Symbol)

	err = eco.Currencies.Edit(gems.ID, "G1", "balances", map[string]int{})
	assert.ErrorIs(t, err, ErrInvalidProperty)

	err = eco.Currencies.Edit(42, "G1", "name", "Nope")
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestDeleteCurrency(t *testing.T) {
	eco := newTestEconomy(t)

	gems, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)
	_, err = eco.Currencies.SetBalance(gems.ID, 100, "U1", "G1", "seed")
	require.NoError(t, err)

	deleted, err := eco.Currencies.Delete(gems.ID, "G1")
	require.NoError(t, err)
	assert.True(t, deleted)

	missing, err := eco.Currencies.Get(gems.ID, "G1")
	require.NoError(t, err)
	assert.False(t, missing.Exists)

	deleted, err = eco.Currencies.Delete(gems.ID, "G1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCurrencyBalances(t *testing.T) {
	eco := newTestEconomy(t)

	gems, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)

	balance, err := eco.Currencies.GetBalance(gems.ID, "U1", "G1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	balance, err = eco.Currencies.SetBalance(gems.ID, 100, "U1", "G1", "seed")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	balance, err = eco.Currencies.AddBalance(gems.ID, 50, "U1", "G1", "bonus")
	require.NoError(t, err)
	assert.Equal(t, 150, balance)

	balance, err = eco.Currencies.SubtractBalance(gems.ID, 30, "U1", "G1", "fee")
	require.NoError(t, err)
	assert.Equal(t, 120, balance)

	// Balances are per member inside one record.
	other, err := eco.Currencies.GetBalance(gems.ID, "U2", "G1")
	require.NoError(t, err)
	assert.Equal(t, 0, other)
}

func TestCurrencyBalanceUnknownCurrency(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Currencies.SetBalance(42, 100, "U1", "G1", "seed")
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestCurrencyBalanceEvents(t *testing.T) {
	eco := newTestEconomy(t)

	gems, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)

	var event BalanceEvent
	eco.Events().On(events.CustomCurrencyAdd, func(payload any) {
		event = payload.(BalanceEvent)
	})

	_, err = eco.Currencies.AddBalance(gems.ID, 50, "U1", "G1", "bonus")
	require.NoError(t, err)
	assert.Equal(t, "Gems", event.Currency)
	assert.Equal(t, 50, event.Amount)
	assert.Equal(t, 50, event.Balance)
	assert.Equal(t, 0, event.Previous)
	assert.Equal(t, "bonus", event.Reason)
}

func TestCurrencyEntityMethods(t *testing.T) {
	eco := newTestEconomy(t)

	gems, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)
	_, err = eco.Currencies.SetBalance(gems.ID, 75, "U1", "G1", "seed")
	require.NoError(t, err)

	currency, err := eco.Currencies.Get(gems.ID, "G1")
	require.NoError(t, err)
	assert.Equal(t, 75, currency.Balance("U1"))
	assert.Equal(t, 0, currency.Balance("U2"))

	require.NoError(t, currency.Edit("name", "Crystals"))
	deleted, err := currency.Delete()
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCurrenciesAreScopedToGuilds(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Currencies.Create("Gems", "💎", "G1")
	require.NoError(t, err)

	other, err := eco.Currencies.Fetch("G2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
