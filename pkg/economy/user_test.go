package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnknownUser(t *testing.T) {
	eco := newTestEconomy(t)

	user, err := eco.Users.Get("U1", "G1")
	require.NoError(t, err)
	assert.False(t, user.Exists)
	assert.Equal(t, 0, user.Money)
	assert.Equal(t, 0, user.Bank)
}

func TestCreateUser(t *testing.T) {
	eco := newTestEconomy(t)

	user, err := eco.Users.Create("U1", "G1")
	require.NoError(t, err)
	assert.True(t, user.Exists)
	assert.Equal(t, 0, user.Money)

	records, err := eco.Inventory.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateUserIsIdempotent(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Balance.Set(500, "U1", "G1", "seed")
	require.NoError(t, err)

	user, err := eco.Users.Create("U1", "G1")
	require.NoError(t, err)
	assert.True(t, user.Exists)
	assert.Equal(t, 500, user.Money)

	balance, err := eco.Balance.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Equal(t, 500, balance)
}

func TestResetUser(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Balance.Set(500, "U1", "G1", "seed")
	require.NoError(t, err)
	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)
	require.NoError(t, eco.Inventory.AddItem(sword.ID, "U1", "G1", 2))

	require.NoError(t, eco.Users.Reset("U1", "G1"))

	balance, err := eco.Balance.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	records, err := eco.Inventory.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteUser(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Balance.Set(500, "U1", "G1", "seed")
	require.NoError(t, err)
	_, err = eco.Balance.Set(100, "U2", "G1", "seed")
	require.NoError(t, err)

	require.NoError(t, eco.Users.Delete("U1", "G1"))

	user, err := eco.Users.Get("U1", "G1")
	require.NoError(t, err)
	assert.False(t, user.Exists)

	// Other members are untouched.
	balance, err := eco.Balance.Fetch("U2", "G1")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)
}

func TestAllUsers(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Balance.Set(100, "U2", "G1", "seed")
	require.NoError(t, err)
	_, err = eco.Balance.Set(200, "U1", "G1", "seed")
	require.NoError(t, err)
	_, err = eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)

	users, err := eco.Users.All("G1")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "U1", users[0].MemberID)
	assert.Equal(t, 200, users[0].Money)
	assert.Equal(t, "U2", users[1].MemberID)
}

func TestUserEntityAccessors(t *testing.T) {
	eco := newTestEconomy(t)

	sword, err := eco.Shop.AddItem("G1", AddItemOptions{Name: "Sword", Price: 100})
	require.NoError(t, err)
	require.NoError(t, eco.Inventory.AddItem(sword.ID, "U1", "G1", 2))

	user, err := eco.Users.Get("U1", "G1")
	require.NoError(t, err)

	items, err := user.Inventory().All()
	require.NoError(t, err)
	assert.Len(t, items, 2)

	entries, err := user.History().All()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, user.Reset())
	items, err = user.Inventory().All()
	require.NoError(t, err)
	assert.Empty(t, items)
}
