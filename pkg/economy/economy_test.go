package economy

import (
	"testing"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEconomy(t *testing.T, opts ...Option) *Economy {
	t.Helper()
	store, err := document.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, opts...)
}

func TestValidateIDs(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Balance.Fetch("U1", "")
	assert.ErrorIs(t, err, ErrInvalidGuildID)

	_, err = eco.Balance.Fetch("", "G1")
	assert.ErrorIs(t, err, ErrInvalidMemberID)
}

func TestCachesRefreshAfterMutation(t *testing.T) {
	eco := newTestEconomy(t)
	key := cache.Key{GuildID: "G1", MemberID: "U1"}

	balances := eco.Cache().Partition(cache.Balance)
	require.NoError(t, balances.Update(key))
	value, ok := balances.Get(key)
	require.True(t, ok)
	assert.Equal(t, 0, value)

	_, err := eco.Balance.Set(400, "U1", "G1", "test")
	require.NoError(t, err)

	value, ok = balances.Get(key)
	require.True(t, ok)
	assert.Equal(t, 400, value)

	users := eco.Cache().Partition(cache.Users)
	cached, ok := users.Get(key)
	require.True(t, ok)
	member, ok := cached.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(400), member["money"])
}

func TestWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SellingItemPercent = 50
	eco := newTestEconomy(t, WithConfig(cfg))

	assert.Equal(t, 50, eco.Config().SellingItemPercent)
}
