package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveClaimsWhenReady(t *testing.T) {
	eco := newTestEconomy(t)

	result, err := eco.Rewards.Receive(Daily, "U1", "G1", "test")
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.Equal(t, Daily, result.Type)
	assert.Equal(t, 100, result.Reward)
	assert.Equal(t, 100, result.Balance)

	balance, err := eco.Balance.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)
}

func TestReceiveRefusesOnCooldown(t *testing.T) {
	eco := newTestEconomy(t)

	first, err := eco.Rewards.Receive(Daily, "U1", "G1", "test")
	require.NoError(t, err)
	require.True(t, first.Claimed)

	second, err := eco.Rewards.Receive(Daily, "U1", "G1", "test")
	require.NoError(t, err)
	assert.False(t, second.Claimed)
	assert.Equal(t, 0, second.Reward)
	assert.Greater(t, second.Cooldown, time.Duration(0))
	assert.LessOrEqual(t, second.Cooldown, 24*time.Hour)

	// The refused claim changed nothing.
	balance, err := eco.Balance.Fetch("U1", "G1")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)
}

func TestRewardTypesHaveIndependentCooldowns(t *testing.T) {
	eco := newTestEconomy(t)

	daily, err := eco.Rewards.Receive(Daily, "U1", "G1", "test")
	require.NoError(t, err)
	require.True(t, daily.Claimed)

	hourly, err := eco.Rewards.Receive(Hourly, "U1", "G1", "test")
	require.NoError(t, err)
	assert.True(t, hourly.Claimed)
	assert.Equal(t, 20, hourly.Reward)
}

func TestWorkRewardRollsWithinRange(t *testing.T) {
	eco := newTestEconomy(t)

	result, err := eco.Rewards.Receive(Work, "U1", "G1", "test")
	require.NoError(t, err)
	require.True(t, result.Claimed)
	assert.GreaterOrEqual(t, result.Reward, 10)
	assert.LessOrEqual(t, result.Reward, 50)
}

func TestRoll(t *testing.T) {
	assert.Equal(t, 0, roll(RewardAmount{}))
	assert.Equal(t, 100, roll(RewardAmount{100}))
	for i := 0; i < 100; i++ {
		value := roll(RewardAmount{10, 50})
		assert.GreaterOrEqual(t, value, 10)
		assert.LessOrEqual(t, value, 50)
	}
}

func TestGetCooldown(t *testing.T) {
	eco := newTestEconomy(t)

	remaining, err := eco.Rewards.GetCooldown(Daily, "U1", "G1")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining)

	_, err = eco.Rewards.Receive(Daily, "U1", "G1", "test")
	require.NoError(t, err)

	remaining, err = eco.Rewards.GetCooldown(Daily, "U1", "G1")
	require.NoError(t, err)
	assert.Greater(t, remaining, time.Duration(0))

	_, err = eco.Rewards.GetCooldown(RewardType("yearly"), "U1", "G1")
	assert.ErrorIs(t, err, ErrUnknownRewardType)
}

func TestCooldowns(t *testing.T) {
	eco := newTestEconomy(t)

	cooldowns, err := eco.Rewards.Cooldowns("U1", "G1")
	require.NoError(t, err)
	assert.True(t, cooldowns.Daily.IsZero())
	assert.True(t, cooldowns.Work.IsZero())

	_, err = eco.Rewards.Receive(Work, "U1", "G1", "test")
	require.NoError(t, err)

	cooldowns, err = eco.Rewards.Cooldowns("U1", "G1")
	require.NoError(t, err)
	assert.True(t, cooldowns.Daily.IsZero())
	assert.False(t, cooldowns.Work.IsZero())
	assert.WithinDuration(t, time.Now(), cooldowns.Work, 5*time.Second)
}

func TestReceiveUnknownType(t *testing.T) {
	eco := newTestEconomy(t)

	_, err := eco.Rewards.Receive(RewardType("yearly"), "U1", "G1", "test")
	assert.ErrorIs(t, err, ErrUnknownRewardType)
}

func TestRewardAmountOverride(t *testing.T) {
	eco := newTestEconomy(t)

	require.NoError(t, eco.Settings.Set("workAmount", 42, "G1"))

	result, err := eco.Rewards.Receive(Work, "U1", "G1", "test")
	require.NoError(t, err)
	require.True(t, result.Claimed)
	assert.Equal(t, 42, result.Reward)
}

func TestCooldownOverride(t *testing.T) {
	eco := newTestEconomy(t)

	// A one-millisecond cooldown lets the reward be claimed again almost
	// immediately.
	require.NoError(t, eco.Settings.Set("hourlyCooldown", 1, "G1"))

	first, err := eco.Rewards.Receive(Hourly, "U1", "G1", "test")
	require.NoError(t, err)
	require.True(t, first.Claimed)

	time.Sleep(5 * time.Millisecond)

	second, err := eco.Rewards.Receive(Hourly, "U1", "G1", "test")
	require.NoError(t, err)
	assert.True(t, second.Claimed)
}
