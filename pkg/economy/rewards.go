package economy

import (
	"math"
	"math/rand"
	"time"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/events"
	log "github.com/sirupsen/logrus"
)

// RewardType names one cooldown-gated reward.
type RewardType string

const (
	Daily   RewardType = "daily"
	Work    RewardType = "work"
	Weekly  RewardType = "weekly"
	Monthly RewardType = "monthly"
	Hourly  RewardType = "hourly"
)

// rewardSpec ties a reward type to its cooldown field and settings keys.
type rewardSpec struct {
	field       string
	amountKey   string
	cooldownKey string
}

var rewardSpecs = map[RewardType]rewardSpec{
	Daily:   {field: "dailyCooldown", amountKey: "dailyAmount", cooldownKey: "dailyCooldown"},
	Work:    {field: "workCooldown", amountKey: "workAmount", cooldownKey: "workCooldown"},
	Weekly:  {field: "weeklyCooldown", amountKey: "weeklyAmount", cooldownKey: "weeklyCooldown"},
	Monthly: {field: "monthlyCooldown", amountKey: "monthlyAmount", cooldownKey: "monthlyCooldown"},
	Hourly:  {field: "hourlyCooldown", amountKey: "hourlyAmount", cooldownKey: "hourlyCooldown"},
}

// RewardResult reports the outcome of a claim. Claimed is false when the
// member is still on cooldown, in which case Cooldown carries the
// remaining wait and nothing was changed.
type RewardResult struct {
	Type     RewardType    `json:"type"`
	Claimed  bool          `json:"claimed"`
	Reward   int           `json:"reward"`
	Balance  int           `json:"balance"`
	Cooldown time.Duration `json:"cooldown"`
}

// Cooldowns is the set of last-claim timestamps cached per member. Zero
// times mean the reward was never claimed.
type Cooldowns struct {
	Daily   time.Time `json:"daily"`
	Work    time.Time `json:"work"`
	Weekly  time.Time `json:"weekly"`
	Monthly time.Time `json:"monthly"`
	Hourly  time.Time `json:"hourly"`
}

// RewardManager grants the cooldown-gated rewards. Each member carries one
// epoch-millisecond timestamp per reward type marking the last claim.
type RewardManager struct {
	eco *Economy
}

func newRewardManager(eco *Economy) *RewardManager {
	return &RewardManager{eco: eco}
}

// amount resolves the effective reward amount: per-guild settings override
// first, then the global configuration.
func (m *RewardManager) amount(rewardType RewardType, guildID string) RewardAmount {
	cfg := m.eco.config
	spec := rewardSpecs[rewardType]
	var fallback RewardAmount
	switch rewardType {
	case Daily:
		fallback = cfg.DailyAmount
	case Work:
		fallback = cfg.WorkAmount
	case Weekly:
		fallback = cfg.WeeklyAmount
	case Monthly:
		fallback = cfg.MonthlyAmount
	case Hourly:
		fallback = cfg.HourlyAmount
	}
	return m.eco.Settings.amountValue(spec.amountKey, guildID, fallback)
}

// duration resolves the effective cooldown duration the same way.
func (m *RewardManager) duration(rewardType RewardType, guildID string) time.Duration {
	cfg := m.eco.config
	spec := rewardSpecs[rewardType]
	var fallback time.Duration
	switch rewardType {
	case Daily:
		fallback = cfg.DailyCooldown
	case Work:
		fallback = cfg.WorkCooldown
	case Weekly:
		fallback = cfg.WeeklyCooldown
	case Monthly:
		fallback = cfg.MonthlyCooldown
	case Hourly:
		fallback = cfg.HourlyCooldown
	}
	return m.eco.Settings.durationValue(spec.cooldownKey, guildID, fallback)
}

// roll picks the reward value. Two-element amounts use the historical
// formula floor(random*(min-max))+max, which skews toward max rather than
// drawing uniformly from [min,max].
func roll(amount RewardAmount) int {
	switch len(amount) {
	case 0:
		return 0
	case 1:
		return amount[0]
	default:
		min, max := amount[0], amount[1]
		return int(math.Floor(rand.Float64()*float64(min-max))) + max
	}
}

// lastClaim reads the stored claim timestamp for the reward, or a zero
// time when the member never claimed it.
func (m *RewardManager) lastClaim(rewardType RewardType, memberID string, guildID string) time.Time {
	spec := rewardSpecs[rewardType]
	ms, ok := asInt64(m.eco.store.Fetch(cooldownPath(memberID, guildID, spec.field)))
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// GetCooldown returns the remaining wait before the reward can be claimed
// again; 0 means the reward is ready.
func (m *RewardManager) GetCooldown(rewardType RewardType, memberID string, guildID string) (time.Duration, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return 0, err
	}
	if _, ok := rewardSpecs[rewardType]; !ok {
		return 0, ErrUnknownRewardType
	}

	last := m.lastClaim(rewardType, memberID, guildID)
	if last.IsZero() {
		return 0, nil
	}
	remaining := m.duration(rewardType, guildID) - time.Since(last)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Cooldowns returns every last-claim timestamp for the member.
func (m *RewardManager) Cooldowns(memberID string, guildID string) (Cooldowns, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return Cooldowns{}, err
	}
	return Cooldowns{
		Daily:   m.lastClaim(Daily, memberID, guildID),
		Work:    m.lastClaim(Work, memberID, guildID),
		Weekly:  m.lastClaim(Weekly, memberID, guildID),
		Monthly: m.lastClaim(Monthly, memberID, guildID),
		Hourly:  m.lastClaim(Hourly, memberID, guildID),
	}, nil
}

// Receive claims the reward. A member still on cooldown gets Claimed false
// and the remaining wait; a ready member gets the rolled reward credited,
// the claim timestamp written, and the touched caches refreshed.
func (m *RewardManager) Receive(rewardType RewardType, memberID string, guildID string, reason string) (*RewardResult, error) {
	log.Trace("--> RewardManager.Receive")
	defer log.Trace("<-- RewardManager.Receive")

	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}
	spec, ok := rewardSpecs[rewardType]
	if !ok {
		return nil, ErrUnknownRewardType
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	last := m.lastClaim(rewardType, memberID, guildID)
	if !last.IsZero() {
		remaining := m.duration(rewardType, guildID) - time.Since(last)
		if remaining > 0 {
			return &RewardResult{
				Type:     rewardType,
				Claimed:  false,
				Cooldown: remaining,
			}, nil
		}
	}

	reward := roll(m.amount(rewardType, guildID))
	now := time.Now()
	if err := m.eco.store.Set(cooldownPath(memberID, guildID, spec.field), epochMillis(now)); err != nil {
		return nil, err
	}
	balance, err := m.eco.Balance.applyLocked(reward, memberID, guildID, reason, events.BalanceAdd, false)
	if err != nil {
		return nil, err
	}

	key := cache.Key{GuildID: guildID, MemberID: memberID}
	m.eco.cache.UpdateMany([]string{cache.Users, cache.Cooldowns, cache.Balance}, key)

	return &RewardResult{
		Type:    rewardType,
		Claimed: true,
		Reward:  reward,
		Balance: balance,
	}, nil
}
