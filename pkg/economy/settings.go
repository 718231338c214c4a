package economy

import (
	"time"

	"github.com/rbrabson/economy/pkg/cache"
	log "github.com/sirupsen/logrus"
)

// settingsType is the primitive shape a settings key accepts.
type settingsType int

const (
	numberSetting settingsType = iota
	numberOrRangeSetting
	booleanSetting
)

// settingsKeys is the whitelist of per-guild override keys. Anything else
// is rejected before it reaches the store.
var settingsKeys = map[string]settingsType{
	"dailyAmount":     numberOrRangeSetting,
	"dailyCooldown":   numberSetting,
	"workAmount":      numberOrRangeSetting,
	"workCooldown":    numberSetting,
	"weeklyAmount":    numberOrRangeSetting,
	"weeklyCooldown":  numberSetting,
	"monthlyAmount":   numberOrRangeSetting,
	"monthlyCooldown": numberSetting,
	"hourlyAmount":    numberOrRangeSetting,
	"hourlyCooldown":  numberSetting,

	"sellingItemPercent":   numberSetting,
	"subtractOnBuy":        booleanSetting,
	"savePurchasesHistory": booleanSetting,
}

// SettingsManager maintains the sparse per-guild override map. Absent keys
// fall back to the global configuration.
type SettingsManager struct {
	eco *Economy
}

func newSettingsManager(eco *Economy) *SettingsManager {
	return &SettingsManager{eco: eco}
}

// checkValueType enforces the declared primitive type for the key.
func checkValueType(key string, value any) error {
	kind, ok := settingsKeys[key]
	if !ok {
		return ErrSettingsKeyInvalid
	}
	switch kind {
	case numberSetting:
		if _, ok := asInt(value); !ok {
			return ErrSettingsValueType
		}
	case numberOrRangeSetting:
		if _, ok := asInt(value); ok {
			return nil
		}
		if _, ok := asRange(value); !ok {
			return ErrSettingsValueType
		}
	case booleanSetting:
		if _, ok := value.(bool); !ok {
			return ErrSettingsValueType
		}
	}
	return nil
}

// asRange coerces a stored value into a reward amount list (one or two
// numeric elements).
func asRange(value any) (RewardAmount, bool) {
	switch v := value.(type) {
	case RewardAmount:
		return v, len(v) == 1 || len(v) == 2
	case []int:
		return RewardAmount(v), len(v) == 1 || len(v) == 2
	case []any:
		if len(v) != 1 && len(v) != 2 {
			return nil, false
		}
		amounts := make(RewardAmount, len(v))
		for i, elem := range v {
			n, ok := asInt(elem)
			if !ok {
				return nil, false
			}
			amounts[i] = n
		}
		return amounts, true
	default:
		return nil, false
	}
}

// Get returns the override value for the key, or nil when the guild has no
// override.
func (s *SettingsManager) Get(key string, guildID string) (any, error) {
	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	if _, ok := settingsKeys[key]; !ok {
		return nil, ErrSettingsKeyInvalid
	}
	overrides, _ := s.eco.store.Fetch(settingsPath(guildID)).(map[string]any)
	return overrides[key], nil
}

// Set writes an override value for the key.
func (s *SettingsManager) Set(key string, value any, guildID string) error {
	log.Trace("--> SettingsManager.Set")
	defer log.Trace("<-- SettingsManager.Set")

	if guildID == "" {
		return ErrInvalidGuildID
	}
	if err := checkValueType(key, value); err != nil {
		return err
	}

	unlock := s.eco.locks.lock(guildID, "")
	defer unlock()

	if err := s.eco.store.Set(path(settingsPath(guildID), key), value); err != nil {
		return err
	}
	s.invalidate(guildID)
	return nil
}

// Delete removes an override so the key falls back to the global
// configuration.
func (s *SettingsManager) Delete(key string, guildID string) error {
	if guildID == "" {
		return ErrInvalidGuildID
	}
	if _, ok := settingsKeys[key]; !ok {
		return ErrSettingsKeyInvalid
	}

	unlock := s.eco.locks.lock(guildID, "")
	defer unlock()

	if err := s.eco.store.Remove(path(settingsPath(guildID), key)); err != nil {
		return err
	}
	s.invalidate(guildID)
	return nil
}

// Reset replaces the whole settings sub-document with the global
// configuration values.
func (s *SettingsManager) Reset(guildID string) error {
	log.Trace("--> SettingsManager.Reset")
	defer log.Trace("<-- SettingsManager.Reset")

	if guildID == "" {
		return ErrInvalidGuildID
	}

	unlock := s.eco.locks.lock(guildID, "")
	defer unlock()

	cfg := s.eco.config
	defaults := map[string]any{
		"dailyAmount":     []int(cfg.DailyAmount),
		"dailyCooldown":   cfg.DailyCooldown.Milliseconds(),
		"workAmount":      []int(cfg.WorkAmount),
		"workCooldown":    cfg.WorkCooldown.Milliseconds(),
		"weeklyAmount":    []int(cfg.WeeklyAmount),
		"weeklyCooldown":  cfg.WeeklyCooldown.Milliseconds(),
		"monthlyAmount":   []int(cfg.MonthlyAmount),
		"monthlyCooldown": cfg.MonthlyCooldown.Milliseconds(),
		"hourlyAmount":    []int(cfg.HourlyAmount),
		"hourlyCooldown":  cfg.HourlyCooldown.Milliseconds(),

		"sellingItemPercent":   cfg.SellingItemPercent,
		"subtractOnBuy":        cfg.SubtractOnBuy,
		"savePurchasesHistory": cfg.SavePurchasesHistory,
	}
	if err := s.eco.store.Set(settingsPath(guildID), defaults); err != nil {
		return err
	}
	s.invalidate(guildID)
	return nil
}

// All returns the merged view: every whitelisted key with its override
// value where one exists and the global configuration value otherwise.
func (s *SettingsManager) All(guildID string) (map[string]any, error) {
	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	overrides, _ := s.eco.store.Fetch(settingsPath(guildID)).(map[string]any)
	merged := make(map[string]any, len(settingsKeys))
	for key := range settingsKeys {
		if value, ok := overrides[key]; ok {
			merged[key] = value
			continue
		}
		merged[key] = s.configValue(key)
	}
	return merged, nil
}

// configValue returns the global configuration value for the key.
func (s *SettingsManager) configValue(key string) any {
	cfg := s.eco.config
	switch key {
	case "dailyAmount":
		return []int(cfg.DailyAmount)
	case "dailyCooldown":
		return cfg.DailyCooldown.Milliseconds()
	case "workAmount":
		return []int(cfg.WorkAmount)
	case "workCooldown":
		return cfg.WorkCooldown.Milliseconds()
	case "weeklyAmount":
		return []int(cfg.WeeklyAmount)
	case "weeklyCooldown":
		return cfg.WeeklyCooldown.Milliseconds()
	case "monthlyAmount":
		return []int(cfg.MonthlyAmount)
	case "monthlyCooldown":
		return cfg.MonthlyCooldown.Milliseconds()
	case "hourlyAmount":
		return []int(cfg.HourlyAmount)
	case "hourlyCooldown":
		return cfg.HourlyCooldown.Milliseconds()
	case "sellingItemPercent":
		return cfg.SellingItemPercent
	case "subtractOnBuy":
		return cfg.SubtractOnBuy
	case "savePurchasesHistory":
		return cfg.SavePurchasesHistory
	default:
		return nil
	}
}

// boolValue resolves a boolean setting: guild override first, then the
// global configuration.
func (s *SettingsManager) boolValue(key string, guildID string, fallback bool) bool {
	value, err := s.Get(key, guildID)
	if err != nil || value == nil {
		return fallback
	}
	b, ok := value.(bool)
	if !ok {
		return fallback
	}
	return b
}

// intValue resolves a numeric setting: guild override first, then the
// global configuration.
func (s *SettingsManager) intValue(key string, guildID string, fallback int) int {
	value, err := s.Get(key, guildID)
	if err != nil || value == nil {
		return fallback
	}
	n, ok := asInt(value)
	if !ok {
		return fallback
	}
	return n
}

// amountValue resolves a number-or-range setting.
func (s *SettingsManager) amountValue(key string, guildID string, fallback RewardAmount) RewardAmount {
	value, err := s.Get(key, guildID)
	if err != nil || value == nil {
		return fallback
	}
	if n, ok := asInt(value); ok {
		return RewardAmount{n}
	}
	if amounts, ok := asRange(value); ok {
		return amounts
	}
	return fallback
}

// durationValue resolves a cooldown setting stored as epoch milliseconds.
func (s *SettingsManager) durationValue(key string, guildID string, fallback time.Duration) time.Duration {
	value, err := s.Get(key, guildID)
	if err != nil || value == nil {
		return fallback
	}
	ms, ok := asInt64(value)
	if !ok {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// invalidate refreshes the guild partition that denormalizes settings.
func (s *SettingsManager) invalidate(guildID string) {
	s.eco.cache.Partition(cache.Guilds).Update(cache.Key{GuildID: guildID})
}
