package economy

import (
	"time"
)

// RewardAmount is either a fixed amount (one element) or an inclusive-ish
// range (two elements) rolled on every claim.
type RewardAmount []int

// Config carries the global economy settings. Per-guild overrides managed by
// the SettingsManager take precedence over these values.
type Config struct {
	SubtractOnBuy        bool `json:"subtractOnBuy"`
	SellingItemPercent   int  `json:"sellingItemPercent"`
	SavePurchasesHistory bool `json:"savePurchasesHistory"`

	DailyAmount   RewardAmount  `json:"dailyAmount"`
	DailyCooldown time.Duration `json:"dailyCooldown"`

	WorkAmount   RewardAmount  `json:"workAmount"`
	WorkCooldown time.Duration `json:"workCooldown"`

	WeeklyAmount   RewardAmount  `json:"weeklyAmount"`
	WeeklyCooldown time.Duration `json:"weeklyCooldown"`

	MonthlyAmount   RewardAmount  `json:"monthlyAmount"`
	MonthlyCooldown time.Duration `json:"monthlyCooldown"`

	HourlyAmount   RewardAmount  `json:"hourlyAmount"`
	HourlyCooldown time.Duration `json:"hourlyCooldown"`
}

// DefaultConfig returns the stock economy settings.
func DefaultConfig() *Config {
	return &Config{
		SubtractOnBuy:        true,
		SellingItemPercent:   75,
		SavePurchasesHistory: true,

		DailyAmount:   RewardAmount{100},
		DailyCooldown: 24 * time.Hour,

		WorkAmount:   RewardAmount{10, 50},
		WorkCooldown: time.Hour,

		WeeklyAmount:   RewardAmount{1000},
		WeeklyCooldown: 7 * 24 * time.Hour,

		MonthlyAmount:   RewardAmount{10000},
		MonthlyCooldown: 30 * 24 * time.Hour,

		HourlyAmount:   RewardAmount{20},
		HourlyCooldown: time.Hour,
	}
}
