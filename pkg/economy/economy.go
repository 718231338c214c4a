// Package economy implements the persistence and domain layer for a
// per-guild virtual economy: balances, bank accounts, custom currencies, a
// shop, member inventories, purchase history, and cooldown-gated rewards.
// All state lives in a dotted-path document store; a cache layer keyed by
// guild and member is refreshed after every mutation.
package economy

import (
	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/document"
	"github.com/rbrabson/economy/pkg/events"
	"github.com/rbrabson/economy/pkg/role"
)

// Economy is the top-level facade. It owns the document store, the cache
// partitions, the event emitter and the configuration, and hands shared
// references down to the managers so no manager constructs its siblings.
type Economy struct {
	store   document.Store
	cache   *cache.Manager
	events  *events.Emitter
	config  *Config
	granter role.Granter
	locks   *memberLocks

	Balance    *BalanceManager
	Bank       *BalanceManager
	Currencies *CurrencyManager
	Shop       *ShopManager
	Inventory  *InventoryManager
	History    *HistoryManager
	Rewards    *RewardManager
	Settings   *SettingsManager
	Users      *UserManager
	Guilds     *GuildManager
}

// Option configures an Economy at construction time.
type Option func(*Economy)

// WithConfig overrides the default configuration.
func WithConfig(config *Config) Option {
	return func(e *Economy) {
		if config != nil {
			e.config = config
		}
	}
}

// WithRoleGranter wires the external role-granting capability used when a
// bought item carries a role.
func WithRoleGranter(granter role.Granter) Option {
	return func(e *Economy) {
		e.granter = granter
	}
}

// New creates an Economy over the given document store.
func New(store document.Store, opts ...Option) *Economy {
	e := &Economy{
		store:  store,
		cache:  cache.NewManager(),
		events: events.NewEmitter(),
		config: DefaultConfig(),
		locks:  newMemberLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.Settings = newSettingsManager(e)
	e.Balance = newBalanceManager(e, balanceKind)
	e.Bank = newBalanceManager(e, bankKind)
	e.Currencies = newCurrencyManager(e)
	e.Shop = newShopManager(e)
	e.Inventory = newInventoryManager(e)
	e.History = newHistoryManager(e)
	e.Rewards = newRewardManager(e)
	e.Users = newUserManager(e)
	e.Guilds = newGuildManager(e)

	e.registerFetchers()
	return e
}

// registerFetchers binds each cache partition to the manager that owns its
// slice of the document tree.
func (e *Economy) registerFetchers() {
	e.cache.Register(cache.Balance, func(k cache.Key) (any, error) {
		return e.Balance.Fetch(k.MemberID, k.GuildID)
	})
	e.cache.Register(cache.Bank, func(k cache.Key) (any, error) {
		return e.Bank.Fetch(k.MemberID, k.GuildID)
	})
	e.cache.Register(cache.Shop, func(k cache.Key) (any, error) {
		return e.Shop.Fetch(k.GuildID)
	})
	e.cache.Register(cache.Inventory, func(k cache.Key) (any, error) {
		return e.Inventory.Fetch(k.MemberID, k.GuildID)
	})
	e.cache.Register(cache.History, func(k cache.Key) (any, error) {
		return e.History.fetchRecords(k.MemberID, k.GuildID)
	})
	e.cache.Register(cache.Currencies, func(k cache.Key) (any, error) {
		return e.Currencies.Fetch(k.GuildID)
	})
	e.cache.Register(cache.Cooldowns, func(k cache.Key) (any, error) {
		return e.Rewards.Cooldowns(k.MemberID, k.GuildID)
	})
	e.cache.Register(cache.Users, func(k cache.Key) (any, error) {
		return e.store.Fetch(memberPath(k.MemberID, k.GuildID)), nil
	})
	e.cache.Register(cache.Guilds, func(k cache.Key) (any, error) {
		return e.store.Fetch(k.GuildID), nil
	})
}

// Cache exposes the cache partitions for read access and explicit refresh.
func (e *Economy) Cache() *cache.Manager {
	return e.cache
}

// Events exposes the emitter so callers can subscribe to domain events.
func (e *Economy) Events() *events.Emitter {
	return e.events
}

// Config returns the global configuration.
func (e *Economy) Config() *Config {
	return e.config
}

// Store exposes the underlying document store.
func (e *Economy) Store() document.Store {
	return e.store
}

// validateIDs checks the identifiers shared by almost every operation.
func validateIDs(memberID string, guildID string) error {
	if guildID == "" {
		return ErrInvalidGuildID
	}
	if memberID == "" {
		return ErrInvalidMemberID
	}
	return nil
}
