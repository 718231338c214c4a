package economy

import (
	"sort"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/collection"
	log "github.com/sirupsen/logrus"
)

// EconomyUser is a hydrated view of one member's economy record.
type EconomyUser struct {
	MemberID string `json:"memberID"`
	GuildID  string `json:"guildID"`
	Exists   bool   `json:"exists"`
	Money    int    `json:"money"`
	Bank     int    `json:"bank"`

	eco *Economy
}

// Inventory returns the query facade over this member's inventory.
func (u *EconomyUser) Inventory() *collection.Manager[*InventoryItem] {
	return u.eco.Inventory.Collection(u.MemberID, u.GuildID)
}

// History returns the query facade over this member's purchase history.
func (u *EconomyUser) History() *collection.Manager[*HistoryItem] {
	return u.eco.History.Collection(u.MemberID, u.GuildID)
}

// Reset replaces this member's record with the default schema.
func (u *EconomyUser) Reset() error {
	return u.eco.Users.Reset(u.MemberID, u.GuildID)
}

// Delete removes this member's whole sub-tree.
func (u *EconomyUser) Delete() error {
	return u.eco.Users.Delete(u.MemberID, u.GuildID)
}

// UserManager owns the per-member sub-documents of a guild.
type UserManager struct {
	eco *Economy
}

func newUserManager(eco *Economy) *UserManager {
	return &UserManager{eco: eco}
}

// defaultUserSchema is the record written by Create and Reset.
func defaultUserSchema() map[string]any {
	return map[string]any{
		"money":     0,
		"bank":      0,
		"inventory": []any{},
		"history":   []any{},
	}
}

// hydrate builds the user view from the raw member sub-document.
func (m *UserManager) hydrate(memberID string, guildID string, sub map[string]any, exists bool) *EconomyUser {
	money, _ := asInt(sub["money"])
	bank, _ := asInt(sub["bank"])
	return &EconomyUser{
		MemberID: memberID,
		GuildID:  guildID,
		Exists:   exists,
		Money:    money,
		Bank:     bank,
		eco:      m.eco,
	}
}

// Get returns the member's record; Exists is false when the member has no
// record yet.
func (m *UserManager) Get(memberID string, guildID string) (*EconomyUser, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}
	sub, ok := m.eco.store.Fetch(memberPath(memberID, guildID)).(map[string]any)
	if !ok {
		return m.hydrate(memberID, guildID, map[string]any{}, false), nil
	}
	return m.hydrate(memberID, guildID, sub, true), nil
}

// Create writes the default schema for the member unless a record already
// exists, and returns the record either way.
func (m *UserManager) Create(memberID string, guildID string) (*EconomyUser, error) {
	log.Trace("--> UserManager.Create")
	defer log.Trace("<-- UserManager.Create")

	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	if sub, ok := m.eco.store.Fetch(memberPath(memberID, guildID)).(map[string]any); ok {
		return m.hydrate(memberID, guildID, sub, true), nil
	}
	schema := defaultUserSchema()
	if err := m.eco.store.Set(memberPath(memberID, guildID), schema); err != nil {
		return nil, err
	}
	m.invalidate(memberID, guildID)
	return m.hydrate(memberID, guildID, schema, true), nil
}

// Reset replaces the member's record with the default schema.
func (m *UserManager) Reset(memberID string, guildID string) error {
	log.Trace("--> UserManager.Reset")
	defer log.Trace("<-- UserManager.Reset")

	if err := validateIDs(memberID, guildID); err != nil {
		return err
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	if err := m.eco.store.Set(memberPath(memberID, guildID), defaultUserSchema()); err != nil {
		return err
	}
	m.invalidate(memberID, guildID)
	return nil
}

// Delete removes the member's whole sub-tree.
func (m *UserManager) Delete(memberID string, guildID string) error {
	log.Trace("--> UserManager.Delete")
	defer log.Trace("<-- UserManager.Delete")

	if err := validateIDs(memberID, guildID); err != nil {
		return err
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	if err := m.eco.store.Remove(memberPath(memberID, guildID)); err != nil {
		return err
	}
	m.invalidate(memberID, guildID)
	return nil
}

// All returns every member with a record in the guild, ordered by member
// ID for stable iteration.
func (m *UserManager) All(guildID string) ([]*EconomyUser, error) {
	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	guild, _ := m.eco.store.Fetch(guildID).(map[string]any)
	users := make([]*EconomyUser, 0, len(guild))
	for memberID, sub := range guild {
		if guildLevelKeys[memberID] {
			continue
		}
		record, ok := sub.(map[string]any)
		if !ok {
			continue
		}
		users = append(users, m.hydrate(memberID, guildID, record, true))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].MemberID < users[j].MemberID
	})
	return users, nil
}

// Collection returns the array-like query facade over the guild's members.
func (m *UserManager) Collection(guildID string) *collection.Manager[*EconomyUser] {
	return collection.New(
		func() ([]*EconomyUser, error) { return m.All(guildID) },
		func() *EconomyUser {
			return &EconomyUser{GuildID: guildID, Exists: false, eco: m.eco}
		},
	)
}

// invalidate refreshes every partition that denormalizes the member.
func (m *UserManager) invalidate(memberID string, guildID string) {
	key := cache.Key{GuildID: guildID, MemberID: memberID}
	m.eco.cache.UpdateMany([]string{cache.Users, cache.Balance, cache.Bank, cache.Inventory, cache.History, cache.Cooldowns}, key)
}
