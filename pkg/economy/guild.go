package economy

import (
	"sort"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/collection"
	log "github.com/sirupsen/logrus"
)

// EconomyGuild is a hydrated view of one guild's economy record.
type EconomyGuild struct {
	GuildID string `json:"guildID"`
	Exists  bool   `json:"exists"`

	eco *Economy
}

// Shop returns the query facade over this guild's shop.
func (g *EconomyGuild) Shop() *collection.Manager[*ShopItem] {
	return g.eco.Shop.Collection(g.GuildID)
}

// Currencies returns the query facade over this guild's currencies.
func (g *EconomyGuild) Currencies() *collection.Manager[*Currency] {
	return g.eco.Currencies.Collection(g.GuildID)
}

// Users returns the query facade over this guild's members.
func (g *EconomyGuild) Users() *collection.Manager[*EconomyUser] {
	return g.eco.Users.Collection(g.GuildID)
}

// Settings returns the merged settings view for this guild.
func (g *EconomyGuild) Settings() (map[string]any, error) {
	return g.eco.Settings.All(g.GuildID)
}

// Reset replaces this guild's record with the default schema.
func (g *EconomyGuild) Reset() error {
	return g.eco.Guilds.Reset(g.GuildID)
}

// Delete removes this guild's whole sub-tree.
func (g *EconomyGuild) Delete() error {
	return g.eco.Guilds.Delete(g.GuildID)
}

// GuildManager owns the top-level guild documents.
type GuildManager struct {
	eco *Economy
}

func newGuildManager(eco *Economy) *GuildManager {
	return &GuildManager{eco: eco}
}

// defaultGuildSchema is the record written by Create and Reset.
func defaultGuildSchema() map[string]any {
	return map[string]any{
		"shop":       []any{},
		"currencies": []any{},
		"settings":   map[string]any{},
	}
}

// Get returns the guild record; Exists is false when the guild has no
// record yet.
func (m *GuildManager) Get(guildID string) (*EconomyGuild, error) {
	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	_, ok := m.eco.store.Fetch(guildID).(map[string]any)
	return &EconomyGuild{GuildID: guildID, Exists: ok, eco: m.eco}, nil
}

// Create writes the default schema for the guild unless a record already
// exists.
func (m *GuildManager) Create(guildID string) (*EconomyGuild, error) {
	log.Trace("--> GuildManager.Create")
	defer log.Trace("<-- GuildManager.Create")

	if guildID == "" {
		return nil, ErrInvalidGuildID
	}

	unlock := m.eco.locks.lock(guildID, "")
	defer unlock()

	if _, ok := m.eco.store.Fetch(guildID).(map[string]any); !ok {
		if err := m.eco.store.Set(guildID, defaultGuildSchema()); err != nil {
			return nil, err
		}
		m.invalidate(guildID)
	}
	return &EconomyGuild{GuildID: guildID, Exists: true, eco: m.eco}, nil
}

// Reset replaces the guild's record with the default schema, dropping every
// member record with it.
func (m *GuildManager) Reset(guildID string) error {
	log.Trace("--> GuildManager.Reset")
	defer log.Trace("<-- GuildManager.Reset")

	if guildID == "" {
		return ErrInvalidGuildID
	}

	unlock := m.eco.locks.lock(guildID, "")
	defer unlock()

	if err := m.eco.store.Set(guildID, defaultGuildSchema()); err != nil {
		return err
	}
	m.invalidate(guildID)
	return nil
}

// Delete removes the guild's whole sub-tree.
func (m *GuildManager) Delete(guildID string) error {
	log.Trace("--> GuildManager.Delete")
	defer log.Trace("<-- GuildManager.Delete")

	if guildID == "" {
		return ErrInvalidGuildID
	}

	unlock := m.eco.locks.lock(guildID, "")
	defer unlock()

	if err := m.eco.store.Remove(guildID); err != nil {
		return err
	}
	m.invalidate(guildID)
	return nil
}

// All returns every guild with a record, ordered by guild ID.
func (m *GuildManager) All() ([]*EconomyGuild, error) {
	tree := m.eco.store.All()
	guilds := make([]*EconomyGuild, 0, len(tree))
	for guildID, sub := range tree {
		if _, ok := sub.(map[string]any); !ok {
			continue
		}
		guilds = append(guilds, &EconomyGuild{GuildID: guildID, Exists: true, eco: m.eco})
	}
	sort.Slice(guilds, func(i, j int) bool {
		return guilds[i].GuildID < guilds[j].GuildID
	})
	return guilds, nil
}

// Collection returns the array-like query facade over every guild.
func (m *GuildManager) Collection() *collection.Manager[*EconomyGuild] {
	return collection.New(
		func() ([]*EconomyGuild, error) { return m.All() },
		func() *EconomyGuild {
			return &EconomyGuild{Exists: false, eco: m.eco}
		},
	)
}

// invalidate refreshes the partitions that denormalize the guild.
func (m *GuildManager) invalidate(guildID string) {
	key := cache.Key{GuildID: guildID}
	m.eco.cache.UpdateMany([]string{cache.Guilds, cache.Shop, cache.Currencies}, key)
}
