// Package cache holds the per-entity cache partitions that sit in front of
// the document store. Partitions are not a source of truth: every entry is
// refetched from the owning manager after a mutation, keyed by guild and,
// where it applies, member.
package cache

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Partition names used by the economy managers.
const (
	Guilds     = "guilds"
	Users      = "users"
	Balance    = "balance"
	Bank       = "bank"
	Currencies = "currencies"
	Cooldowns  = "cooldowns"
	Shop       = "shop"
	Inventory  = "inventory"
	History    = "history"
)

var (
	ErrInvalidIdentifiers = errors.New("caching identifiers require a guild ID")
	ErrUnknownPartition   = errors.New("unknown cache partition name")
)

// Key identifies one cache entry. MemberID is empty for guild-scoped
// partitions such as the shop.
type Key struct {
	GuildID  string
	MemberID string
}

// String renders the composite key.
func (k Key) String() string {
	if k.MemberID == "" {
		return k.GuildID
	}
	return k.GuildID + ":" + k.MemberID
}

// valid reports whether the key carries the required identifiers.
func (k Key) valid() bool {
	return k.GuildID != ""
}

// FetchFunc loads the authoritative value for a key from the document store.
type FetchFunc func(key Key) (any, error)

// Partition maps composite keys to the last materialized value for one
// entity kind.
type Partition struct {
	name    string
	fetch   FetchFunc
	mu      sync.RWMutex
	entries map[string]any
	updates keyedLocks
}

func newPartition(name string) *Partition {
	return &Partition{
		name:    name,
		entries: make(map[string]any),
	}
}

// Get returns the cached value for the key. The second result distinguishes
// a cache miss from a cached nil; callers must treat a miss as "unknown",
// not "empty".
func (p *Partition) Get(key Key) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	value, ok := p.entries[key.String()]
	return value, ok
}

// Set stores the value for the key directly. Used by managers that already
// hold the post-mutation value.
func (p *Partition) Set(key Key, value any) error {
	if !key.valid() {
		return ErrInvalidIdentifiers
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[key.String()] = value
	return nil
}

// Update refetches the authoritative value for the key and overwrites the
// cache entry. Updates for the same key serialize so a stale refetch cannot
// clobber a fresher one; updates for different keys run independently.
func (p *Partition) Update(key Key) error {
	if !key.valid() {
		return ErrInvalidIdentifiers
	}
	if p.fetch == nil {
		return nil
	}

	unlock := p.updates.lock(key.String())
	defer unlock()

	value, err := p.fetch(key)
	if err != nil {
		log.Errorf("Failed to update the %s cache for %s, error=%s", p.name, key.String(), err.Error())
		return err
	}
	p.mu.Lock()
	p.entries[key.String()] = value
	p.mu.Unlock()
	return nil
}

// Delete removes the entry for the key.
func (p *Partition) Delete(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, key.String())
}

// Clear wipes every entry in the partition.
func (p *Partition) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]any)
}

// Len returns the number of cached entries.
func (p *Partition) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Manager owns the named partitions. It is constructed once per economy
// instance and injected into the managers, so parallel tests get isolated
// caches.
type Manager struct {
	partitions map[string]*Partition
}

// NewManager creates a Manager with the standard partitions.
func NewManager() *Manager {
	m := &Manager{partitions: make(map[string]*Partition)}
	for _, name := range []string{Guilds, Users, Balance, Bank, Currencies, Cooldowns, Shop, Inventory, History} {
		m.partitions[name] = newPartition(name)
	}
	return m
}

// Register binds the fetch function for a partition. Managers call this at
// construction time.
func (m *Manager) Register(name string, fetch FetchFunc) error {
	p, ok := m.partitions[name]
	if !ok {
		return ErrUnknownPartition
	}
	p.fetch = fetch
	return nil
}

// Partition returns the named partition, or nil if the name is unknown.
func (m *Manager) Partition(name string) *Partition {
	return m.partitions[name]
}

// UpdateMany refetches the key across the named partitions. Every mutation
// that denormalizes into several partitions must invalidate all of them
// before returning, or readers can observe a stale join.
func (m *Manager) UpdateMany(names []string, key Key) error {
	for _, name := range names {
		p, ok := m.partitions[name]
		if !ok {
			return ErrUnknownPartition
		}
		if err := p.Update(key); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAll refetches the key across every partition.
func (m *Manager) UpdateAll(key Key) error {
	for _, p := range m.partitions {
		if err := p.Update(key); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll wipes every partition.
func (m *Manager) ClearAll() {
	for _, p := range m.partitions {
		p.Clear()
	}
}
