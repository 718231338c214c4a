package economy

import (
	"time"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/collection"
	"github.com/rbrabson/economy/pkg/document"
	log "github.com/sirupsen/logrus"
)

// HistoryRecord is an append-only snapshot of one purchase. IDs are
// sequential per member.
type HistoryRecord struct {
	ID         int            `json:"id" bson:"id"`
	MemberID   string         `json:"memberID" bson:"memberID"`
	GuildID    string         `json:"guildID" bson:"guildID"`
	Name       string         `json:"name" bson:"name"`
	Price      int            `json:"price" bson:"price"`
	Quantity   int            `json:"quantity" bson:"quantity"`
	TotalPrice int            `json:"totalPrice" bson:"totalPrice"`
	Role       string         `json:"role" bson:"role"`
	MaxAmount  *int           `json:"maxAmount" bson:"maxAmount"`
	Date       string         `json:"date" bson:"date"`
	Custom     map[string]any `json:"custom" bson:"custom"`
}

// HistoryItem is a hydrated view of one history record.
type HistoryItem struct {
	HistoryRecord
	Exists bool `json:"exists"`

	eco *Economy
}

// Remove deletes this entry from the member's history.
func (h *HistoryItem) Remove() (bool, error) {
	return h.eco.History.RemoveItem(h.ID, h.MemberID, h.GuildID)
}

// HistoryManager owns the append-only per-member purchase log.
type HistoryManager struct {
	eco *Economy
}

func newHistoryManager(eco *Economy) *HistoryManager {
	return &HistoryManager{eco: eco}
}

// enabled reports whether history saving applies for the guild.
func (m *HistoryManager) enabled(guildID string) bool {
	return m.eco.Settings.boolValue("savePurchasesHistory", guildID, m.eco.config.SavePurchasesHistory)
}

// fetchRecords reads the raw history without the enabled gate; the cache
// fetcher uses it so invalidation works even while the feature is toggled.
func (m *HistoryManager) fetchRecords(memberID string, guildID string) ([]HistoryRecord, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}
	var records []HistoryRecord
	if err := document.Decode(m.eco.store.Fetch(historyPath(memberID, guildID)), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []HistoryRecord{}
	}
	return records, nil
}

// Fetch returns the member's purchase history. Calling it while history
// saving is disabled is a caller mistake.
func (m *HistoryManager) Fetch(memberID string, guildID string) ([]HistoryRecord, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}
	if !m.enabled(guildID) {
		return nil, ErrHistoryDisabled
	}
	return m.fetchRecords(memberID, guildID)
}

func (m *HistoryManager) hydrate(record HistoryRecord) *HistoryItem {
	return &HistoryItem{
		HistoryRecord: record,
		Exists:        true,
		eco:           m.eco,
	}
}

func (m *HistoryManager) emptyItem(memberID string, guildID string) *HistoryItem {
	return &HistoryItem{
		HistoryRecord: HistoryRecord{MemberID: memberID, GuildID: guildID},
		Exists:        false,
		eco:           m.eco,
	}
}

// All returns every history entry, hydrated.
func (m *HistoryManager) All(memberID string, guildID string) ([]*HistoryItem, error) {
	records, err := m.Fetch(memberID, guildID)
	if err != nil {
		return nil, err
	}
	items := make([]*HistoryItem, len(records))
	for i, record := range records {
		items[i] = m.hydrate(record)
	}
	return items, nil
}

// Collection returns the array-like query facade over the member's history.
func (m *HistoryManager) Collection(memberID string, guildID string) *collection.Manager[*HistoryItem] {
	return collection.New(
		func() ([]*HistoryItem, error) { return m.All(memberID, guildID) },
		func() *HistoryItem { return m.emptyItem(memberID, guildID) },
	)
}

// FindItem returns the entry with the ID, or the empty wrapper.
func (m *HistoryManager) FindItem(entryID int, memberID string, guildID string) (*HistoryItem, error) {
	return m.Collection(memberID, guildID).Find(func(item *HistoryItem) bool {
		return item.ID == entryID
	})
}

// Add appends one aggregated entry for a purchase of the shop item.
func (m *HistoryManager) Add(itemID int, memberID string, guildID string, quantity int) error {
	log.Trace("--> HistoryManager.Add")
	defer log.Trace("<-- HistoryManager.Add")

	if err := validateIDs(memberID, guildID); err != nil {
		return err
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	item, err := m.eco.Shop.FindItem(itemID, guildID)
	if err != nil {
		return err
	}
	if !item.Exists {
		return nil
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	if err := m.addLocked(item.ItemRecord, memberID, guildID, quantity, item.Price*quantity); err != nil {
		return err
	}
	m.invalidate(memberID, guildID)
	return nil
}

// addLocked appends the entry without taking the owner lock; composite
// mutations that already hold it call this directly.
func (m *HistoryManager) addLocked(item ItemRecord, memberID string, guildID string, quantity int, totalPrice int) error {
	records, err := m.fetchRecords(memberID, guildID)
	if err != nil {
		return err
	}
	id := 1
	if len(records) > 0 {
		id = records[len(records)-1].ID + 1
	}
	records = append(records, HistoryRecord{
		ID:         id,
		MemberID:   memberID,
		GuildID:    guildID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		Role:       item.Role,
		MaxAmount:  item.MaxAmount,
		Date:       dateString(time.Now()),
		Custom:     item.Custom,
	})
	return m.eco.store.Set(historyPath(memberID, guildID), records)
}

// RemoveItem deletes the entry with the ID and rewrites the whole array.
func (m *HistoryManager) RemoveItem(entryID int, memberID string, guildID string) (bool, error) {
	log.Trace("--> HistoryManager.RemoveItem")
	defer log.Trace("<-- HistoryManager.RemoveItem")

	if err := validateIDs(memberID, guildID); err != nil {
		return false, err
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	records, err := m.fetchRecords(memberID, guildID)
	if err != nil {
		return false, err
	}
	index := -1
	for i := range records {
		if records[i].ID == entryID {
			index = i
			break
		}
	}
	if index < 0 {
		return false, nil
	}
	records = append(records[:index], records[index+1:]...)
	if err := m.eco.store.Set(historyPath(memberID, guildID), records); err != nil {
		return false, err
	}
	m.invalidate(memberID, guildID)
	return true, nil
}

// Clear removes the member's whole history.
func (m *HistoryManager) Clear(memberID string, guildID string) (bool, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return false, err
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	records, err := m.fetchRecords(memberID, guildID)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	if err := m.eco.store.Set(historyPath(memberID, guildID), []HistoryRecord{}); err != nil {
		return false, err
	}
	m.invalidate(memberID, guildID)
	return true, nil
}

// invalidate refreshes the partitions that denormalize the history.
func (m *HistoryManager) invalidate(memberID string, guildID string) {
	key := cache.Key{GuildID: guildID, MemberID: memberID}
	m.eco.cache.UpdateMany([]string{cache.Users, cache.History}, key)
}
