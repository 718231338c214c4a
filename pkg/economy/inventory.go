package economy

import (
	"encoding/json"
	"math/rand"
	"regexp"
	"time"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/collection"
	"github.com/rbrabson/economy/pkg/document"
	"github.com/rbrabson/economy/pkg/events"
	log "github.com/sirupsen/logrus"
)

// InventoryRecord is a denormalized copy of a shop item held by a member.
// Quantity is implicit: owning three of an item means three records with
// the same item ID.
type InventoryRecord struct {
	ID          int            `json:"id" bson:"id"`
	Name        string         `json:"name" bson:"name"`
	Price       int            `json:"price" bson:"price"`
	Message     string         `json:"message" bson:"message"`
	Description string         `json:"description" bson:"description"`
	MaxAmount   *int           `json:"maxAmount" bson:"maxAmount"`
	Role        string         `json:"role" bson:"role"`
	Date        string         `json:"date" bson:"date"`
	Custom      map[string]any `json:"custom" bson:"custom"`
}

// inventoryRecordFromItem snapshots a shop item into an inventory record
// with the acquisition date.
func inventoryRecordFromItem(item ItemRecord, date string) InventoryRecord {
	return InventoryRecord{
		ID:          item.ID,
		Name:        item.Name,
		Price:       item.Price,
		Message:     item.Message,
		Description: item.Description,
		MaxAmount:   item.MaxAmount,
		Role:        item.Role,
		Date:        date,
		Custom:      item.Custom,
	}
}

// InventoryItem is a hydrated view of one inventory record.
type InventoryItem struct {
	InventoryRecord
	Exists   bool   `json:"exists"`
	GuildID  string `json:"guildID"`
	MemberID string `json:"memberID"`

	eco *Economy
}

// Quantity returns how many units of this item the member currently owns.
func (i *InventoryItem) Quantity() (int, error) {
	records, err := i.eco.Inventory.Fetch(i.MemberID, i.GuildID)
	if err != nil {
		return 0, err
	}
	owned := 0
	for _, record := range records {
		if record.ID == i.ID {
			owned++
		}
	}
	return owned, nil
}

// Sell sells quantity units of this item back to the shop.
func (i *InventoryItem) Sell(quantity int, reason string) (*TransactionResult, error) {
	return i.eco.Inventory.SellItem(i.ID, i.MemberID, i.GuildID, quantity, reason)
}

// Use consumes one unit of this item and resolves its usage message.
func (i *InventoryItem) Use() (string, error) {
	return i.eco.Inventory.UseItem(i.ID, i.MemberID, i.GuildID)
}

// StackedItem groups the records sharing one item identity.
type StackedItem struct {
	Item       InventoryRecord `json:"item"`
	Quantity   int             `json:"quantity"`
	TotalPrice int             `json:"totalPrice"`
}

// InventoryManager owns the per-member inventory array.
type InventoryManager struct {
	eco *Economy
}

func newInventoryManager(eco *Economy) *InventoryManager {
	return &InventoryManager{eco: eco}
}

// Fetch returns the raw inventory records, or an empty array when the
// member has none.
func (m *InventoryManager) Fetch(memberID string, guildID string) ([]InventoryRecord, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}
	var records []InventoryRecord
	if err := document.Decode(m.eco.store.Fetch(inventoryPath(memberID, guildID)), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []InventoryRecord{}
	}
	return records, nil
}

func (m *InventoryManager) hydrate(memberID string, guildID string, record InventoryRecord) *InventoryItem {
	return &InventoryItem{
		InventoryRecord: record,
		Exists:          true,
		GuildID:         guildID,
		MemberID:        memberID,
		eco:             m.eco,
	}
}

func (m *InventoryManager) emptyItem(memberID string, guildID string) *InventoryItem {
	return &InventoryItem{
		InventoryRecord: InventoryRecord{
			Description: defaultItemDescription,
			Message:     defaultItemMessage,
		},
		Exists:   false,
		GuildID:  guildID,
		MemberID: memberID,
		eco:      m.eco,
	}
}

// All returns every inventory record, hydrated.
func (m *InventoryManager) All(memberID string, guildID string) ([]*InventoryItem, error) {
	records, err := m.Fetch(memberID, guildID)
	if err != nil {
		return nil, err
	}
	items := make([]*InventoryItem, len(records))
	for i, record := range records {
		items[i] = m.hydrate(memberID, guildID, record)
	}
	return items, nil
}

// Collection returns the array-like query facade over the member's
// inventory.
func (m *InventoryManager) Collection(memberID string, guildID string) *collection.Manager[*InventoryItem] {
	return collection.New(
		func() ([]*InventoryItem, error) { return m.All(memberID, guildID) },
		func() *InventoryItem { return m.emptyItem(memberID, guildID) },
	)
}

// FindItem returns the first record with the item ID, or the empty wrapper.
func (m *InventoryManager) FindItem(itemID int, memberID string, guildID string) (*InventoryItem, error) {
	return m.Collection(memberID, guildID).Find(func(item *InventoryItem) bool {
		return item.ID == itemID
	})
}

// SearchItem resolves an inventory item by numeric ID or exact name.
func (m *InventoryManager) SearchItem(query string, memberID string, guildID string) (*InventoryItem, error) {
	return m.Collection(memberID, guildID).Find(func(item *InventoryItem) bool {
		return item.Name == query || itoa(item.ID) == query
	})
}

// Stacked groups the raw records by item identity and computes per-item
// quantity and total price.
func (m *InventoryManager) Stacked(memberID string, guildID string) ([]StackedItem, error) {
	records, err := m.Fetch(memberID, guildID)
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, len(records))
	stacks := make(map[int]*StackedItem, len(records))
	for _, record := range records {
		stack, ok := stacks[record.ID]
		if !ok {
			order = append(order, record.ID)
			stack = &StackedItem{Item: record}
			stacks[record.ID] = stack
		}
		stack.Quantity++
		stack.TotalPrice += record.Price
	}
	stacked := make([]StackedItem, 0, len(order))
	for _, id := range order {
		stacked = append(stacked, *stacks[id])
	}
	return stacked, nil
}

// AddItem appends quantity copies of the shop item to the member's
// inventory without charging for them.
func (m *InventoryManager) AddItem(itemID int, memberID string, guildID string, quantity int) error {
	log.Trace("--> InventoryManager.AddItem")
	defer log.Trace("<-- InventoryManager.AddItem")

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

	records, err := m.Fetch(memberID, guildID)
	if err != nil {
		return err
	}
	now := dateString(time.Now())
	for i := 0; i < quantity; i++ {
		records = append(records, inventoryRecordFromItem(item.ItemRecord, now))
	}
	if err := m.eco.store.Set(inventoryPath(memberID, guildID), records); err != nil {
		return err
	}
	m.invalidate(memberID, guildID)
	return nil
}

// SellItem sells quantity units back to the shop for a configured
// percentage of the purchase price. Asking for more units than owned is a
// refusal, not an error.
func (m *InventoryManager) SellItem(itemID int, memberID string, guildID string, quantity int, reason string) (*TransactionResult, error) {
	log.Trace("--> InventoryManager.SellItem")
	defer log.Trace("<-- InventoryManager.SellItem")

	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	records, err := m.Fetch(memberID, guildID)
	if err != nil {
		return nil, err
	}
	var raw *InventoryRecord
	owned := 0
	for i := range records {
		if records[i].ID == itemID {
			if raw == nil {
				raw = &records[i]
			}
			owned++
		}
	}
	if raw == nil {
		return &TransactionResult{Status: false, Message: "item not found"}, nil
	}
	if quantity > owned {
		return &TransactionResult{
			Status:   false,
			Message:  "not enough items to sell",
			Quantity: quantity,
		}, nil
	}

	percent := m.eco.Settings.intValue("sellingItemPercent", guildID, m.eco.config.SellingItemPercent)
	sellingPrice := raw.Price * percent / 100 * quantity

	if _, err := m.eco.Balance.applyLocked(sellingPrice, memberID, guildID, reason, events.BalanceAdd, false); err != nil {
		return nil, err
	}

	// The inventory is rebuilt, not spliced: every record of another item,
	// then the surviving copies of this one.
	remaining := make([]InventoryRecord, 0, len(records))
	for _, record := range records {
		if record.ID != itemID {
			remaining = append(remaining, record)
		}
	}
	for i := 0; i < owned-quantity; i++ {
		remaining = append(remaining, *raw)
	}
	if err := m.eco.store.Set(inventoryPath(memberID, guildID), remaining); err != nil {
		return nil, err
	}
	m.invalidate(memberID, guildID)

	return &TransactionResult{
		Status:     true,
		Message:    "OK",
		Quantity:   quantity,
		TotalPrice: sellingPrice,
	}, nil
}

// randomTemplate matches the embedded random-choice syntax in usage
// messages: [random=["a","b"]].
var randomTemplate = regexp.MustCompile(`\[random=(\[.*?\])\]`)

// resolveUsageMessage substitutes one uniformly random choice into the
// message. A malformed choice list leaves the message untouched.
func resolveUsageMessage(message string) string {
	match := randomTemplate.FindStringSubmatchIndex(message)
	if match == nil {
		return message
	}
	var choices []string
	if err := json.Unmarshal([]byte(message[match[2]:match[3]]), &choices); err != nil || len(choices) == 0 {
		return message
	}
	choice := choices[rand.Intn(len(choices))]
	return message[:match[0]] + choice + message[match[1]:]
}

// UseItem consumes one unit of the item: the attached role (if any) is
// granted through the external capability, the unit is removed, and the
// resolved usage message is returned. A missing item yields an empty
// message.
func (m *InventoryManager) UseItem(itemID int, memberID string, guildID string) (string, error) {
	log.Trace("--> InventoryManager.UseItem")
	defer log.Trace("<-- InventoryManager.UseItem")

	if err := validateIDs(memberID, guildID); err != nil {
		return "", err
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	records, err := m.Fetch(memberID, guildID)
	if err != nil {
		return "", err
	}
	index := -1
	for i := range records {
		if records[i].ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		return "", nil
	}
	record := records[index]

	// Role grants are fire-and-forget: a platform refusal never blocks the
	// item use.
	if record.Role != "" && m.eco.granter != nil {
		if err := m.eco.granter.GrantRole(guildID, memberID, record.Role); err != nil {
			log.Errorf("Unable to grant role %s for item %d in guild %s, error=%s", record.Role, record.ID, guildID, err.Error())
		}
	}

	records = append(records[:index], records[index+1:]...)
	if err := m.eco.store.Set(inventoryPath(memberID, guildID), records); err != nil {
		return "", err
	}
	m.invalidate(memberID, guildID)

	message := resolveUsageMessage(record.Message)
	m.eco.events.Emit(events.ShopItemUse, TransactionEvent{
		GuildID:    guildID,
		MemberID:   memberID,
		Item:       ItemRecord(record),
		Quantity:   1,
		TotalPrice: record.Price,
	})
	return message, nil
}

// Clear removes the member's whole inventory.
func (m *InventoryManager) Clear(memberID string, guildID string) (bool, error) {
	log.Trace("--> InventoryManager.Clear")
	defer log.Trace("<-- InventoryManager.Clear")

	if err := validateIDs(memberID, guildID); err != nil {
		return false, err
	}

	unlock := m.eco.locks.lock(guildID, memberID)
	defer unlock()

	records, err := m.Fetch(memberID, guildID)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	if err := m.eco.store.Set(inventoryPath(memberID, guildID), []InventoryRecord{}); err != nil {
		return false, err
	}
	m.invalidate(memberID, guildID)
	return true, nil
}

// invalidate refreshes the partitions that denormalize the inventory.
func (m *InventoryManager) invalidate(memberID string, guildID string) {
	key := cache.Key{GuildID: guildID, MemberID: memberID}
	m.eco.cache.UpdateMany([]string{cache.Users, cache.Inventory, cache.Balance}, key)
}
