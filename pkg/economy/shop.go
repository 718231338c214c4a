package economy

import (
	"time"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/collection"
	"github.com/rbrabson/economy/pkg/document"
	"github.com/rbrabson/economy/pkg/events"
	log "github.com/sirupsen/logrus"
)

const (
	defaultItemDescription = "Very mysterious item."
	defaultItemMessage     = "You have used this item!"
)

// ItemRecord is one item for sale in a guild's shop. The ID is unique
// within the guild's shop array only.
type ItemRecord struct {
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

// ShopItem is a hydrated view of one shop item. Exists is false for the
// empty wrapper returned by non-matching lookups.
type ShopItem struct {
	ItemRecord
	Exists  bool   `json:"exists"`
	GuildID string `json:"guildID"`

	eco *Economy
}

// Edit changes one whitelisted property of the item.
func (i *ShopItem) Edit(property string, value any) error {
	return i.eco.Shop.EditItem(i.ID, i.GuildID, property, value)
}

// Remove deletes the item from the shop.
func (i *ShopItem) Remove() (bool, error) {
	return i.eco.Shop.RemoveItem(i.ID, i.GuildID)
}

// Buy purchases the item for the member.
func (i *ShopItem) Buy(memberID string, quantity int, currency string, reason string) (*TransactionResult, error) {
	return i.eco.Shop.Buy(i.ID, memberID, i.GuildID, quantity, currency, reason)
}

// AddItemOptions are the caller-supplied fields of a new shop item.
type AddItemOptions struct {
	Name        string
	Price       int
	Message     string
	Description string
	MaxAmount   *int
	Role        string
	Custom      map[string]any
}

// TransactionResult reports the outcome of a purchase or sale. A Status of
// false is a domain-expected refusal, not an error.
type TransactionResult struct {
	Status     bool      `json:"status"`
	Message    string    `json:"message"`
	Item       *ShopItem `json:"item,omitempty"`
	Quantity   int       `json:"quantity"`
	TotalPrice int       `json:"totalPrice"`
}

// ShopManager owns the per-guild shop array.
type ShopManager struct {
	eco *Economy
}

func newShopManager(eco *Economy) *ShopManager {
	return &ShopManager{eco: eco}
}

// Fetch returns the raw shop records for the guild, or an empty array when
// the guild has no shop yet.
func (s *ShopManager) Fetch(guildID string) ([]ItemRecord, error) {
	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	var records []ItemRecord
	if err := document.Decode(s.eco.store.Fetch(shopPath(guildID)), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []ItemRecord{}
	}
	return records, nil
}

// hydrate wraps a raw record for the guild.
func (s *ShopManager) hydrate(guildID string, record ItemRecord) *ShopItem {
	return &ShopItem{
		ItemRecord: record,
		Exists:     true,
		GuildID:    guildID,
		eco:        s.eco,
	}
}

// emptyItem is the fallback wrapper for non-matching lookups.
func (s *ShopManager) emptyItem(guildID string) *ShopItem {
	return &ShopItem{
		ItemRecord: ItemRecord{
			Description: defaultItemDescription,
			Message:     defaultItemMessage,
		},
		Exists:  false,
		GuildID: guildID,
		eco:     s.eco,
	}
}

// All returns every shop item, hydrated.
func (s *ShopManager) All(guildID string) ([]*ShopItem, error) {
	records, err := s.Fetch(guildID)
	if err != nil {
		return nil, err
	}
	items := make([]*ShopItem, len(records))
	for i, record := range records {
		items[i] = s.hydrate(guildID, record)
	}
	return items, nil
}

// Collection returns the array-like query facade over the guild's shop.
func (s *ShopManager) Collection(guildID string) *collection.Manager[*ShopItem] {
	return collection.New(
		func() ([]*ShopItem, error) { return s.All(guildID) },
		func() *ShopItem { return s.emptyItem(guildID) },
	)
}

// FindItem returns the item with the ID, or the empty wrapper when the
// shop has no such item.
func (s *ShopManager) FindItem(itemID int, guildID string) (*ShopItem, error) {
	return s.Collection(guildID).Find(func(item *ShopItem) bool {
		return item.ID == itemID
	})
}

// SearchItem resolves an item by its numeric ID rendered as a string, or by
// its exact name.
func (s *ShopManager) SearchItem(query string, guildID string) (*ShopItem, error) {
	return s.Collection(guildID).Find(func(item *ShopItem) bool {
		return item.Name == query || itoa(item.ID) == query
	})
}

// AddItem appends a new item to the guild's shop, assigning the next
// sequential ID and applying field defaults.
func (s *ShopManager) AddItem(guildID string, opts AddItemOptions) (*ShopItem, error) {
	log.Trace("--> ShopManager.AddItem")
	defer log.Trace("<-- ShopManager.AddItem")

	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	if opts.Name == "" {
		return nil, ErrInvalidItemName
	}
	if opts.Price <= 0 {
		return nil, ErrInvalidAmount
	}

	unlock := s.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := s.Fetch(guildID)
	if err != nil {
		return nil, err
	}

	record := ItemRecord{
		ID:          nextID(len(records), func(i int) int { return records[i].ID }),
		Name:        opts.Name,
		Price:       opts.Price,
		Message:     opts.Message,
		Description: opts.Description,
		MaxAmount:   opts.MaxAmount,
		Role:        opts.Role,
		Date:        dateString(time.Now()),
		Custom:      opts.Custom,
	}
	if record.Message == "" {
		record.Message = defaultItemMessage
	}
	if record.Description == "" {
		record.Description = defaultItemDescription
	}

	records = append(records, record)
	if err := s.eco.store.Set(shopPath(guildID), records); err != nil {
		return nil, err
	}
	s.invalidate(guildID)
	item := s.hydrate(guildID, record)
	s.eco.events.Emit(events.ShopItemAdd, ShopItemEvent{GuildID: guildID, Item: record})
	return item, nil
}

// editableItemProperties are the fields EditItem accepts.
var editableItemProperties = map[string]bool{
	"name":        true,
	"price":       true,
	"message":     true,
	"description": true,
	"maxAmount":   true,
	"role":        true,
	"custom":      true,
}

// EditItem changes one whitelisted property of an item and rewrites the
// shop array.
func (s *ShopManager) EditItem(itemID int, guildID string, property string, value any) error {
	log.Trace("--> ShopManager.EditItem")
	defer log.Trace("<-- ShopManager.EditItem")

	if guildID == "" {
		return ErrInvalidGuildID
	}
	if !editableItemProperties[property] {
		return ErrInvalidProperty
	}

	unlock := s.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := s.Fetch(guildID)
	if err != nil {
		return err
	}
	index := -1
	for i := range records {
		if records[i].ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	record := &records[index]
	switch property {
	case "name":
		name, ok := value.(string)
		if !ok || name == "" {
			return ErrInvalidItemName
		}
		record.Name = name
	case "price":
		price, ok := asInt(value)
		if !ok || price <= 0 {
			return ErrInvalidAmount
		}
		record.Price = price
	case "message":
		record.Message, _ = value.(string)
	case "description":
		record.Description, _ = value.(string)
	case "maxAmount":
		if value == nil {
			record.MaxAmount = nil
		} else {
			max, ok := asInt(value)
			if !ok {
				return ErrInvalidAmount
			}
			record.MaxAmount = &max
		}
	case "role":
		record.Role, _ = value.(string)
	case "custom":
		record.Custom, _ = value.(map[string]any)
	}

	if err := s.eco.store.Set(shopPath(guildID), records); err != nil {
		return err
	}
	s.invalidate(guildID)
	s.eco.events.Emit(events.ShopItemEdit, ShopItemEvent{
		GuildID:  guildID,
		Item:     records[index],
		Property: property,
		Value:    value,
	})
	return nil
}

// RemoveItem deletes the item from the shop. The result reports whether an
// item was removed.
func (s *ShopManager) RemoveItem(itemID int, guildID string) (bool, error) {
	log.Trace("--> ShopManager.RemoveItem")
	defer log.Trace("<-- ShopManager.RemoveItem")

	if guildID == "" {
		return false, ErrInvalidGuildID
	}

	unlock := s.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := s.Fetch(guildID)
	if err != nil {
		return false, err
	}
	remaining := make([]ItemRecord, 0, len(records))
	var removed *ItemRecord
	for i := range records {
		if records[i].ID == itemID && removed == nil {
			removed = &records[i]
			continue
		}
		remaining = append(remaining, records[i])
	}
	if removed == nil {
		return false, nil
	}
	if err := s.eco.store.Set(shopPath(guildID), remaining); err != nil {
		return false, err
	}
	s.invalidate(guildID)
	s.eco.events.Emit(events.ShopItemRemove, ShopItemEvent{GuildID: guildID, Item: *removed})
	return true, nil
}

// Clear removes every item from the guild's shop.
func (s *ShopManager) Clear(guildID string) (bool, error) {
	log.Trace("--> ShopManager.Clear")
	defer log.Trace("<-- ShopManager.Clear")

	if guildID == "" {
		return false, ErrInvalidGuildID
	}

	unlock := s.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := s.Fetch(guildID)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	if err := s.eco.store.Set(shopPath(guildID), []ItemRecord{}); err != nil {
		return false, err
	}
	s.invalidate(guildID)
	s.eco.events.Emit(events.ShopClear, ShopClearEvent{GuildID: guildID, Cleared: len(records)})
	return true, nil
}

// Buy purchases quantity units of the item for the member. The currency
// names a custom currency to charge; an empty currency charges the default
// balance. Refusals (unknown item, max amount reached) come back as a
// Status of false, not as an error.
func (s *ShopManager) Buy(itemID int, memberID string, guildID string, quantity int, currency string, reason string) (*TransactionResult, error) {
	log.Trace("--> ShopManager.Buy")
	defer log.Trace("<-- ShopManager.Buy")

	if err := validateIDs(memberID, guildID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	unlock := s.eco.locks.lock(guildID, memberID)
	defer unlock()

	item, err := s.FindItem(itemID, guildID)
	if err != nil {
		return nil, err
	}
	if !item.Exists {
		return &TransactionResult{Status: false, Message: "item not found"}, nil
	}

	totalPrice := item.Price * quantity

	records, err := s.eco.Inventory.Fetch(memberID, guildID)
	if err != nil {
		return nil, err
	}
	owned := 0
	for _, record := range records {
		if record.ID == item.ID {
			owned++
		}
	}
	// The historical gate: a purchase is refused only when the holdings
	// already meet the cap AND the purchase would still land under it.
	if item.MaxAmount != nil && owned >= *item.MaxAmount && owned+quantity < *item.MaxAmount {
		return &TransactionResult{
			Status:   false,
			Message:  "maximum amount of items reached",
			Item:     item,
			Quantity: quantity,
		}, nil
	}

	subtractOnBuy := s.eco.Settings.boolValue("subtractOnBuy", guildID, s.eco.config.SubtractOnBuy)
	if subtractOnBuy {
		if currency == "" {
			if _, err := s.eco.Balance.applyLocked(totalPrice, memberID, guildID, reason, events.BalanceSubtract, true); err != nil {
				return nil, err
			}
		} else {
			if err := s.eco.Currencies.chargeForPurchase(currency, totalPrice, memberID, guildID, reason); err != nil {
				return nil, err
			}
		}
	}

	// Quantity is modeled as repeated inventory rows, not a count field.
	now := dateString(time.Now())
	for i := 0; i < quantity; i++ {
		records = append(records, inventoryRecordFromItem(item.ItemRecord, now))
	}
	if err := s.eco.store.Set(inventoryPath(memberID, guildID), records); err != nil {
		return nil, err
	}

	saveHistory := s.eco.Settings.boolValue("savePurchasesHistory", guildID, s.eco.config.SavePurchasesHistory)
	if saveHistory {
		if err := s.eco.History.addLocked(item.ItemRecord, memberID, guildID, quantity, totalPrice); err != nil {
			return nil, err
		}
	}

	memberKey := cache.Key{GuildID: guildID, MemberID: memberID}
	names := []string{cache.Users, cache.Inventory, cache.Balance}
	if saveHistory {
		names = append(names, cache.History)
	}
	s.eco.cache.UpdateMany(names, memberKey)
	s.invalidate(guildID)
	if currency != "" {
		s.eco.cache.Partition(cache.Currencies).Update(cache.Key{GuildID: guildID})
	}

	s.eco.events.Emit(events.ShopItemBuy, TransactionEvent{
		GuildID:    guildID,
		MemberID:   memberID,
		Item:       item.ItemRecord,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		Currency:   currency,
		Reason:     reason,
	})
	return &TransactionResult{
		Status:     true,
		Message:    "OK",
		Item:       item,
		Quantity:   quantity,
		TotalPrice: totalPrice,
	}, nil
}

// invalidate refreshes the partitions that denormalize the shop.
func (s *ShopManager) invalidate(guildID string) {
	key := cache.Key{GuildID: guildID}
	s.eco.cache.UpdateMany([]string{cache.Shop, cache.Guilds}, key)
}

// nextID assigns sequential IDs within one record array: max existing + 1,
// or 1 for an empty array.
func nextID(length int, idAt func(int) int) int {
	max := 0
	for i := 0; i < length; i++ {
		if id := idAt(i); id > max {
			max = id
		}
	}
	return max + 1
}
