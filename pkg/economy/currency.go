package economy

import (
	"strconv"
	"strings"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/collection"
	"github.com/rbrabson/economy/pkg/document"
	"github.com/rbrabson/economy/pkg/events"
	log "github.com/sirupsen/logrus"
)

// CurrencyRecord is one custom currency scoped to a guild. Member balances
// live inside the record itself, so the record grows with the member count.
type CurrencyRecord struct {
	ID       int            `json:"id" bson:"id"`
	Name     string         `json:"name" bson:"name"`
	Symbol   string         `json:"symbol" bson:"symbol"`
	Balances map[string]int `json:"balances" bson:"balances"`
	Custom   map[string]any `json:"custom" bson:"custom"`
}

// Currency is a hydrated view of one custom currency.
type Currency struct {
	CurrencyRecord
	Exists  bool   `json:"exists"`
	GuildID string `json:"guildID"`

	eco *Economy
}

// Edit changes one whitelisted property of the currency.
func (c *Currency) Edit(property string, value any) error {
	return c.eco.Currencies.Edit(c.ID, c.GuildID, property, value)
}

// Delete removes the currency from the guild.
func (c *Currency) Delete() (bool, error) {
	return c.eco.Currencies.Delete(c.ID, c.GuildID)
}

// Balance returns the member's balance in this currency.
func (c *Currency) Balance(memberID string) int {
	return c.Balances[memberID]
}

// CurrencyManager owns the per-guild custom currencies array.
type CurrencyManager struct {
	eco *Economy
}

func newCurrencyManager(eco *Economy) *CurrencyManager {
	return &CurrencyManager{eco: eco}
}

// Fetch returns the raw currency records for the guild.
func (m *CurrencyManager) Fetch(guildID string) ([]CurrencyRecord, error) {
	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	var records []CurrencyRecord
	if err := document.Decode(m.eco.store.Fetch(currenciesPath(guildID)), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []CurrencyRecord{}
	}
	return records, nil
}

func (m *CurrencyManager) hydrate(guildID string, record CurrencyRecord) *Currency {
	if record.Balances == nil {
		record.Balances = make(map[string]int)
	}
	return &Currency{
		CurrencyRecord: record,
		Exists:         true,
		GuildID:        guildID,
		eco:            m.eco,
	}
}

func (m *CurrencyManager) emptyCurrency(guildID string) *Currency {
	return &Currency{
		CurrencyRecord: CurrencyRecord{Balances: make(map[string]int)},
		Exists:         false,
		GuildID:        guildID,
		eco:            m.eco,
	}
}

// All returns every currency, hydrated.
func (m *CurrencyManager) All(guildID string) ([]*Currency, error) {
	records, err := m.Fetch(guildID)
	if err != nil {
		return nil, err
	}
	currencies := make([]*Currency, len(records))
	for i, record := range records {
		currencies[i] = m.hydrate(guildID, record)
	}
	return currencies, nil
}

// Collection returns the array-like query facade over the guild's
// currencies.
func (m *CurrencyManager) Collection(guildID string) *collection.Manager[*Currency] {
	return collection.New(
		func() ([]*Currency, error) { return m.All(guildID) },
		func() *Currency { return m.emptyCurrency(guildID) },
	)
}

// Get returns the currency with the numeric ID, or the empty wrapper.
func (m *CurrencyManager) Get(currencyID int, guildID string) (*Currency, error) {
	return m.Collection(guildID).Find(func(c *Currency) bool {
		return c.ID == currencyID
	})
}

// Find resolves a currency by numeric ID, case-insensitive name, or
// case-insensitive symbol. The first match in array order wins.
func (m *CurrencyManager) Find(query string, guildID string) (*Currency, error) {
	id, idErr := strconv.Atoi(query)
	folded := strings.ToLower(query)
	return m.Collection(guildID).Find(func(c *Currency) bool {
		if idErr == nil && c.ID == id {
			return true
		}
		return strings.ToLower(c.Name) == folded || strings.ToLower(c.Symbol) == folded
	})
}

// Create adds a new currency with the next sequential ID.
func (m *CurrencyManager) Create(name string, symbol string, guildID string) (*Currency, error) {
	log.Trace("--> CurrencyManager.Create")
	defer log.Trace("<-- CurrencyManager.Create")

	if guildID == "" {
		return nil, ErrInvalidGuildID
	}
	if name == "" {
		return nil, ErrInvalidItemName
	}

	unlock := m.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := m.Fetch(guildID)
	if err != nil {
		return nil, err
	}
	record := CurrencyRecord{
		ID:       nextID(len(records), func(i int) int { return records[i].ID }),
		Name:     name,
		Symbol:   symbol,
		Balances: make(map[string]int),
	}
	records = append(records, record)
	if err := m.eco.store.Set(currenciesPath(guildID), records); err != nil {
		return nil, err
	}
	m.invalidate(guildID)
	return m.hydrate(guildID, record), nil
}

// editableCurrencyProperties are the fields Edit accepts. Everything else,
// balances included, is off limits.
var editableCurrencyProperties = map[string]bool{
	"name":   true,
	"symbol": true,
	"custom": true,
}

// Edit changes one whitelisted property of a currency.
func (m *CurrencyManager) Edit(currencyID int, guildID string, property string, value any) error {
	log.Trace("--> CurrencyManager.Edit")
	defer log.Trace("<-- CurrencyManager.Edit")

	if guildID == "" {
		return ErrInvalidGuildID
	}
	if !editableCurrencyProperties[property] {
		return ErrInvalidProperty
	}

	unlock := m.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := m.Fetch(guildID)
	if err != nil {
		return err
	}
	index := -1
	for i := range records {
		if records[i].ID == currencyID {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrCurrencyNotFound
	}

	switch property {
	case "name":
		name, ok := value.(string)
		if !ok || name == "" {
			return ErrInvalidItemName
		}
		records[index].Name = name
	case "symbol":
		records[index].Symbol, _ = value.(string)
	case "custom":
		records[index].Custom, _ = value.(map[string]any)
	}

	if err := m.eco.store.Set(currenciesPath(guildID), records); err != nil {
		return err
	}
	m.invalidate(guildID)
	return nil
}

// Delete removes the currency and every balance inside it.
func (m *CurrencyManager) Delete(currencyID int, guildID string) (bool, error) {
	log.Trace("--> CurrencyManager.Delete")
	defer log.Trace("<-- CurrencyManager.Delete")

	if guildID == "" {
		return false, ErrInvalidGuildID
	}

	unlock := m.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := m.Fetch(guildID)
	if err != nil {
		return false, err
	}
	remaining := make([]CurrencyRecord, 0, len(records))
	found := false
	for _, record := range records {
		if record.ID == currencyID && !found {
			found = true
			continue
		}
		remaining = append(remaining, record)
	}
	if !found {
		return false, nil
	}
	if err := m.eco.store.Set(currenciesPath(guildID), remaining); err != nil {
		return false, err
	}
	m.invalidate(guildID)
	return true, nil
}

// GetBalance returns the member's balance in the currency, or 0.
func (m *CurrencyManager) GetBalance(currencyID int, memberID string, guildID string) (int, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return 0, err
	}
	currency, err := m.Get(currencyID, guildID)
	if err != nil {
		return 0, err
	}
	return currency.Balances[memberID], nil
}

// SetBalance writes the member's absolute balance in the currency.
func (m *CurrencyManager) SetBalance(currencyID int, amount int, memberID string, guildID string, reason string) (int, error) {
	return m.mutateBalance(currencyID, memberID, guildID, reason, events.CustomCurrencySet, func(current int) int {
		return amount
	})
}

// AddBalance credits the member's balance in the currency.
func (m *CurrencyManager) AddBalance(currencyID int, amount int, memberID string, guildID string, reason string) (int, error) {
	return m.mutateBalance(currencyID, memberID, guildID, reason, events.CustomCurrencyAdd, func(current int) int {
		return current + amount
	})
}

// SubtractBalance debits the member's balance in the currency.
func (m *CurrencyManager) SubtractBalance(currencyID int, amount int, memberID string, guildID string, reason string) (int, error) {
	return m.mutateBalance(currencyID, memberID, guildID, reason, events.CustomCurrencySubtract, func(current int) int {
		return current - amount
	})
}

// mutateBalance applies the whole fetch-array, mutate, write-back cycle for
// one member balance inside one currency record.
func (m *CurrencyManager) mutateBalance(currencyID int, memberID string, guildID string, reason string, event string, compute func(int) int) (int, error) {
	log.Trace("--> CurrencyManager.mutateBalance")
	defer log.Trace("<-- CurrencyManager.mutateBalance")

	if err := validateIDs(memberID, guildID); err != nil {
		return 0, err
	}

	unlock := m.eco.locks.lock(guildID, "")
	defer unlock()

	records, err := m.Fetch(guildID)
	if err != nil {
		return 0, err
	}
	index := -1
	for i := range records {
		if records[i].ID == currencyID {
			index = i
			break
		}
	}
	if index < 0 {
		return 0, ErrCurrencyNotFound
	}
	if records[index].Balances == nil {
		records[index].Balances = make(map[string]int)
	}

	previous := records[index].Balances[memberID]
	balance := compute(previous)
	records[index].Balances[memberID] = balance

	if err := m.eco.store.Set(currenciesPath(guildID), records); err != nil {
		return 0, err
	}
	m.invalidate(guildID)
	m.eco.cache.Partition(cache.Users).Update(cache.Key{GuildID: guildID, MemberID: memberID})

	m.eco.events.Emit(event, BalanceEvent{
		GuildID:  guildID,
		MemberID: memberID,
		Amount:   balance - previous,
		Balance:  balance,
		Previous: previous,
		Currency: records[index].Name,
		Reason:   reason,
	})
	return balance, nil
}

// chargeForPurchase debits a purchase total from the currency resolved by
// ID-or-name-or-symbol. An unknown currency is a caller mistake here, since
// the shop was explicitly told to charge it.
func (m *CurrencyManager) chargeForPurchase(query string, totalPrice int, memberID string, guildID string, reason string) error {
	currency, err := m.Find(query, guildID)
	if err != nil {
		return err
	}
	if !currency.Exists {
		return ErrCurrencyNotFound
	}
	_, err = m.SubtractBalance(currency.ID, totalPrice, memberID, guildID, reason)
	return err
}

// invalidate refreshes the partitions that denormalize the currencies.
func (m *CurrencyManager) invalidate(guildID string) {
	key := cache.Key{GuildID: guildID}
	m.eco.cache.UpdateMany([]string{cache.Currencies, cache.Guilds}, key)
}
