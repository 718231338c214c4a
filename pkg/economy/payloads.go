package economy

// BalanceEvent is the payload of balance and bank set/add/subtract events,
// and of custom-currency balance events (with Currency filled in).
type BalanceEvent struct {
	GuildID  string `json:"guildID"`
	MemberID string `json:"memberID"`
	Amount   int    `json:"amount"`
	Balance  int    `json:"balance"`
	Previous int    `json:"previous"`
	Currency string `json:"currency,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ShopItemEvent is the payload of shop item add/edit/remove events.
type ShopItemEvent struct {
	GuildID string     `json:"guildID"`
	Item    ItemRecord `json:"item"`
	// Property and Value are filled in for edits only.
	Property string `json:"property,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ShopClearEvent is the payload of the shop clear event.
type ShopClearEvent struct {
	GuildID string `json:"guildID"`
	Cleared int    `json:"cleared"`
}

// TransactionEvent is the payload of buy and use events.
type TransactionEvent struct {
	GuildID    string     `json:"guildID"`
	MemberID   string     `json:"memberID"`
	Item       ItemRecord `json:"item"`
	Quantity   int        `json:"quantity"`
	TotalPrice int        `json:"totalPrice"`
	Currency   string     `json:"currency,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}
