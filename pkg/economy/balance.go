package economy

import (
	"sort"

	"github.com/rbrabson/economy/pkg/cache"
	"github.com/rbrabson/economy/pkg/events"
	log "github.com/sirupsen/logrus"
)

const (
	balanceKind = "money"
	bankKind    = "bank"
)

// BalanceManager mutates one numeric field of the per-member sub-document:
// the wallet ("money") or the bank ("bank"). The two managers differ only
// in the field they address and the events they emit.
type BalanceManager struct {
	eco       *Economy
	kind      string
	partition string
	setEvent  string
	addEvent  string
	subEvent  string
}

func newBalanceManager(eco *Economy, kind string) *BalanceManager {
	b := &BalanceManager{
		eco:  eco,
		kind: kind,
	}
	if kind == bankKind {
		b.partition = cache.Bank
		b.setEvent = events.BankSet
		b.addEvent = events.BankAdd
		b.subEvent = events.BankSubtract
	} else {
		b.partition = cache.Balance
		b.setEvent = events.BalanceSet
		b.addEvent = events.BalanceAdd
		b.subEvent = events.BalanceSubtract
	}
	return b
}

// path returns the document path of the member's balance field.
func (b *BalanceManager) path(memberID string, guildID string) string {
	return path(guildID, memberID, b.kind)
}

// Fetch returns the member's balance, or 0 when no record exists.
func (b *BalanceManager) Fetch(memberID string, guildID string) (int, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return 0, err
	}
	amount, _ := asInt(b.eco.store.Fetch(b.path(memberID, guildID)))
	return amount, nil
}

// Set writes the absolute balance and returns it.
func (b *BalanceManager) Set(amount int, memberID string, guildID string, reason string) (int, error) {
	log.Trace("--> BalanceManager.Set")
	defer log.Trace("<-- BalanceManager.Set")

	if err := validateIDs(memberID, guildID); err != nil {
		return 0, err
	}

	unlock := b.eco.locks.lock(guildID, memberID)
	defer unlock()

	previous, _ := asInt(b.eco.store.Fetch(b.path(memberID, guildID)))
	if err := b.eco.store.Set(b.path(memberID, guildID), amount); err != nil {
		return 0, err
	}
	b.invalidate(memberID, guildID)
	b.eco.events.Emit(b.setEvent, BalanceEvent{
		GuildID:  guildID,
		MemberID: memberID,
		Amount:   amount,
		Balance:  amount,
		Previous: previous,
		Reason:   reason,
	})
	return amount, nil
}

// Add credits the balance through the store's native increment and returns
// the new balance. The returned value is a separately fetched snapshot; a
// concurrent writer on another owner key can still move the balance between
// the increment and the read.
func (b *BalanceManager) Add(amount int, memberID string, guildID string, reason string) (int, error) {
	log.Trace("--> BalanceManager.Add")
	defer log.Trace("<-- BalanceManager.Add")

	return b.apply(amount, memberID, guildID, reason, b.addEvent, false)
}

// Subtract debits the balance through the store's native decrement and
// returns the new balance.
func (b *BalanceManager) Subtract(amount int, memberID string, guildID string, reason string) (int, error) {
	log.Trace("--> BalanceManager.Subtract")
	defer log.Trace("<-- BalanceManager.Subtract")

	return b.apply(amount, memberID, guildID, reason, b.subEvent, true)
}

func (b *BalanceManager) apply(amount int, memberID string, guildID string, reason string, event string, subtract bool) (int, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return 0, err
	}

	unlock := b.eco.locks.lock(guildID, memberID)
	defer unlock()

	return b.applyLocked(amount, memberID, guildID, reason, event, subtract)
}

// applyLocked performs the increment without taking the owner lock. Callers
// that already hold the lock for a composite mutation (buying, selling,
// claiming a reward) use this to avoid re-entry.
func (b *BalanceManager) applyLocked(amount int, memberID string, guildID string, reason string, event string, subtract bool) (int, error) {
	previous, _ := asInt(b.eco.store.Fetch(b.path(memberID, guildID)))
	var err error
	if subtract {
		err = b.eco.store.Subtract(b.path(memberID, guildID), amount)
	} else {
		err = b.eco.store.Add(b.path(memberID, guildID), amount)
	}
	if err != nil {
		return 0, err
	}

	balance, _ := asInt(b.eco.store.Fetch(b.path(memberID, guildID)))
	b.invalidate(memberID, guildID)
	b.eco.events.Emit(event, BalanceEvent{
		GuildID:  guildID,
		MemberID: memberID,
		Amount:   amount,
		Balance:  balance,
		Previous: previous,
		Reason:   reason,
	})
	return balance, nil
}

// invalidate refreshes the partitions that denormalize this field.
func (b *BalanceManager) invalidate(memberID string, guildID string) {
	key := cache.Key{GuildID: guildID, MemberID: memberID}
	b.eco.cache.UpdateMany([]string{cache.Users, b.partition}, key)
}

// TransferResult reports both post-transfer balances.
type TransferResult struct {
	Amount          int `json:"amount"`
	SenderBalance   int `json:"senderBalance"`
	ReceiverBalance int `json:"receiverBalance"`
}

// Transfer moves the amount between two members: the receiver is credited
// first, then the sender is debited. The two writes are separate store
// operations; a crash in between leaves the amount duplicated.
func (b *BalanceManager) Transfer(amount int, senderID string, receiverID string, guildID string, reason string) (*TransferResult, error) {
	log.Trace("--> BalanceManager.Transfer")
	defer log.Trace("<-- BalanceManager.Transfer")

	if err := validateIDs(senderID, guildID); err != nil {
		return nil, err
	}
	if receiverID == "" {
		return nil, ErrInvalidMemberID
	}

	receiverBalance, err := b.Add(amount, receiverID, guildID, reason)
	if err != nil {
		return nil, err
	}
	senderBalance, err := b.Subtract(amount, senderID, guildID, reason)
	if err != nil {
		return nil, err
	}
	return &TransferResult{
		Amount:          amount,
		SenderBalance:   senderBalance,
		ReceiverBalance: receiverBalance,
	}, nil
}

// LeaderboardEntry is one ranked member.
type LeaderboardEntry struct {
	Index    int    `json:"index"`
	MemberID string `json:"memberID"`
	GuildID  string `json:"guildID"`
	Amount   int    `json:"amount"`
}

// Leaderboard scans the whole guild document and ranks members by this
// balance field, descending. Guild-level keys and non-numeric values are
// skipped.
func (b *BalanceManager) Leaderboard(guildID string) ([]LeaderboardEntry, error) {
	log.Trace("--> BalanceManager.Leaderboard")
	defer log.Trace("<-- BalanceManager.Leaderboard")

	if guildID == "" {
		return nil, ErrInvalidGuildID
	}

	tree := b.eco.store.All()
	guild, ok := tree[guildID].(map[string]any)
	if !ok {
		return []LeaderboardEntry{}, nil
	}

	entries := make([]LeaderboardEntry, 0, len(guild))
	for memberID, sub := range guild {
		if guildLevelKeys[memberID] {
			continue
		}
		member, ok := sub.(map[string]any)
		if !ok {
			continue
		}
		amount, ok := asInt(member[b.kind])
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			MemberID: memberID,
			GuildID:  guildID,
			Amount:   amount,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Amount > entries[j].Amount
	})
	for i := range entries {
		entries[i].Index = i + 1
	}
	return entries, nil
}

// Ranking returns the member's 1-based position on the leaderboard, or 0
// when the member is not ranked.
func (b *BalanceManager) Ranking(memberID string, guildID string) (int, error) {
	if err := validateIDs(memberID, guildID); err != nil {
		return 0, err
	}
	entries, err := b.Leaderboard(guildID)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.MemberID == memberID {
			return entry.Index, nil
		}
	}
	return 0, nil
}
