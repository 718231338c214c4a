package economy

import (
	"strconv"
	"strings"
	"time"
)

// itoa renders a record ID for ID-or-name searches.
func itoa(id int) string {
	return strconv.Itoa(id)
}

// Reserved guild-level keys that are not member sub-documents.
var guildLevelKeys = map[string]bool{
	"shop":       true,
	"settings":   true,
	"currencies": true,
}

// path joins segments into a dotted document path.
func path(segments ...string) string {
	return strings.Join(segments, ".")
}

func shopPath(guildID string) string {
	return path(guildID, "shop")
}

func settingsPath(guildID string) string {
	return path(guildID, "settings")
}

func currenciesPath(guildID string) string {
	return path(guildID, "currencies")
}

func inventoryPath(memberID string, guildID string) string {
	return path(guildID, memberID, "inventory")
}

func historyPath(memberID string, guildID string) string {
	return path(guildID, memberID, "history")
}

func cooldownPath(memberID string, guildID string, field string) string {
	return path(guildID, memberID, field)
}

func memberPath(memberID string, guildID string) string {
	return path(guildID, memberID)
}

// asInt coerces a stored numeric value to an int. The second result reports
// whether the value was numeric at all; leaderboards drop non-numeric
// entries instead of ranking them.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// asInt64 coerces a stored numeric value to an int64 (cooldown timestamps).
func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}

// dateString formats the acquisition/creation timestamp stored on records.
func dateString(t time.Time) string {
	return t.Format(time.RFC1123)
}

// epochMillis converts a time to the epoch-millisecond form stored for
// cooldowns.
func epochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
