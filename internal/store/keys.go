package store

import (
	"strconv"
	"strings"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

// Well-known keys. The SQLite backend stores the same keys in its kv table.
const (
	KeyBooks  = "books"
	KeyLastID = "meta:last_id"

	goalKeyPrefix  = "goal:"
	coverKeyPrefix = "cover:"
)

// GoalKey returns the key holding one goal target.
func GoalKey(kind domain.GoalKind) string {
	return goalKeyPrefix + string(kind)
}

func coverKey(bookID int64) []byte {
	return strconv.AppendInt([]byte(coverKeyPrefix), bookID, 10)
}

func parseCoverKey(key []byte) (int64, bool) {
	rest, ok := strings.CutPrefix(string(key), coverKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil
}

// DecodeGoals builds goals from raw stored text. Each value falls back to
// its default when missing, not a decimal integer, or out of range.
func DecodeGoals(lookup func(key string) (string, bool)) domain.Goals {
	goals := domain.DefaultGoals()
	for _, kind := range domain.GoalKinds {
		raw, ok := lookup(GoalKey(kind))
		if !ok {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || !kind.InRange(v) {
			continue
		}
		goals.Set(kind, v)
	}
	return goals
}

// EncodeGoals returns the stored text for each goal key.
func EncodeGoals(goals domain.Goals) map[string]string {
	out := make(map[string]string, len(domain.GoalKinds))
	for _, kind := range domain.GoalKinds {
		out[GoalKey(kind)] = strconv.Itoa(goals.Get(kind))
	}
	return out
}
