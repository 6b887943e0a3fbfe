package cache

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Store is the read-through/write-through cache every remote operation goes
// past. Implementations must treat an expired entry exactly like a missing
// one (lazy expiry) and make Put an upsert: a later Put for the same key
// replaces value and expiry, never appends.
type Store interface {
	// Get unmarshals the cached value for key into target and reports
	// whether a live entry was found.
	Get(ctx context.Context, key string, target any) (bool, error)
	// Put stores value under key until ttl elapses.
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
}

// TTLs per operation. Fixed policy: callers do not tune these.
const (
	// CategoryTTL covers hierarchy snapshots; the tree changes rarely.
	CategoryTTL = 24 * time.Hour
	// FeeTTL covers fee schedules, which eBay revises more often.
	FeeTTL = 6 * time.Hour
	// SpecificsTTL covers item-specifics recommendations.
	SpecificsTTL = 12 * time.Hour
)

// Key builds a canonical cache key from an operation name and its
// parameters. Parameter names are sorted so identical logical requests map
// to the same key regardless of the order the caller supplied them in.
func Key(operation string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(operation)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}
