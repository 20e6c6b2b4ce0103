package cache

import "time"

// Entity TTLs. The freshness timestamp on each record is the sole input to
// staleness checks; there is no content comparison.
const (
	RecipeTTL   = 6 * time.Hour
	ReviewTTL   = 6 * time.Hour
	FavoriteTTL = 6 * time.Hour
	ProfileTTL  = 24 * time.Hour
)

// NowMillis returns the current wall-clock time in epoch milliseconds, the
// unit every freshness timestamp is stored in.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Fresh reports whether a record refreshed at lastUpdated (epoch millis) is
// still inside its TTL window. Wall clock only; device/server skew is not
// corrected.
func Fresh(lastUpdated int64, ttl time.Duration) bool {
	return time.Now().UnixMilli()-lastUpdated < ttl.Milliseconds()
}
