// File: utils/constants.go
package utils

import "time"

// DraftCachePrefix is the prefix used for Redis booking-draft keys.
const DraftCachePrefix = "draft:"

// DraftCacheTTL is the time-to-live for an in-progress booking draft.
const DraftCacheTTL = 30 * time.Minute

// DispatchCachePrefix is the prefix for side-effect dedup markers.
const DispatchCachePrefix = "dispatch:"
