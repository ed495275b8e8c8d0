// Package cache is the read/write coordination layer between the feature
// modules and the gateway. Reads ("queries") are keyed by resource name plus
// canonically-serialized filter parameters, deduplicated while in flight,
// and cached on success. Writes ("mutations") declare the resources they
// invalidate; invalidation is applied synchronously with mutation success,
// so a read issued after a successful mutation observes fresh data.
package cache
