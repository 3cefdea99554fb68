package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. Price
// lookups go through it so the in-process and redis backends are
// interchangeable.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
