package repository

import (
	"context"
	"time"
)

// ReportCache holds short-lived serialized reporting payloads (recipient token
// lists, status counts). It sits only on read paths; the redemption path never
// consults it, so a stale entry can never affect lifecycle decisions.
// Implementations: Redis (multi-station deployments) or in-memory (single box).
type ReportCache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
