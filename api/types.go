package api

import (
	"context"

	"study-planner/domain"
)

// Store is the activity collection the handlers read and mutate.
type Store interface {
	Add(in domain.NewActivity) domain.Activity
	ToggleComplete(id string) (domain.Activity, bool)
	Delete(id string) bool
	ActivitiesForDate(date string) []domain.Activity
	Activities() []domain.Activity
	Get(id string) (domain.Activity, bool)
}

// Deduper tracks Idempotency-Key headers of activity creation requests.
type Deduper interface {
	// Claim records key as in flight and reports whether it was newly claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Resolve binds a claimed key to the activity it created.
	Resolve(ctx context.Context, key, activityID string) error
	// Lookup returns the activity bound to key, or "" while the claim is still pending.
	Lookup(ctx context.Context, key string) (string, error)
	// Remove drops a claim that could not be resolved so the key can be retried.
	Remove(ctx context.Context, key string) error
}
