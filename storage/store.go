// Package storage holds the in-memory activity store.
package storage

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"study-planner/domain"
	"study-planner/observability"
)

// Publisher receives committed store changes in mutation order. Publish runs
// while further mutations wait, so it must not block or write to the store.
type Publisher interface {
	Publish(ev domain.Event)
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithPublisher sets the receiver of change events.
func WithPublisher(p Publisher) Option {
	return func(s *MemoryStore) { s.publisher = p }
}

// WithMetrics sets the collectors updated on every mutation.
func WithMetrics(m *observability.StoreMetrics) Option {
	return func(s *MemoryStore) { s.metrics = m }
}

// WithClock overrides the time source used for CreatedAt and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithLogger sets the logger used for mutation debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *MemoryStore) { s.log = l }
}

// MemoryStore owns the ordered collection of activities. Callers only ever
// receive copies; all mutation goes through its methods.
type MemoryStore struct {
	// writeMu serialises mutations together with their commit, so metrics and
	// events are observed in mutation order. Readers only take mu.
	writeMu    sync.Mutex
	mu         sync.RWMutex
	activities []domain.Activity

	publisher Publisher
	metrics   *observability.StoreMetrics
	now       func() time.Time
	log       *log.Logger
}

// New creates a store holding a copy of seed, in order.
func New(seed []domain.Activity, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		activities: append([]domain.Activity(nil), seed...),
		now:        time.Now,
		log:        log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.SetSize(len(s.activities))
	return s
}

// Add appends a new pending activity built from in. It never fails and does
// not validate the input.
func (s *MemoryStore) Add(in domain.NewActivity) domain.Activity {
	now := s.now()
	a := in.Build(now)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.activities = append(s.activities, a)
	size := len(s.activities)
	s.mu.Unlock()

	s.commit(domain.ActivityCreated, a, now, size)
	return a
}

// ToggleComplete flips the completion flag of the activity with the given id.
// Unknown ids are ignored; found reports whether anything changed.
func (s *MemoryStore) ToggleComplete(id string) (domain.Activity, bool) {
	now := s.now()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Activity{}, false
	}
	s.activities[i].Completed = !s.activities[i].Completed
	a := s.activities[i]
	size := len(s.activities)
	s.mu.Unlock()

	s.commit(domain.ToggleEventType(a.Completed), a, now, size)
	return a, true
}

// Delete removes the activity with the given id. Unknown ids are ignored.
func (s *MemoryStore) Delete(id string) bool {
	now := s.now()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	a := s.activities[i]
	s.activities = append(s.activities[:i:i], s.activities[i+1:]...)
	size := len(s.activities)
	s.mu.Unlock()

	s.commit(domain.ActivityDeleted, a, now, size)
	return true
}

// ActivitiesForDate returns the activities scheduled on date in collection order.
func (s *MemoryStore) ActivitiesForDate(date string) []domain.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FilterByDate(s.activities, date)
}

// Activities returns a snapshot of the whole collection.
func (s *MemoryStore) Activities() []domain.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

// Get looks up a single activity.
func (s *MemoryStore) Get(id string) (domain.Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.activities[i], true
	}
	return domain.Activity{}, false
}

// Len reports the collection size.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activities)
}

// indexOf must be called with mu held.
func (s *MemoryStore) indexOf(id string) int {
	for i := range s.activities {
		if s.activities[i].ID == id {
			return i
		}
	}
	return -1
}

// commit must be called with writeMu held and mu released.
func (s *MemoryStore) commit(eventType string, a domain.Activity, at time.Time, size int) {
	s.metrics.RecordMutation(eventType, size)
	if s.log != nil {
		s.log.WithFields(log.Fields{"event": eventType, "activity": a.ID, "size": size}).Debug("store mutation")
	}
	if s.publisher != nil {
		s.publisher.Publish(domain.Event{
			Type:      eventType,
			EntityID:  a.ID,
			Activity:  a,
			Timestamp: at.UnixNano(),
		})
	}
}
