package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"seal/internal/events"
	"seal/pkg/platform/tx"
)

// InMemoryStore keeps the outbox in a slice. Appends made inside a memory
// transaction are dropped when it rolls back.
type InMemoryStore struct {
	mu     sync.RWMutex
	seq    uint64
	events []events.Event
}

func New() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, event events.Event) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	event.Seq = s.seq
	s.events = append(s.events, event)
	id := event.ID
	tx.Undo(ctx, func() { s.remove(id) })
	return event, nil
}

func (s *InMemoryStore) List(_ context.Context, filter events.Filter) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, 0)
	for _, e := range s.events {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}

func (s *InMemoryStore) ListUnpublished(_ context.Context, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, 0)
	for _, e := range s.events {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i := range s.events {
		if _, ok := want[s.events[i].ID]; ok && s.events[i].PublishedAt == nil {
			t := at
			s.events[i].PublishedAt = &t
		}
	}
	return nil
}

func (s *InMemoryStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return
		}
	}
}
