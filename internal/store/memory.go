package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/playperu/imposter/internal/imposter"
)

// MemoryStore keeps rooms in process memory. It serializes every write
// behind one mutex, so Update never conflicts. Used by tests and by
// single-instance deployments that do not need rooms to survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*imposter.Room
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*imposter.Room),
		now:   time.Now,
	}
}

func (s *MemoryStore) Insert(_ context.Context, room *imposter.Room) (*imposter.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code]; exists {
		return nil, ErrCodeTaken
	}
	r := room.Clone()
	r.Version = 1
	s.rooms[r.Code] = r
	return r.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (*imposter.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil, imposter.ErrRoomNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, code string, fn func(*imposter.Room) error) (*imposter.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rooms[code]
	if !ok {
		return nil, imposter.ErrRoomNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version = cur.Version + 1
	next.UpdatedAt = s.now().UTC()
	s.rooms[code] = next
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return imposter.ErrRoomNotFound
	}
	delete(s.rooms, code)
	return nil
}

func (s *MemoryStore) DeleteIdle(_ context.Context, before time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for code, r := range s.rooms {
		if r.UpdatedAt.Before(before) {
			delete(s.rooms, code)
			removed = append(removed, code)
		}
	}
	sort.Strings(removed)
	return removed, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
