// Package session runs the multiplayer room operations against a shared
// store and announces every committed change to the realtime layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/imposter/internal/imposter"
	"github.com/playperu/imposter/internal/realtime"
	"github.com/playperu/imposter/internal/store"
)

var (
	// ErrUnavailable means no room backend is configured or reachable.
	// Local play keeps working.
	ErrUnavailable = errors.New("room backend unavailable")
	// ErrTimeout means the backend did not answer in time. Safe to retry.
	ErrTimeout = errors.New("room backend timed out")
)

// codeAttempts bounds room code generation when codes collide.
const codeAttempts = 5

// Store is the persistence the service needs. Update must apply fn to the
// latest committed room and write the result atomically.
type Store interface {
	Insert(ctx context.Context, room *imposter.Room) (*imposter.Room, error)
	Get(ctx context.Context, code string) (*imposter.Room, error)
	Update(ctx context.Context, code string, fn func(*imposter.Room) error) (*imposter.Room, error)
	Delete(ctx context.Context, code string) error
	DeleteIdle(ctx context.Context, before time.Time) ([]string, error)
}

type Publisher interface {
	Publish(code string, ev realtime.Event)
}

type Service struct {
	store   Store
	pub     Publisher
	logger  *slog.Logger
	timeout time.Duration

	rngMu    sync.Mutex
	rng      imposter.Rand
	now      func() time.Time
	newID    func() string
	newToken func() string
}

// New builds a service. A nil store yields a service whose every operation
// fails with ErrUnavailable.
func New(st Store, pub Publisher, logger *slog.Logger, timeout time.Duration) *Service {
	return &Service{
		store:    st,
		pub:      pub,
		logger:   logger,
		timeout:  timeout,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
		newID:    uuid.NewString,
		newToken: uuid.NewString,
	}
}

func (s *Service) Available() bool { return s.store != nil }

// Get returns the committed room, secrets included. Callers decide what to
// expose.
func (s *Service) Get(ctx context.Context, code string) (*imposter.Room, error) {
	code, err := imposter.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	room, err := s.store.Get(ctx, code)
	return room, s.fail(err)
}

// Create opens a new room with hostName as its host.
func (s *Service) Create(ctx context.Context, hostName string, settings imposter.Settings) (*imposter.Room, imposter.Player, error) {
	name, err := imposter.NormalizeName(hostName)
	if err != nil {
		return nil, imposter.Player{}, err
	}
	if err := settings.Validate(); err != nil {
		return nil, imposter.Player{}, err
	}
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, imposter.Player{}, err
	}
	defer cancel()

	now := s.now().UTC()
	host := imposter.Player{ID: s.newID(), Token: s.newToken(), Name: name, IsHost: true, JoinedAt: now}
	for range codeAttempts {
		room, err := imposter.NewRoom(s.code(), host, settings, now)
		if err != nil {
			return nil, imposter.Player{}, err
		}
		inserted, err := s.store.Insert(ctx, room)
		if errors.Is(err, store.ErrCodeTaken) {
			s.logger.Debug("room code collision", "code", room.Code)
			continue
		}
		if err != nil {
			return nil, imposter.Player{}, s.fail(err)
		}
		s.logger.Info("room created", "code", inserted.Code, "host_id", host.ID)
		s.publish(realtime.EventInsert, inserted)
		return inserted, host, nil
	}
	return nil, imposter.Player{}, imposter.ErrCodeGenerationFailed
}

// Join adds a player named name to the room. The returned player carries the
// secret token the caller must present for every later action.
func (s *Service) Join(ctx context.Context, code, name string) (*imposter.Room, imposter.Player, error) {
	code, err := imposter.NormalizeCode(code)
	if err != nil {
		return nil, imposter.Player{}, err
	}
	name, err = imposter.NormalizeName(name)
	if err != nil {
		return nil, imposter.Player{}, err
	}
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, imposter.Player{}, err
	}
	defer cancel()

	p := imposter.Player{ID: s.newID(), Token: s.newToken(), Name: name, JoinedAt: s.now().UTC()}
	room, err := s.store.Update(ctx, code, func(r *imposter.Room) error {
		return r.Join(p)
	})
	if err != nil {
		return nil, imposter.Player{}, s.fail(err)
	}
	s.logger.Info("player joined", "code", code, "player_id", p.ID)
	s.publish(realtime.EventUpdate, room)
	return room, p, nil
}

var errHostLeft = errors.New("host left")

// Leave removes the player holding token from the room. When the host leaves
// the room is deleted and Leave reports closed. Leaving a room one is not in
// succeeds without changing anything.
func (s *Service) Leave(ctx context.Context, code, token string) (closed bool, err error) {
	code, err = imposter.NormalizeCode(code)
	if err != nil {
		return false, err
	}
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	var playerID string
	room, err := s.store.Update(ctx, code, func(r *imposter.Room) error {
		p, err := r.Member(token)
		if err != nil {
			return err
		}
		playerID = p.ID
		if r.Leave(p.ID) {
			return errHostLeft
		}
		return nil
	})
	switch {
	case errors.Is(err, imposter.ErrNotMember):
		return false, nil
	case errors.Is(err, errHostLeft):
		if err := s.store.Delete(ctx, code); err != nil && !errors.Is(err, imposter.ErrRoomNotFound) {
			return false, s.fail(err)
		}
		s.logger.Info("room closed by host", "code", code)
		s.pub.Publish(code, realtime.Event{Type: realtime.EventDelete, Code: code})
		return true, nil
	case err != nil:
		return false, s.fail(err)
	}
	s.logger.Info("player left", "code", code, "player_id", playerID)
	s.publish(realtime.EventUpdate, room)
	return false, nil
}

func (s *Service) UpdateSettings(ctx context.Context, code, token string, patch imposter.SettingsPatch) (*imposter.Room, error) {
	return s.mutate(ctx, code, func(r *imposter.Room) error {
		p, err := r.Member(token)
		if err != nil {
			return err
		}
		return r.UpdateSettings(p.ID, patch)
	})
}

// Start deals roles to the roster present at commit time and begins the round.
func (s *Service) Start(ctx context.Context, code, token string) (*imposter.Room, error) {
	room, err := s.mutate(ctx, code, func(r *imposter.Room) error {
		p, err := r.Member(token)
		if err != nil {
			return err
		}
		s.rngMu.Lock()
		defer s.rngMu.Unlock()
		return r.Deal(s.rng, p.ID)
	})
	if err == nil {
		s.logger.Info("round started", "code", room.Code, "players", len(room.Players), "category", room.Category)
	}
	return room, err
}

// Confirm locks the card of the player holding token. The card must have
// been revealed through Card first.
func (s *Service) Confirm(ctx context.Context, code, token string) (*imposter.Room, error) {
	return s.mutate(ctx, code, func(r *imposter.Room) error {
		p, err := r.Member(token)
		if err != nil {
			return err
		}
		return r.Confirm(p.ID)
	})
}

// Card reveals the card of the player holding token and records the reveal
// so a later Confirm is accepted. It returns the room as committed and the
// player; the caller reads only that player's secret from it. Fetching an
// already revealed card again writes nothing.
func (s *Service) Card(ctx context.Context, code, token string) (*imposter.Room, imposter.Player, error) {
	room, err := s.Get(ctx, code)
	if err != nil {
		return nil, imposter.Player{}, err
	}
	p, err := room.Member(token)
	if err != nil {
		return nil, imposter.Player{}, err
	}
	a, ok := assignment(room, p.ID)
	switch {
	case room.State != imposter.StatePlaying:
		return nil, imposter.Player{}, imposter.ErrGameNotStarted
	case !ok:
		return nil, imposter.Player{}, imposter.ErrPlayerNotFound
	case a.Viewed:
		return nil, imposter.Player{}, imposter.ErrCardLocked
	case a.Revealed:
		return room, p, nil
	}
	room, err = s.mutate(ctx, code, func(r *imposter.Room) error {
		if a, ok := assignment(r, p.ID); ok && a.Revealed && !a.Viewed {
			return nil
		}
		return r.Reveal(p.ID)
	})
	if err != nil {
		return nil, imposter.Player{}, err
	}
	return room, p, nil
}

func assignment(r *imposter.Room, playerID string) (imposter.Assignment, bool) {
	for _, a := range r.Assignments {
		if a.PlayerID == playerID {
			return a, true
		}
	}
	return imposter.Assignment{}, false
}

// ReapIdle deletes rooms untouched for longer than ttl and announces each
// deletion.
func (s *Service) ReapIdle(ctx context.Context, ttl time.Duration) (int, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	codes, err := s.store.DeleteIdle(ctx, s.now().Add(-ttl))
	for _, code := range codes {
		s.pub.Publish(code, realtime.Event{Type: realtime.EventDelete, Code: code})
	}
	return len(codes), s.fail(err)
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (s *Service) RunReaper(ctx context.Context, ttl, interval time.Duration) error {
	if !s.Available() {
		return nil
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			n, err := s.ReapIdle(ctx, ttl)
			if err != nil {
				s.logger.Error("reaping idle rooms", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("reaped idle rooms", "count", n)
			}
		}
	}
}

func (s *Service) mutate(ctx context.Context, code string, fn func(*imposter.Room) error) (*imposter.Room, error) {
	code, err := imposter.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	room, err := s.store.Update(ctx, code, fn)
	if err != nil {
		return nil, s.fail(err)
	}
	s.publish(realtime.EventUpdate, room)
	return room, nil
}

func (s *Service) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.store == nil {
		return nil, nil, ErrUnavailable
	}
	if s.timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, cancel, nil
}

// fail turns backend trouble into ErrTimeout so callers see one retryable
// error; domain errors pass through untouched.
func (s *Service) fail(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w (%v)", ErrTimeout, err)
	}
	return err
}

func (s *Service) publish(t realtime.EventType, room *imposter.Room) {
	s.pub.Publish(room.Code, realtime.Event{Type: t, Code: room.Code, Version: room.Version, Room: room.Clone()})
}

func (s *Service) code() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return imposter.NewRoomCode(s.rng)
}
