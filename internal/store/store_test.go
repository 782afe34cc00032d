package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/imposter/internal/database"
	"github.com/playperu/imposter/internal/imposter"
	"github.com/playperu/imposter/internal/migrations"
)

type roomStore interface {
	Insert(ctx context.Context, room *imposter.Room) (*imposter.Room, error)
	Get(ctx context.Context, code string) (*imposter.Room, error)
	Update(ctx context.Context, code string, fn func(*imposter.Room) error) (*imposter.Room, error)
	Delete(ctx context.Context, code string) error
	DeleteIdle(ctx context.Context, before time.Time) ([]string, error)
}

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(ctx, db))
	return NewSQLiteStore(db)
}

func stores(t *testing.T) map[string]roomStore {
	return map[string]roomStore{
		"sqlite": newSQLite(t),
		"memory": NewMemoryStore(),
	}
}

func sampleRoom(t *testing.T, code string, now time.Time) *imposter.Room {
	t.Helper()
	s := imposter.DefaultSettings()
	r, err := imposter.NewRoom(code, imposter.Player{ID: "h", Name: "Host"}, s, now)
	require.NoError(t, err)
	return r
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			inserted, err := s.Insert(ctx, sampleRoom(t, "ABCDEF", now))
			require.NoError(t, err)
			assert.Equal(t, int64(1), inserted.Version)

			got, err := s.Get(ctx, "ABCDEF")
			require.NoError(t, err)
			assert.Equal(t, "h", got.HostID)
			assert.Equal(t, imposter.StateWaiting, got.State)
			assert.Len(t, got.Players, 1)
			assert.Equal(t, int64(1), got.Version)

			_, err = s.Insert(ctx, sampleRoom(t, "ABCDEF", now))
			assert.ErrorIs(t, err, ErrCodeTaken)

			_, err = s.Get(ctx, "ZZZZZZ")
			assert.ErrorIs(t, err, imposter.ErrRoomNotFound)
		})
	}
}

func TestUpdateBumpsVersion(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert(ctx, sampleRoom(t, "ROOM22", time.Now()))
			require.NoError(t, err)

			r, err := s.Update(ctx, "ROOM22", func(r *imposter.Room) error {
				return r.Join(imposter.Player{ID: "p1", Name: "Bo"})
			})
			require.NoError(t, err)
			assert.Equal(t, int64(2), r.Version)
			assert.Len(t, r.Players, 2)

			_, err = s.Update(ctx, "ROOM22", func(r *imposter.Room) error {
				return r.Join(imposter.Player{ID: "p2", Name: "bo"})
			})
			assert.ErrorIs(t, err, imposter.ErrNameTaken)

			got, err := s.Get(ctx, "ROOM22")
			require.NoError(t, err)
			assert.Equal(t, int64(2), got.Version, "failed update must not commit")

			_, err = s.Update(ctx, "NOPE22", func(*imposter.Room) error { return nil })
			assert.ErrorIs(t, err, imposter.ErrRoomNotFound)
		})
	}
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			room := sampleRoom(t, "FULL22", time.Now())
			room.Settings.PlayerCount = 4
			_, err := s.Insert(ctx, room)
			require.NoError(t, err)

			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				joined int
				full   int
			)
			for i := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.Update(ctx, "FULL22", func(r *imposter.Room) error {
						return r.Join(imposter.Player{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)})
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						joined++
					case errors.Is(err, imposter.ErrRoomFull), errors.Is(err, ErrConflict):
						full++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			got, err := s.Get(ctx, "FULL22")
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got.Players), 4)
			assert.Equal(t, len(got.Players)-1, joined)
			assert.Equal(t, 8, joined+full)
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert(ctx, sampleRoom(t, "GONE22", time.Now()))
			require.NoError(t, err)
			require.NoError(t, s.Delete(ctx, "GONE22"))
			assert.ErrorIs(t, s.Delete(ctx, "GONE22"), imposter.ErrRoomNotFound)
			_, err = s.Get(ctx, "GONE22")
			assert.ErrorIs(t, err, imposter.ErrRoomNotFound)
		})
	}
}

func TestDeleteIdle(t *testing.T) {
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert(ctx, sampleRoom(t, "OLD222", old))
			require.NoError(t, err)
			_, err = s.Insert(ctx, sampleRoom(t, "NEW222", time.Now().UTC()))
			require.NoError(t, err)

			removed, err := s.DeleteIdle(ctx, old.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, []string{"OLD222"}, removed)

			_, err = s.Get(ctx, "NEW222")
			assert.NoError(t, err)
		})
	}
}

type brokenResult struct{}

func (brokenResult) LastInsertId() (int64, error) { return 0, errors.New("not supported") }
func (brokenResult) RowsAffected() (int64, error) { return 0, errors.New("driver gone") }

func TestRowsAffectedReturnsDriverError(t *testing.T) {
	_, err := rowsAffected(brokenResult{}, "updating room ABCDEF")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating room ABCDEF")
	assert.Contains(t, err.Error(), "driver gone")
}

func TestTokensSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			host := imposter.Player{ID: "h", Token: "secret-h", Name: "Host"}
			room, err := imposter.NewRoom("TOKENS", host, imposter.DefaultSettings(), time.Now())
			require.NoError(t, err)
			_, err = s.Insert(ctx, room)
			require.NoError(t, err)

			got, err := s.Get(ctx, "TOKENS")
			require.NoError(t, err)
			p, err := got.Member("secret-h")
			require.NoError(t, err)
			assert.Equal(t, "h", p.ID)
		})
	}
}
