package realtime

import (
	"context"
	"errors"

	"github.com/playperu/imposter/internal/imposter"
)

// Fetcher loads the current room; it returns imposter.ErrRoomNotFound once
// the room is gone.
type Fetcher func(ctx context.Context, code string) (*imposter.Room, error)

// Mirror is a consumer's copy of one room. It accepts only snapshots newer
// than the one it holds, and a delete is final. Not safe for concurrent use.
type Mirror struct {
	code    string
	fetch   Fetcher
	room    *imposter.Room
	deleted bool
}

func NewMirror(code string, fetch Fetcher) *Mirror {
	return &Mirror{code: code, fetch: fetch}
}

func (m *Mirror) Code() string         { return m.code }
func (m *Mirror) Room() *imposter.Room { return m.room }
func (m *Mirror) Deleted() bool        { return m.deleted }

func (m *Mirror) Version() int64 {
	if m.room == nil {
		return 0
	}
	return m.room.Version
}

// Apply folds ev into the mirror and reports whether the held state changed.
func (m *Mirror) Apply(ev Event) bool {
	if m.deleted || ev.Code != m.code {
		return false
	}
	switch ev.Type {
	case EventDelete:
		m.deleted = true
		m.room = nil
		return true
	case EventInsert, EventUpdate:
		if ev.Room == nil || ev.Room.Version <= m.Version() {
			return false
		}
		m.room = ev.Room.Clone()
		return true
	}
	return false
}

// Resync reloads the room from the source of truth. Call it right after
// (re)subscribing so changes made while disconnected are not lost.
func (m *Mirror) Resync(ctx context.Context) (bool, error) {
	if m.deleted {
		return false, nil
	}
	room, err := m.fetch(ctx, m.code)
	if errors.Is(err, imposter.ErrRoomNotFound) {
		return m.Apply(Event{Type: EventDelete, Code: m.code}), nil
	}
	if err != nil {
		return false, err
	}
	return m.Apply(Event{Type: EventUpdate, Code: m.code, Version: room.Version, Room: room}), nil
}
