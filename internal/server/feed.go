package server

import (
	"context"

	"github.com/playperu/imposter/internal/imposter"
	"github.com/playperu/imposter/internal/realtime"
	"github.com/playperu/imposter/internal/session"
)

// StreamMessage is one frame on the SSE and WebSocket room streams.
type StreamMessage struct {
	Type realtime.EventType `json:"type"`
	Code string             `json:"code"`
	Room *RoomView          `json:"room,omitempty"`
}

// roomFeed follows one room for a connected client. It subscribes before
// loading the room, so nothing committed in between is missed.
type roomFeed struct {
	sub    *realtime.Subscription
	mirror *realtime.Mirror
}

func openFeed(ctx context.Context, sessions *session.Service, broker *realtime.Broker, rawCode string) (*roomFeed, error) {
	code, err := imposter.NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	if !sessions.Available() {
		return nil, session.ErrUnavailable
	}
	f := &roomFeed{
		sub:    broker.Subscribe(code),
		mirror: realtime.NewMirror(code, sessions.Get),
	}
	if _, err := f.mirror.Resync(ctx); err != nil {
		f.Close()
		return nil, err
	}
	if f.mirror.Deleted() {
		f.Close()
		return nil, imposter.ErrRoomNotFound
	}
	return f, nil
}

func (f *roomFeed) Close() { f.sub.Close() }

// apply folds ev in and reports the frame to send, if any.
func (f *roomFeed) apply(ev realtime.Event) (StreamMessage, bool) {
	if !f.mirror.Apply(ev) {
		return StreamMessage{}, false
	}
	return f.message(ev.Type), true
}

func (f *roomFeed) message(t realtime.EventType) StreamMessage {
	room := f.mirror.Room()
	if room == nil {
		return StreamMessage{Type: realtime.EventDelete, Code: f.mirror.Code()}
	}
	v := newRoomView(room)
	return StreamMessage{Type: t, Code: room.Code, Room: &v}
}

func (f *roomFeed) done() bool { return f.mirror.Deleted() }
