package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/imposter/internal/realtime"
	"github.com/playperu/imposter/internal/session"
)

const wsWriteTimeout = 5 * time.Second

// handleRoomWS is the WebSocket flavour of handleEvents. Frames are the same
// StreamMessage JSON; the server ignores anything the client sends.
func handleRoomWS(logger *slog.Logger, sessions *session.Service, broker *realtime.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := openFeed(r.Context(), sessions, broker, chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		defer feed.Close()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		// CloseRead cancels ctx once the client goes away.
		ctx := conn.CloseRead(r.Context())

		send := func(msg StreamMessage) error {
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			defer cancel()
			return wsjson.Write(wctx, conn, msg)
		}
		if err := send(feed.message(realtime.EventUpdate)); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-feed.sub.C:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "server shutting down")
					return
				}
				if msg, changed := feed.apply(ev); changed {
					if err := send(msg); err != nil {
						logger.Debug("websocket write failed", "error", err)
						return
					}
				}
				if feed.done() {
					conn.Close(websocket.StatusNormalClosure, "room closed")
					return
				}
			case <-ping.C:
				pctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
				err := conn.Ping(pctx)
				cancel()
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Debug("websocket ping failed", "error", err)
					return
				}
			}
		}
	}
}
