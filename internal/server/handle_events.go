package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/imposter/internal/realtime"
	"github.com/playperu/imposter/internal/session"
)

const pingInterval = 30 * time.Second

// handleEvents streams room snapshots as Server-Sent Events. The first frame
// is the current room; a reconnecting client therefore always catches up.
func handleEvents(logger *slog.Logger, sessions *session.Service, broker *realtime.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		feed, err := openFeed(r.Context(), sessions, broker, chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		defer feed.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		send := func(msg StreamMessage) {
			data, _ := json.Marshal(msg)
			fmt.Fprintf(w, "event: room\ndata: %s\n\n", data)
			flusher.Flush()
		}
		send(feed.message(realtime.EventUpdate))

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-feed.sub.C:
				if !ok {
					return
				}
				if msg, changed := feed.apply(ev); changed {
					send(msg)
				}
				if feed.done() {
					return
				}
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
