package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/imposter/internal/imagegen"
	"github.com/playperu/imposter/internal/imposter"
	"github.com/playperu/imposter/internal/session"
)

// CardResponse is the caller's own secret. Nobody else's role or word is
// ever sent.
type CardResponse struct {
	Success  bool               `json:"success"`
	Number   int                `json:"number"`
	PlayerID string             `json:"playerId"`
	Role     imposter.Role      `json:"role"`
	Word     string             `json:"word"`
	State    imposter.CardState `json:"state"`
	Image    *imagegen.Image    `json:"image,omitempty"`
}

// handleCard reveals the caller's card, identified by their token. Sequential
// rooms only reveal to the player whose turn it is, and a confirmed card
// stays hidden for the rest of the round.
func handleCard(logger *slog.Logger, sessions *session.Service, illustrator *imagegen.Illustrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusBadRequest, "token query parameter required")
			return
		}
		room, player, err := sessions.Card(r.Context(), chi.URLParam(r, "code"), token)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		seat, err := imposter.NewSeat(room, player.ID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		resp := CardResponse{
			Success:  true,
			Number:   seat.Card.Number,
			PlayerID: seat.Card.PlayerID,
			Role:     seat.Card.Role,
			Word:     seat.Card.Word,
			State:    seat.Card.State,
		}
		if room.Settings.ImagesEnabled && illustrator != nil {
			img := illustrator.Image(r.Context(), seat.Card.Word, room.Settings.Quirkiness)
			resp.Image = &img
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleConfirmCard(logger *slog.Logger, sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		room, err := sessions.Confirm(r.Context(), chi.URLParam(r, "code"), req.Token)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, RoomResponse{Success: true, Room: newRoomView(room)})
	}
}
