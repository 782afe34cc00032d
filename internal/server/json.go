package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/imposter/internal/imposter"
	"github.com/playperu/imposter/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes a single JSON object and rejects unknown fields.
func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps service errors to a status and a message that is
// safe to show to players. Anything unexpected is logged and hidden.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeError(w, status, msg)
}

type errorMessage struct {
	err    error
	status int
	text   string
	// detail appends the wrapped context, e.g. which setting was out of range.
	detail bool
}

// errorMessages lists every error players may see, in match order.
var errorMessages = []errorMessage{
	{session.ErrUnavailable, http.StatusServiceUnavailable, "Online play is unavailable right now", false},
	{session.ErrTimeout, http.StatusGatewayTimeout, "The server took too long to respond, please try again", false},

	{imposter.ErrRoomNotFound, http.StatusNotFound, "Room not found", false},
	{imposter.ErrPlayerNotFound, http.StatusNotFound, "Player not in this room", false},

	{imposter.ErrNotHost, http.StatusForbidden, "Only the host can do that", false},
	{imposter.ErrNotMember, http.StatusForbidden, "You are not a player in this room", false},

	{imposter.ErrRoomFull, http.StatusConflict, "Room is full", false},
	{imposter.ErrNameTaken, http.StatusConflict, "Name already taken in this room", false},
	{imposter.ErrGameAlreadyStarted, http.StatusConflict, "Game already in progress", false},
	{imposter.ErrGameNotStarted, http.StatusConflict, "Game has not started", false},
	{imposter.ErrNotEnoughPlayers, http.StatusConflict, "Need at least 3 players to start", false},
	{imposter.ErrNotYourTurn, http.StatusConflict, "It is not your turn to look", false},
	{imposter.ErrCardLocked, http.StatusConflict, "Card already confirmed", false},
	{imposter.ErrCardHidden, http.StatusConflict, "Reveal the card before confirming", false},

	{imposter.ErrInvalidSettings, http.StatusBadRequest, "Invalid room settings", true},
	{imposter.ErrInvalidName, http.StatusBadRequest, "Name must be between 2 and 24 characters", false},
	{imposter.ErrInvalidRoomCode, http.StatusBadRequest, "Please enter a valid 6-character room code", false},
	{imposter.ErrInvalidConfiguration, http.StatusBadRequest, "Invalid game configuration", true},

	{imposter.ErrCodeGenerationFailed, http.StatusInternalServerError, "Failed to generate unique room code", false},
}

func classify(err error) (int, string) {
	for _, m := range errorMessages {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.detail {
			if rest, ok := strings.CutPrefix(err.Error(), m.err.Error()); ok && rest != "" {
				return m.status, m.text + rest
			}
		}
		return m.status, m.text
	}
	return http.StatusInternalServerError, "internal error"
}
