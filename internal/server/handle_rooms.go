package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/imposter/internal/imposter"
	"github.com/playperu/imposter/internal/session"
)

type CreateRoomRequest struct {
	HostName string                 `json:"hostName"`
	Settings imposter.SettingsPatch `json:"settings"`
}

type JoinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

// PlayerRequest identifies the caller by the secret token returned from
// create or join. Public player ids are never accepted as credentials.
type PlayerRequest struct {
	Token string `json:"token"`
}

type UpdateSettingsRequest struct {
	Token    string                 `json:"token"`
	Settings imposter.SettingsPatch `json:"settings"`
}

// RoomResponse carries the public room and, for create and join, the
// caller's own player record including their token.
type RoomResponse struct {
	Success bool             `json:"success"`
	Room    RoomView         `json:"room"`
	Player  *imposter.Player `json:"player,omitempty"`
}

type LeaveResponse struct {
	Success bool `json:"success"`
	Closed  bool `json:"closed"`
}

type CategoriesResponse struct {
	Success    bool                    `json:"success"`
	Categories []imposter.CategoryInfo `json:"categories"`
}

func handleCategories() http.HandlerFunc {
	resp := CategoriesResponse{Success: true, Categories: imposter.Categories()}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateRoom(logger *slog.Logger, sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		settings, err := req.Settings.Apply(imposter.DefaultSettings())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		room, host, err := sessions.Create(r.Context(), req.HostName, settings)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, RoomResponse{Success: true, Room: newRoomView(room), Player: &host})
	}
}

func handleGetRoom(logger *slog.Logger, sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := sessions.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, RoomResponse{Success: true, Room: newRoomView(room)})
	}
}

func handleJoinRoom(logger *slog.Logger, sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		room, p, err := sessions.Join(r.Context(), chi.URLParam(r, "code"), req.PlayerName)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, RoomResponse{Success: true, Room: newRoomView(room), Player: &p})
	}
}

func handleLeaveRoom(logger *slog.Logger, sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Token == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}
		closed, err := sessions.Leave(r.Context(), chi.URLParam(r, "code"), req.Token)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, LeaveResponse{Success: true, Closed: closed})
	}
}

func handleUpdateSettings(logger *slog.Logger, sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSettingsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		room, err := sessions.UpdateSettings(r.Context(), chi.URLParam(r, "code"), req.Token, req.Settings)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, RoomResponse{Success: true, Room: newRoomView(room)})
	}
}

func handleStartGame(logger *slog.Logger, sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		room, err := sessions.Start(r.Context(), chi.URLParam(r, "code"), req.Token)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, RoomResponse{Success: true, Room: newRoomView(room)})
	}
}
