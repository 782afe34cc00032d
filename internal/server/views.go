package server

import (
	"time"

	"github.com/playperu/imposter/internal/imposter"
)

// PlayerView is a roster entry as every member of the room sees it.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Viewed bool   `json:"viewed"`
}

// RoomView is the public room snapshot. It never carries words or roles;
// each player fetches their own card separately.
type RoomView struct {
	Code             string            `json:"code"`
	HostID           string            `json:"hostId"`
	State            imposter.State    `json:"state"`
	Settings         imposter.Settings `json:"settings"`
	Players          []PlayerView      `json:"players"`
	Category         string            `json:"category,omitempty"`
	CurrentTurnIndex int               `json:"currentTurnIndex"`
	TurnPlayerID     string            `json:"turnPlayerId,omitempty"`
	ViewedCount      int               `json:"viewedCount"`
	TotalPlayers     int               `json:"totalPlayers"`
	RoundReady       bool              `json:"roundReady"`
	Version          int64             `json:"version"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func newRoomView(r *imposter.Room) RoomView {
	viewed := make(map[string]bool, len(r.Assignments))
	for _, a := range r.Assignments {
		viewed[a.PlayerID] = a.Viewed
	}
	players := make([]PlayerView, len(r.Players))
	seen := 0
	for i, p := range r.Players {
		players[i] = PlayerView{ID: p.ID, Name: p.Name, IsHost: p.IsHost, Viewed: viewed[p.ID]}
		if viewed[p.ID] {
			seen++
		}
	}
	turn, _ := r.TurnPlayerID()
	return RoomView{
		Code:             r.Code,
		HostID:           r.HostID,
		State:            r.State,
		Settings:         r.Settings,
		Players:          players,
		Category:         r.Category,
		CurrentTurnIndex: r.CurrentTurnIndex,
		TurnPlayerID:     turn,
		ViewedCount:      seen,
		TotalPlayers:     len(r.Players),
		RoundReady:       r.RoundReady(),
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
