// Package imposter defines the core domain types of the imposter party game:
// rooms, settings, role assignment and the card reveal protocol.
// The package is pure Go with no I/O; persistence and transport live elsewhere.
package imposter

import "time"

type State string

const (
	StateWaiting State = "waiting"
	StatePlaying State = "playing"
)

type Role string

const (
	RoleCivilian Role = "civilian"
	RoleImposter Role = "imposter"
)

type TurnMode string

const (
	TurnSequential TurnMode = "sequential"
	TurnFree       TurnMode = "free"
)

// Rand is the random source used for codes, deals and shuffles.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Player is a roster entry. ID is a public seat identifier that other
// members may see; Token is the secret handed only to the player and is the
// credential for every action they take.
type Player struct {
	ID       string    `json:"id"`
	Token    string    `json:"token,omitempty"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

type WordPair struct {
	Civilian string `json:"civilianWord"`
	Imposter string `json:"imposterWord"`
}

// Word returns the secret word handed to a player with the given role.
func (p WordPair) Word(r Role) string {
	if r == RoleImposter {
		return p.Imposter
	}
	return p.Civilian
}

// Assignment is a dealt seat. Revealed is set when the owner first looks at
// the card and Viewed when they confirm it.
type Assignment struct {
	PlayerID string `json:"playerId"`
	Role     Role   `json:"role"`
	Revealed bool   `json:"revealed,omitempty"`
	Viewed   bool   `json:"viewed"`
}

// Room is the authoritative multiplayer session record. Version is bumped by
// the store on every committed write and is used for conditional updates.
type Room struct {
	Code             string       `json:"code"`
	HostID           string       `json:"hostId"`
	Settings         Settings     `json:"settings"`
	Players          []Player     `json:"players"`
	State            State        `json:"state"`
	RoundWords       *WordPair    `json:"roundWords,omitempty"`
	Category         string       `json:"category,omitempty"`
	Assignments      []Assignment `json:"assignments,omitempty"`
	CurrentTurnIndex int          `json:"currentTurnIndex"`
	Version          int64        `json:"version"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = append([]Player(nil), r.Players...)
	c.Assignments = append([]Assignment(nil), r.Assignments...)
	if r.RoundWords != nil {
		w := *r.RoundWords
		c.RoundWords = &w
	}
	return &c
}
