package imposter

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

// NewRoom seeds a waiting room with the host as its only member.
func NewRoom(code string, host Player, s Settings, now time.Time) (*Room, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	host.IsHost = true
	if host.JoinedAt.IsZero() {
		host.JoinedAt = now
	}
	return &Room{
		Code:      code,
		HostID:    host.ID,
		Settings:  s,
		Players:   []Player{host},
		State:     StateWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Room) Player(id string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Member resolves a player's secret token to their roster entry.
func (r *Room) Member(token string) (Player, error) {
	if token == "" {
		return Player{}, ErrNotMember
	}
	for _, p := range r.Players {
		if subtle.ConstantTimeCompare([]byte(p.Token), []byte(token)) == 1 {
			return p, nil
		}
	}
	return Player{}, ErrNotMember
}

func (r *Room) PlayerIDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// Join admits p if the room is waiting, has a free seat and nobody already
// uses the same name (case-insensitive).
func (r *Room) Join(p Player) error {
	if r.State != StateWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.Players) >= r.Settings.PlayerCount {
		return ErrRoomFull
	}
	for _, existing := range r.Players {
		if strings.EqualFold(existing.Name, p.Name) {
			return ErrNameTaken
		}
		if existing.ID == p.ID {
			return fmt.Errorf("%w: duplicate player id", ErrInvalidConfiguration)
		}
	}
	p.IsHost = false
	r.Players = append(r.Players, p)
	return nil
}

// Leave removes a player. It reports true when the host left, in which case
// the caller must delete the room instead of saving it.
func (r *Room) Leave(playerID string) (closeRoom bool) {
	if playerID == r.HostID {
		return true
	}
	kept := r.Players[:0]
	for _, p := range r.Players {
		if p.ID != playerID {
			kept = append(kept, p)
		}
	}
	r.Players = kept
	if r.State == StatePlaying {
		r.CurrentTurnIndex = r.nextTurn(r.CurrentTurnIndex)
	}
	return false
}

func (r *Room) UpdateSettings(hostID string, patch SettingsPatch) error {
	if hostID != r.HostID {
		return ErrNotHost
	}
	if r.State != StateWaiting {
		return ErrGameAlreadyStarted
	}
	s, err := patch.Apply(r.Settings)
	if err != nil {
		return err
	}
	if s.PlayerCount < len(r.Players) {
		return fmt.Errorf("%w: %d players already joined", ErrInvalidSettings, len(r.Players))
	}
	r.Settings = s
	return nil
}

// Deal draws a word pair from the room's category, assigns roles to the
// current roster and starts the round.
func (r *Room) Deal(rng Rand, hostID string) error {
	if err := r.checkStart(hostID); err != nil {
		return err
	}
	pair, cat := RandomPair(rng, r.Settings.Category)
	dealt, err := Assign(rng, r.PlayerIDs(), r.Settings.ImposterCount, pair)
	if err != nil {
		return err
	}
	return r.Start(hostID, cat, pair, dealt)
}

// Start flips the room to playing with the given deal. The deal must cover
// exactly the current roster.
func (r *Room) Start(hostID, category string, pair WordPair, dealt []Dealt) error {
	if err := r.checkStart(hostID); err != nil {
		return err
	}
	if len(dealt) != len(r.Players) {
		return fmt.Errorf("%w: deal has %d seats for %d players", ErrInvalidConfiguration, len(dealt), len(r.Players))
	}
	roster := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		roster[p.ID] = true
	}
	assignments := make([]Assignment, len(dealt))
	imposters := 0
	for i, d := range dealt {
		if !roster[d.PlayerID] {
			return fmt.Errorf("%w: %q is not in the room", ErrInvalidConfiguration, d.PlayerID)
		}
		delete(roster, d.PlayerID)
		if d.Role == RoleImposter {
			imposters++
		}
		assignments[i] = Assignment{PlayerID: d.PlayerID, Role: d.Role}
	}
	if imposters != r.Settings.ImposterCount {
		return fmt.Errorf("%w: deal has %d imposters, settings want %d", ErrInvalidConfiguration, imposters, r.Settings.ImposterCount)
	}

	r.State = StatePlaying
	r.RoundWords = &pair
	r.Category = category
	r.Assignments = assignments
	r.CurrentTurnIndex = r.nextTurn(0)
	return nil
}

func (r *Room) checkStart(hostID string) error {
	if hostID != r.HostID {
		return ErrNotHost
	}
	if r.State != StateWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	return nil
}

// Reveal records that playerID looked at their card. In sequential mode only
// the player at CurrentTurnIndex may look. Revealing twice is a no-op.
func (r *Room) Reveal(playerID string) error {
	i, err := r.turnFor(playerID)
	if err != nil {
		return err
	}
	r.Assignments[i].Revealed = true
	return nil
}

// Confirm locks a revealed card for the round. In sequential mode doing so
// advances the turn.
func (r *Room) Confirm(playerID string) error {
	i, err := r.turnFor(playerID)
	if err != nil {
		return err
	}
	if !r.Assignments[i].Revealed {
		return ErrCardHidden
	}
	r.Assignments[i].Viewed = true
	r.CurrentTurnIndex = r.nextTurn(r.CurrentTurnIndex)
	return nil
}

// turnFor finds playerID's unlocked assignment and checks it is theirs to act
// on now.
func (r *Room) turnFor(playerID string) (int, error) {
	if r.State != StatePlaying {
		return -1, ErrGameNotStarted
	}
	i := r.assignmentIndex(playerID)
	if i < 0 {
		return -1, ErrPlayerNotFound
	}
	if r.Assignments[i].Viewed {
		return -1, ErrCardLocked
	}
	if r.Settings.TurnMode == TurnSequential && i != r.CurrentTurnIndex {
		return -1, ErrNotYourTurn
	}
	return i, nil
}

// nextTurn returns the first index at or after from whose card is unviewed
// and whose player is still present, or len(Assignments) when none is left.
func (r *Room) nextTurn(from int) int {
	for i := from; i < len(r.Assignments); i++ {
		a := r.Assignments[i]
		if a.Viewed {
			continue
		}
		if _, ok := r.Player(a.PlayerID); ok {
			return i
		}
	}
	return len(r.Assignments)
}

func (r *Room) assignmentIndex(playerID string) int {
	for i, a := range r.Assignments {
		if a.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// TurnPlayerID is the player whose turn it is in sequential mode.
func (r *Room) TurnPlayerID() (string, bool) {
	if r.State != StatePlaying || r.CurrentTurnIndex >= len(r.Assignments) {
		return "", false
	}
	return r.Assignments[r.CurrentTurnIndex].PlayerID, true
}

// Card returns the secret dealt to playerID.
func (r *Room) Card(playerID string) (Dealt, error) {
	if r.State != StatePlaying || r.RoundWords == nil {
		return Dealt{}, ErrGameNotStarted
	}
	i := r.assignmentIndex(playerID)
	if i < 0 {
		return Dealt{}, ErrPlayerNotFound
	}
	a := r.Assignments[i]
	return Dealt{PlayerID: a.PlayerID, Role: a.Role, Word: r.RoundWords.Word(a.Role)}, nil
}

func (r *Room) ViewedCount() int {
	n := 0
	for _, a := range r.Assignments {
		if a.Viewed {
			n++
		}
	}
	return n
}

// RoundReady reports whether every player still in the room has confirmed.
func (r *Room) RoundReady() bool {
	return r.State == StatePlaying && r.nextTurn(0) == len(r.Assignments)
}
