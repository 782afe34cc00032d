package imposter

import (
	"fmt"
	"strconv"
)

type CardState int

const (
	CardHidden CardState = iota
	CardRevealed
	CardLocked
)

func (s CardState) String() string {
	switch s {
	case CardRevealed:
		return "revealed"
	case CardLocked:
		return "locked"
	default:
		return "hidden"
	}
}

func (s CardState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CardState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "hidden":
		*s = CardHidden
	case "revealed":
		*s = CardRevealed
	case "locked":
		*s = CardLocked
	default:
		return fmt.Errorf("unknown card state %q", b)
	}
	return nil
}

// Card is one seat on a device: a display number and the secret behind it.
type Card struct {
	Number   int       `json:"number"`
	PlayerID string    `json:"playerId,omitempty"`
	Role     Role      `json:"role"`
	Word     string    `json:"word"`
	State    CardState `json:"state"`
}

func (c Card) Revealed() bool { return c.State == CardRevealed }
func (c Card) Locked() bool   { return c.State == CardLocked }

// Table runs the reveal/lock protocol for a set of cards on one device.
// Cards go hidden -> revealed -> locked and never back. In sequential mode
// only the card at CurrentTurnIndex may be revealed, so at most one card is
// ever face up.
type Table struct {
	Mode  TurnMode `json:"mode"`
	Cards []Card   `json:"cards"`
	turn  int
}

// NewTable lays out dealt cards numbered from 1 in deal order.
func NewTable(mode TurnMode, dealt []Dealt) *Table {
	cards := make([]Card, len(dealt))
	for i, d := range dealt {
		cards[i] = Card{Number: i + 1, PlayerID: d.PlayerID, Role: d.Role, Word: d.Word}
	}
	return &Table{Mode: mode, Cards: cards}
}

// DealLocal deals a pass-and-play round with anonymous seats.
func DealLocal(rng Rand, s Settings) (*Table, WordPair, string, error) {
	if err := s.Validate(); err != nil {
		return nil, WordPair{}, "", err
	}
	ids := make([]string, s.PlayerCount)
	for i := range ids {
		ids[i] = "seat-" + strconv.Itoa(i+1)
	}
	pair, cat := RandomPair(rng, s.Category)
	dealt, err := Assign(rng, ids, s.ImposterCount, pair)
	if err != nil {
		return nil, WordPair{}, "", err
	}
	return NewTable(s.TurnMode, dealt), pair, cat, nil
}

// CurrentTurnIndex is the position of the first unlocked card, or
// len(Cards) once every card is locked.
func (t *Table) CurrentTurnIndex() int { return t.turn }

func (t *Table) index(number int) int {
	for i, c := range t.Cards {
		if c.Number == number {
			return i
		}
	}
	return -1
}

func (t *Table) Reveal(number int) error {
	i := t.index(number)
	if i < 0 {
		return ErrUnknownCard
	}
	switch t.Cards[i].State {
	case CardLocked:
		return ErrCardLocked
	case CardRevealed:
		return nil
	}
	if t.Mode == TurnSequential && i != t.turn {
		return ErrNotYourTurn
	}
	t.Cards[i].State = CardRevealed
	return nil
}

// Confirm locks a revealed card ("I remember"). It cannot be undone.
func (t *Table) Confirm(number int) error {
	i := t.index(number)
	if i < 0 {
		return ErrUnknownCard
	}
	switch t.Cards[i].State {
	case CardLocked:
		return ErrCardLocked
	case CardHidden:
		return ErrCardHidden
	}
	t.Cards[i].State = CardLocked
	for t.turn < len(t.Cards) && t.Cards[t.turn].Locked() {
		t.turn++
	}
	return nil
}

// Ready reports that every card has been locked.
func (t *Table) Ready() bool { return t.turn == len(t.Cards) }

// Shuffle permutes the seats uniformly and renumbers them. Roles and words
// stay attached to their cards.
func (t *Table) Shuffle(rng Rand) error {
	for _, c := range t.Cards {
		if c.State != CardHidden {
			return ErrRoundStarted
		}
	}
	for i := len(t.Cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		t.Cards[i], t.Cards[j] = t.Cards[j], t.Cards[i]
	}
	for i := range t.Cards {
		t.Cards[i].Number = i + 1
	}
	return nil
}

// Seat is one player's own card in a multiplayer room. The turn pointer is
// read from the latest room snapshot rather than tracked locally.
type Seat struct {
	Card Card
}

// NewSeat builds the seat for playerID from a playing room.
func NewSeat(room *Room, playerID string) (*Seat, error) {
	d, err := room.Card(playerID)
	if err != nil {
		return nil, err
	}
	s := &Seat{Card: Card{Number: room.assignmentIndex(playerID) + 1, PlayerID: d.PlayerID, Role: d.Role, Word: d.Word}}
	s.Sync(room)
	return s, nil
}

func (s *Seat) Reveal(room *Room) error {
	switch s.Card.State {
	case CardLocked:
		return ErrCardLocked
	case CardRevealed:
		return nil
	}
	if room.Settings.TurnMode == TurnSequential {
		if id, ok := room.TurnPlayerID(); !ok || id != s.Card.PlayerID {
			return ErrNotYourTurn
		}
	}
	s.Card.State = CardRevealed
	return nil
}

// Confirm locks the seat locally. The caller must then record the
// confirmation on the room so the shared turn pointer advances.
func (s *Seat) Confirm() error {
	switch s.Card.State {
	case CardLocked:
		return ErrCardLocked
	case CardHidden:
		return ErrCardHidden
	}
	s.Card.State = CardLocked
	return nil
}

// Sync catches the seat up with what the room records, e.g. after a reload
// on another device.
func (s *Seat) Sync(room *Room) {
	i := room.assignmentIndex(s.Card.PlayerID)
	switch {
	case i < 0:
	case room.Assignments[i].Viewed:
		s.Card.State = CardLocked
	case room.Assignments[i].Revealed && s.Card.State == CardHidden:
		s.Card.State = CardRevealed
	}
}
