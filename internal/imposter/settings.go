package imposter

import "fmt"

const (
	MinPlayers    = 3
	MaxPlayers    = 20
	MaxImposters  = 3
	MinQuirkiness = 1
	MaxQuirkiness = 5
)

// Settings enumerates the options a host can negotiate for a room.
type Settings struct {
	PlayerCount   int      `json:"playerCount"`
	ImposterCount int      `json:"imposterCount"`
	Category      string   `json:"category"`
	TurnMode      TurnMode `json:"turnMode"`
	ImagesEnabled bool     `json:"imagesEnabled"`
	Quirkiness    int      `json:"quirkiness"`
}

func DefaultSettings() Settings {
	return Settings{
		PlayerCount:   6,
		ImposterCount: 1,
		Category:      "animals",
		TurnMode:      TurnSequential,
		ImagesEnabled: true,
		Quirkiness:    3,
	}
}

// MaxImpostersFor is the largest imposter count allowed for n players.
func MaxImpostersFor(n int) int {
	return min(MaxImposters, n-2)
}

func (s Settings) Validate() error {
	switch {
	case s.PlayerCount < MinPlayers || s.PlayerCount > MaxPlayers:
		return fmt.Errorf("%w: playerCount must be between %d and %d", ErrInvalidSettings, MinPlayers, MaxPlayers)
	case s.ImposterCount < 1 || s.ImposterCount > MaxImpostersFor(s.PlayerCount):
		return fmt.Errorf("%w: imposterCount must be between 1 and %d", ErrInvalidSettings, MaxImpostersFor(s.PlayerCount))
	case !IsCategory(s.Category):
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSettings, s.Category)
	case s.TurnMode != TurnSequential && s.TurnMode != TurnFree:
		return fmt.Errorf("%w: turnMode must be %q or %q", ErrInvalidSettings, TurnSequential, TurnFree)
	case s.Quirkiness < MinQuirkiness || s.Quirkiness > MaxQuirkiness:
		return fmt.Errorf("%w: quirkiness must be between %d and %d", ErrInvalidSettings, MinQuirkiness, MaxQuirkiness)
	}
	return nil
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	PlayerCount   *int      `json:"playerCount,omitempty"`
	ImposterCount *int      `json:"imposterCount,omitempty"`
	Category      *string   `json:"category,omitempty"`
	TurnMode      *TurnMode `json:"turnMode,omitempty"`
	ImagesEnabled *bool     `json:"imagesEnabled,omitempty"`
	Quirkiness    *int      `json:"quirkiness,omitempty"`
}

// Apply merges p into s and validates the result.
func (p SettingsPatch) Apply(s Settings) (Settings, error) {
	if p.PlayerCount != nil {
		s.PlayerCount = *p.PlayerCount
	}
	if p.ImposterCount != nil {
		s.ImposterCount = *p.ImposterCount
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.TurnMode != nil {
		s.TurnMode = *p.TurnMode
	}
	if p.ImagesEnabled != nil {
		s.ImagesEnabled = *p.ImagesEnabled
	}
	if p.Quirkiness != nil {
		s.Quirkiness = *p.Quirkiness
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
