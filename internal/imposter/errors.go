package imposter

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid game configuration")
	ErrInvalidSettings      = errors.New("invalid room settings")
	ErrInvalidName          = errors.New("invalid player name")
	ErrInvalidRoomCode      = errors.New("invalid room code")

	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrNameTaken            = errors.New("name already taken")
	ErrGameAlreadyStarted   = errors.New("game already started")
	ErrGameNotStarted       = errors.New("game not started")
	ErrNotHost              = errors.New("not the host")
	ErrNotMember            = errors.New("not a member of this room")
	ErrNotEnoughPlayers     = errors.New("not enough players")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrCodeGenerationFailed = errors.New("room code generation failed")

	ErrNotYourTurn  = errors.New("not your turn")
	ErrCardLocked   = errors.New("card already confirmed")
	ErrCardHidden   = errors.New("card not revealed")
	ErrRoundStarted = errors.New("round already started")
	ErrUnknownCard  = errors.New("no such card")
)
