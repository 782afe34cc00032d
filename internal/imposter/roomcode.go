package imposter

import "strings"

// CodeAlphabet omits I, O, 0 and 1, which are easy to confuse when read aloud.
const (
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 6
)

func NewRoomCode(rng Rand) string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = CodeAlphabet[rng.IntN(len(CodeAlphabet))]
	}
	return string(b)
}

// NormalizeCode upper-cases and trims user input and checks it against the
// code format.
func NormalizeCode(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != CodeLength {
		return "", ErrInvalidRoomCode
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return "", ErrInvalidRoomCode
		}
	}
	return code, nil
}

const (
	minNameLen = 2
	maxNameLen = 24
)

// NormalizeName trims a player name and enforces its length.
func NormalizeName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if n := len([]rune(name)); n < minNameLen || n > maxNameLen {
		return "", ErrInvalidName
	}
	return name, nil
}
