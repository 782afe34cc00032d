package imposter

import "fmt"

// Dealt is one player's secret for a round.
type Dealt struct {
	PlayerID string `json:"playerId"`
	Role     Role   `json:"role"`
	Word     string `json:"word"`
}

// Assign deals roles for one round. imposterCount distinct positions are
// drawn uniformly without replacement; everyone else is a civilian. The
// result is in playerIDs order.
func Assign(rng Rand, playerIDs []string, imposterCount int, pair WordPair) ([]Dealt, error) {
	n := len(playerIDs)
	if imposterCount < 1 || imposterCount > n-2 {
		return nil, fmt.Errorf("%w: %d imposters need at least %d players, have %d",
			ErrInvalidConfiguration, imposterCount, imposterCount+2, n)
	}
	seen := make(map[string]struct{}, n)
	for _, id := range playerIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty player id", ErrInvalidConfiguration)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate player id %q", ErrInvalidConfiguration, id)
		}
		seen[id] = struct{}{}
	}

	imposters := pickImposters(rng, n, imposterCount)

	out := make([]Dealt, n)
	for i, id := range playerIDs {
		role := RoleCivilian
		if imposters[i] {
			role = RoleImposter
		}
		out[i] = Dealt{PlayerID: id, Role: role, Word: pair.Word(role)}
	}
	return out, nil
}

// pickImposters runs k steps of a Fisher-Yates shuffle over [0,n) and marks
// the first k positions of the permutation.
func pickImposters(rng Rand, n, k int) []bool {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	marked := make([]bool, n)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		marked[idx[i]] = true
	}
	return marked
}
