package room

import "github.com/mighty/server/internal/engine"

// ratingDeltas computes each seat's rating delta for a finished hand,
// grounded on the original Go handler's scoring: every seat on the winning
// side (per state.WinnerMask) gains state.Score, every other seat loses it,
// and the president's delta alone is doubled regardless of which side won.
func ratingDeltas(state engine.State) []int {
	deltas := make([]int, len(state.Hand))
	for i := range deltas {
		score := state.Score
		if state.WinnerMask&(1<<uint(i)) == 0 {
			score = -score
		}
		if i == state.President {
			score *= 2
		}
		deltas[i] = score
	}
	return deltas
}
