package session

import "github.com/tbxark/eventagent/types"

type Trimmer interface {
	Trim(history []types.Turn) []types.Turn
}

// KeepLastNTrimmer keeps the last N turns. N <= 0 keeps everything.
type KeepLastNTrimmer struct {
	N int
}

func (t KeepLastNTrimmer) Trim(history []types.Turn) []types.Turn {
	if t.N <= 0 || len(history) <= t.N {
		return history
	}
	return history[len(history)-t.N:]
}

// AppendTurns appends turns to history, skipping empty content and a turn
// identical to the one before it.
func AppendTurns(history []types.Turn, turns ...types.Turn) []types.Turn {
	out := history
	for _, turn := range turns {
		if turn.Content == "" {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.Role == turn.Role && last.Content == turn.Content && last.Timestamp.Equal(turn.Timestamp) {
				continue
			}
		}
		out = append(out, turn)
	}
	return out
}
