package session

import (
	"time"

	"github.com/tbxark/eventagent/types"
)

// Session is the persisted state of one planning conversation.
type Session struct {
	ID        string             `json:"id"`
	Params    types.ParameterSet `json:"params"`
	Phase     types.Phase        `json:"phase"`
	History   []types.Turn       `json:"history"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Params:    types.ParameterSet{},
		Phase:     types.PhaseCollecting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares nothing mutable with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Params = s.Params.Clone()
	out.History = append([]types.Turn(nil), s.History...)
	return &out
}
