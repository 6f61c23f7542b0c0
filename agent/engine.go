package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tbxark/eventagent/internal/metrics"
	"github.com/tbxark/eventagent/session"
	"github.com/tbxark/eventagent/types"
	"go.uber.org/zap"
)

// ErrInvalidSessionReference is returned when a session cannot be loaded so
// the caller can start a new one.
var ErrInvalidSessionReference = errors.New("invalid session reference")

// Engine runs turns against stored sessions: load, process, save. Turns on
// the same session are serialized.
type Engine struct {
	flow    *Flow
	store   *session.Store
	locker  *session.Locker
	trimmer session.Trimmer
	sweeper session.Sweeper
	logger  *zap.Logger
	now     func() time.Time
}

type EngineOption func(*Engine)

// WithHistoryLimit bounds how many past turns are handed to the oracle.
func WithHistoryLimit(n int) EngineOption {
	return func(e *Engine) {
		e.trimmer = session.KeepLastNTrimmer{N: n}
	}
}

// WithSweeper sets the cache Sweep drops expired sessions from.
func WithSweeper(s session.Sweeper) EngineOption {
	return func(e *Engine) {
		e.sweeper = s
	}
}

func WithEngineLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(flow *Flow, store *session.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		flow:    flow,
		store:   store,
		locker:  session.NewLocker(),
		trimmer: session.KeepLastNTrimmer{N: 20},
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Start(ctx context.Context) (*session.Session, error) {
	sess, err := e.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SessionsStarted.Inc()
	e.logger.Info("session started", zap.String("session_id", sess.ID))
	return sess, nil
}

// Get loads a session without changing it.
func (e *Engine) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, e.wrapLoadErr(id, err)
	}
	return sess, nil
}

func (e *Engine) End(ctx context.Context, id string) error {
	unlock := e.locker.Lock(id)
	defer unlock()
	if err := e.store.Delete(ctx, id); err != nil {
		return e.wrapLoadErr(id, err)
	}
	metrics.SessionsEnded.WithLabelValues("ended").Inc()
	e.logger.Info("session ended", zap.String("session_id", id))
	return nil
}

// Sweep drops expired sessions and returns how many were removed. Without a
// sweeper it does nothing; stores such as Redis expire sessions on their own.
func (e *Engine) Sweep() int {
	if e.sweeper == nil {
		return 0
	}
	n := e.sweeper.Sweep()
	if n > 0 {
		metrics.SessionsEnded.WithLabelValues("expired").Add(float64(n))
		e.logger.Debug("expired sessions removed", zap.Int("count", n))
	}
	return n
}

// Turn processes one user message for session id and persists the result.
func (e *Engine) Turn(ctx context.Context, id, message string) (*Output, error) {
	unlock := e.locker.Lock(id)
	defer unlock()

	sess, err := e.store.Load(ctx, id)
	if err != nil {
		err = e.wrapLoadErr(id, err)
		if errors.Is(err, ErrInvalidSessionReference) {
			metrics.TurnsTotal.WithLabelValues("invalid_session").Inc()
		} else {
			metrics.TurnsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	userTurn := types.Turn{Role: types.RoleUser, Content: message, Timestamp: e.now()}
	out, err := e.flow.Process(ctx, &Input{
		Message: message,
		Params:  sess.Params,
		History: e.trimmer.Trim(sess.History),
		Phase:   sess.Phase,
	})
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("process turn for session %s: %w", id, err)
	}

	sess.Params = out.Params
	sess.Phase = out.Phase
	sess.History = session.AppendTurns(sess.History,
		userTurn,
		types.Turn{Role: types.RoleAssistant, Content: out.Response, Timestamp: e.now()},
	)
	if err := e.store.Save(ctx, sess); err != nil {
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.TurnsTotal.WithLabelValues(out.outcome()).Inc()
	return out, nil
}

func (e *Engine) wrapLoadErr(id string, err error) error {
	if errors.Is(err, session.ErrNotFound) {
		e.logger.Info("unknown session", zap.String("session_id", id))
		return fmt.Errorf("%w: %s", ErrInvalidSessionReference, id)
	}
	return err
}
