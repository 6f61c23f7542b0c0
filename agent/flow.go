package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/dialogue"
	"github.com/tbxark/eventagent/extract"
	"github.com/tbxark/eventagent/internal/metrics"
	"github.com/tbxark/eventagent/merge"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/planner"
	"github.com/tbxark/eventagent/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrOracleUnavailable = errors.New("extraction oracle unavailable")

const (
	tracerName           = "github.com/tbxark/eventagent/agent"
	defaultOracleTimeout = 15 * time.Second
)

// Flow computes one conversational turn over explicit state. It holds no
// per-session data and is safe for concurrent use.
type Flow struct {
	cat       *catalog.Registry
	oracle    extract.Oracle
	merger    *merge.Merger
	planner   *planner.Planner
	responder dialogue.Responder
	timeout   time.Duration
	logger    *zap.Logger
}

type FlowOption func(*Flow)

func WithLogger(logger *zap.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithOracleTimeout bounds each extraction call. Zero disables the bound.
func WithOracleTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		f.timeout = d
	}
}

// WithResponder sets the responder tried before the built-in templates.
func WithResponder(r dialogue.Responder) FlowOption {
	return func(f *Flow) {
		if r != nil {
			f.responder = r
		}
	}
}

func NewFlow(oracle extract.Oracle, merger *merge.Merger, plan *planner.Planner, cat *catalog.Registry, opts ...FlowOption) (*Flow, error) {
	if oracle == nil {
		return nil, errors.New("oracle is required")
	}
	if merger == nil || plan == nil || cat == nil {
		return nil, errors.New("merger, planner and catalog are required")
	}
	f := &Flow{
		cat:     cat,
		oracle:  oracle,
		merger:  merger,
		planner: plan,
		timeout: defaultOracleTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	local := dialogue.NewLocalResponder(cat)
	if f.responder == nil {
		f.responder = local
	} else {
		f.responder = dialogue.NewFailbackResponder(f.responder, local)
	}
	return f, nil
}

// Process runs extract, merge, plan and respond for one user message. Oracle
// failures are recovered: the parameters stay as they were and the pending
// question is asked again.
func (f *Flow) Process(ctx context.Context, in *Input) (*Output, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agent.Flow.Process",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("eventagent.phase.before", string(in.Phase))),
	)
	defer span.End()

	params := in.Params.Clone()
	phase := in.Phase
	if phase == "" {
		phase = types.PhaseCollecting
	}

	// The question outstanding before this turn tells the oracle what a bare
	// answer refers to.
	missing := f.planner.Missing(params)
	req := &types.ExtractionRequest{
		Message:  in.Message,
		Existing: params.Clone(),
		History:  in.History,
		Missing:  f.cat.Fields(missing),
		Allowed:  f.cat.Allowed(),
	}
	if phase != types.PhaseReady && len(missing) > 0 {
		if q, ok := f.planner.Question(missing[0]); ok {
			req.Question = &q
		}
	}

	out := &Output{Params: params}
	raw, err := f.extract(ctx, req)
	if err != nil {
		out.OracleFailed = true
		metrics.OracleFailures.Inc()
		f.logger.Warn("extraction skipped for this turn", zap.Error(err))
		span.RecordError(err)
	} else {
		res, mErr := f.merger.Merge(params, raw, normalize.Context{Message: in.Message, History: in.History})
		if mErr != nil {
			span.SetStatus(codes.Error, mErr.Error())
			return nil, fmt.Errorf("merge extraction: %w", mErr)
		}
		out.Params = res.Set
		out.Applied = res.Applied
		out.Rejected = res.Rejected
		out.Changes = res.Ops
	}

	decision, err := f.planner.Next(out.Params, phase)
	if err != nil {
		if !errors.Is(err, planner.ErrConfigurationFault) {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out.ConfigurationFault = true
		span.RecordError(err)
	}
	out.Decision = decision
	out.Phase = decision.Phase
	out.ReadyToGenerate = decision.Ready()
	out.NeedsClarification = !decision.Ready()
	out.Question = decision.Question

	plan, err := f.responder.Respond(ctx, &dialogue.Request{
		Phase:         out.Phase,
		Params:        out.Params,
		Applied:       out.Applied,
		Question:      out.Question,
		OracleFailed:  out.OracleFailed,
		LastUserInput: in.Message,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("generate response: %w", err)
	}
	out.Response = plan.Message

	span.SetAttributes(
		attribute.String("eventagent.phase", string(out.Phase)),
		attribute.Int("eventagent.applied", len(out.Applied)),
		attribute.Int("eventagent.rejected", len(out.Rejected)),
		attribute.Bool("eventagent.oracle_failed", out.OracleFailed),
	)
	f.logger.Debug("turn processed",
		zap.String("phase", string(out.Phase)),
		zap.Int("applied", len(out.Applied)),
		zap.Int("rejected", len(out.Rejected)),
		zap.Bool("oracle_failed", out.OracleFailed),
	)
	return out, nil
}

func (f *Flow) extract(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "agent.Flow.extract", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := f.oracle.Extract(ctx, req)
	metrics.OracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	return raw, nil
}
