package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/eventagent/types"
)

// ErrEmptyExtraction is returned by oracles whose reply held nothing that
// could be read as a key/value mapping.
var ErrEmptyExtraction = errors.New("oracle returned no parseable extraction")

// Oracle proposes raw parameter values for the latest message. Its output is
// untrusted: keys may be unknown and values may be free text.
type Oracle interface {
	Extract(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error)

func (f OracleFunc) Extract(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error) {
	return f(ctx, req)
}

// FailbackOracle tries each oracle in order and returns the first success.
type FailbackOracle struct {
	oracles []Oracle
}

func NewFailbackOracle(oracles ...Oracle) *FailbackOracle {
	return &FailbackOracle{oracles: oracles}
}

func (o *FailbackOracle) Extract(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error) {
	lastErr := errors.New("no oracles configured")
	for _, oracle := range o.oracles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := oracle.Extract(ctx, req)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all extraction oracles failed: %w", lastErr)
}
