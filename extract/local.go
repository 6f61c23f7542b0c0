package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/types"
)

var (
	guestCue = regexp.MustCompile(`(?i)(?:\d+|dozen|hundred|twenty|thirty|forty|fifty|sixty|seventy|eighty|ninety)\s*\+?\s*(?:people|persons|guests|attendees|pax|heads|of us)\b|\bparty of\s+\d+`)
	budgetCue = regexp.MustCompile(`(?i)\$\s*\d|\d\s*(?:k|grand|thousand|dollars|bucks|usd)\b|\bbudget\b[^.?!]*\d`)
	bareCount = regexp.MustCompile(`(?i)^\W*(?:about|around|roughly|maybe|approximately|~)?\s*[\d,]+\s*\+?\W*$`)
	hasDigit  = regexp.MustCompile(`\d`)
)

// LocalOracle is a deterministic keyword extractor. It needs no network and
// serves as the last link of a failback chain.
type LocalOracle struct {
	cat  *catalog.Registry
	norm *normalize.Normalizer
}

func NewLocalOracle(norm *normalize.Normalizer) *LocalOracle {
	return &LocalOracle{cat: norm.Catalog(), norm: norm}
}

func (o *LocalOracle) Extract(ctx context.Context, req *types.ExtractionRequest) (types.RawExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := types.RawExtraction{}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return out, nil
	}
	if key, label, ok := selectedOption(req.Question, msg); ok {
		out[string(key)] = label
		return out, nil
	}

	nctx := normalize.Context{Message: req.Message, History: req.History}
	for _, k := range o.cat.Keys() {
		if _, isRange := o.cat.Range(k); isRange {
			continue
		}
		if k == types.KeyBudgetRange {
			continue
		}
		if _, ok := o.norm.Normalize(k, msg, nctx); ok {
			out[string(k)] = msg
		}
	}
	if guestCue.MatchString(msg) {
		out[string(types.KeyGuestCount)] = msg
	}
	if budgetCue.MatchString(msg) {
		out[string(types.KeyBudgetRange)] = msg
	}

	// A bare answer to the pending question is attributed to its key.
	if q := req.Question; q != nil {
		if _, done := out[string(q.Key)]; !done {
			switch q.Key {
			case types.KeyGuestCount:
				if bareCount.MatchString(msg) {
					out[string(q.Key)] = msg
				}
			case types.KeyBudgetRange:
				if hasDigit.MatchString(msg) && !guestCue.MatchString(msg) {
					out[string(q.Key)] = msg
				}
			}
		}
	}
	return out, nil
}

// selectedOption matches a message that is exactly one of the pending
// question's options, either its label or its value.
func selectedOption(q *types.ClarificationQuestion, msg string) (types.Key, string, bool) {
	if q == nil {
		return "", "", false
	}
	folded := catalog.Fold(msg)
	for _, opt := range q.Options {
		if catalog.Fold(opt.Label) == folded || catalog.Fold(opt.Value) == folded {
			return q.Key, opt.Label, true
		}
	}
	return "", "", false
}
