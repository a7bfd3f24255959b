package quote

import (
	"context"
	"errors"

	"github.com/viktsys/stockfolio/models"
)

// Recorder counts provider lookups.
type Recorder interface {
	RecordQuote(source, outcome string)
}

// Instrumented reports the outcome of every lookup made through next.
type Instrumented struct {
	next     Provider
	source   string
	recorder Recorder
}

func NewInstrumented(next Provider, source string, recorder Recorder) *Instrumented {
	return &Instrumented{next: next, source: source, recorder: recorder}
}

func (p *Instrumented) Info(ctx context.Context, ticker string) (Info, error) {
	info, err := p.next.Info(ctx, ticker)
	p.recorder.RecordQuote(p.source, outcome(err))
	return info, err
}

func (p *Instrumented) History(ctx context.Context, ticker string, period Period) ([]models.PricePoint, error) {
	points, err := p.next.History(ctx, ticker, period)
	p.recorder.RecordQuote(p.source, outcome(err))
	return points, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
