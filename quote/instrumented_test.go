package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/viktsys/stockfolio/models"
)

type recordedQuote struct{ source, outcome string }

type recorder struct{ got []recordedQuote }

func (r *recorder) RecordQuote(source, outcome string) {
	r.got = append(r.got, recordedQuote{source, outcome})
}

type stubProvider struct{ err error }

func (s stubProvider) Info(context.Context, string) (Info, error) { return Info{}, s.err }

func (s stubProvider) History(context.Context, string, Period) ([]models.PricePoint, error) {
	return nil, s.err
}

func TestInstrumentedOutcomes(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: "ok"},
		{err: ErrNotFound, want: "not_found"},
		{err: errors.New("boom"), want: "error"},
	}

	for _, tt := range tests {
		rec := &recorder{}
		p := NewInstrumented(stubProvider{err: tt.err}, "yahoo", rec)

		_, _ = p.Info(context.Background(), "AAPL")
		_, _ = p.History(context.Background(), "AAPL", OneMonth)

		if len(rec.got) != 2 {
			t.Fatalf("Expected 2 recorded lookups, got %d", len(rec.got))
		}
		for _, r := range rec.got {
			if r.source != "yahoo" || r.outcome != tt.want {
				t.Errorf("Expected yahoo/%s, got %s/%s", tt.want, r.source, r.outcome)
			}
		}
	}
}
