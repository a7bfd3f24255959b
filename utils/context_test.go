package utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "rq-123")
	if got := GetRequestIDFromCtx(ctx); got != "rq-123" {
		t.Errorf("Expected rq-123, got %s", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	rqID := GetRequestIDFromCtx(ctx)
	if _, err := uuid.Parse(rqID); err != nil {
		t.Errorf("Expected generated uuid, got %q: %v", rqID, err)
	}
}

func TestRequestIDMissing(t *testing.T) {
	if got := GetRequestIDFromCtx(context.Background()); got != "" {
		t.Errorf("Expected empty request id, got %q", got)
	}
}
