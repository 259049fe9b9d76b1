// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
}

func TestSessionIDRoundTrip(t *testing.T) {
	ctx := ContextWithSessionID(context.Background(), "sess-456")
	if got := SessionIDFromContext(ctx); got != "sess-456" {
		t.Errorf("expected sess-456, got %q", got)
	}
}

func TestMissingIDsAreEmpty(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
	if got := SessionIDFromContext(ctx); got != "" {
		t.Errorf("expected empty session id, got %q", got)
	}
	if got := RequestIDFromContext(nil); got != "" { //nolint:staticcheck // nil ctx tolerated
		t.Errorf("expected empty request id for nil ctx, got %q", got)
	}
}

func TestWithComponentFromContextCarriesIDs(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")

	// Must not panic and must produce a usable logger.
	logger := WithComponentFromContext(ctx, "test")
	logger.Debug().Msg("smoke")
}
