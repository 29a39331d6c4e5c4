package logging

import (
	"context"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if len(id) != 8 {
		t.Fatalf("id length = %d, want 8", len(id))
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Fatalf("empty context returned %q", got)
	}

	ctx = WithRequestID(ctx, "abc123")
	if got := GetRequestID(ctx); got != "abc123" {
		t.Fatalf("got %q, want abc123", got)
	}
}
