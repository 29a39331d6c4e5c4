package opencode

import (
	"context"
	"errors"
	"testing"
)

func TestServerStart_NotInstalled(t *testing.T) {
	s := NewServer("definitely-not-a-real-binary-deck", "127.0.0.1", "4096")
	if err := s.Start(context.Background()); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
}

func TestServerStop_NoopWhenNeverStarted(t *testing.T) {
	// Stop must be safe to call unconditionally, including from cleanup
	// paths that run whether or not a child was ever spawned.
	s := NewServer("opencode", "127.0.0.1", "4096")
	s.Stop()
	s.Stop()
}

func TestServerURL(t *testing.T) {
	s := NewServer("opencode", "10.0.0.5", "5000")
	if got := s.URL(); got != "http://10.0.0.5:5000" {
		t.Fatalf("url = %q", got)
	}
}
