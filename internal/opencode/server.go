package opencode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"
)

// ErrNotInstalled means the opencode binary is not on PATH. Callers fall
// back to attaching to an externally managed server.
var ErrNotInstalled = errors.New("opencode binary not found")

// Server manages an embedded OpenCode server child process.
type Server struct {
	command  string
	hostname string
	port     string
	cmd      *exec.Cmd
}

// NewServer prepares (but does not start) an embedded OpenCode server.
func NewServer(command, hostname, port string) *Server {
	return &Server{command: command, hostname: hostname, port: port}
}

// URL returns the base URL the embedded server listens on.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s:%s", s.hostname, s.port)
}

// Start launches `opencode serve` and waits until the HTTP API answers.
func (s *Server) Start(ctx context.Context) error {
	path, err := exec.LookPath(s.command)
	if err != nil {
		return ErrNotInstalled
	}

	cmd := exec.Command(path, "serve", "--hostname", s.hostname, "--port", s.port)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start opencode: %w", err)
	}
	s.cmd = cmd

	log.Printf("🚀 Started embedded OpenCode server (pid %d) on %s", cmd.Process.Pid, s.URL())

	if err := s.waitReady(ctx, 20*time.Second); err != nil {
		s.Stop()
		return err
	}
	return nil
}

// waitReady polls /config/providers until the server answers or the
// deadline passes.
func (s *Server) waitReady(ctx context.Context, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL()+"/config/providers", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			log.Printf("✅ OpenCode server ready on %s", s.URL())
			return nil
		}
	}
	return fmt.Errorf("opencode server did not become ready within %s", timeout)
}

// Stop terminates the embedded server if deck started one.
func (s *Server) Stop() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	if err := s.cmd.Process.Kill(); err != nil {
		log.Printf("⚠️ Failed to stop OpenCode server: %v", err)
		return
	}
	_ = s.cmd.Wait()
	log.Printf("🛑 Stopped embedded OpenCode server")
	s.cmd = nil
}
