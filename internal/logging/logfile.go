package logging

import (
	"io"
	"log"
	"os"
)

// SetupLogFile tees the standard logger to stderr and a local debug file.
// Returns the opened file so the caller can close it on shutdown; a failure
// to open the file leaves stderr-only logging in place.
func SetupLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}
