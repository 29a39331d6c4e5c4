package util

import "os"

// IsVerbose reports whether verbose logging is enabled via DECK_VERBOSE.
// Read per call so tests can flip it with t.Setenv.
func IsVerbose() bool {
	switch os.Getenv("DECK_VERBOSE") {
	case "1", "true", "yes":
		return true
	}
	return false
}
