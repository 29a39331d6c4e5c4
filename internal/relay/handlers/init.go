package handlers

import (
	"strings"

	"github.com/pxjin/opencode-deck/internal/version"
)

func init() {
	dashboardHTML = strings.ReplaceAll(dashboardHTML, "{{VERSION}}", version.Version)
}
