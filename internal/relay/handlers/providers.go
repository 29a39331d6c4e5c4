package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pxjin/opencode-deck/internal/opencode"
)

// ProvidersSummaryHandler handles /api/opencode/providers/summary.
// It folds the upstream provider list into authenticated/unauthenticated
// counts so the dashboard renders numbers the server computed.
func ProvidersSummaryHandler(client *opencode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := client.Providers(r.Context())
		if err != nil {
			if errors.Is(err, opencode.ErrUpstreamDown) {
				writeUpstreamDown(w)
				return
			}
			log.Printf("⚠️ Provider summary failed: %v", err)
			writeError(w, http.StatusBadGateway, "upstream_rejected", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, opencode.Summarize(providers))
	}
}
