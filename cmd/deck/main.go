package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/pxjin/opencode-deck/internal/auth/anthropic"
	"github.com/pxjin/opencode-deck/internal/config"
	"github.com/pxjin/opencode-deck/internal/db"
	"github.com/pxjin/opencode-deck/internal/logging"
	"github.com/pxjin/opencode-deck/internal/opencode"
	"github.com/pxjin/opencode-deck/internal/relay/handlers"
	"github.com/pxjin/opencode-deck/internal/relay/middleware"
	"github.com/pxjin/opencode-deck/internal/relay/monitor"
)

func main() {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	cfg, err := config.Load("deck.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.SetupLogFile(cfg.LogFile)
	if err != nil {
		log.Printf("⚠️ Debug log file unavailable (%v), logging to stderr only", err)
	} else if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bind before spawning the child so a taken port fails fast without
	// leaving an orphaned opencode process behind.
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		log.Fatalf("Failed to bind %s: %v", cfg.Addr(), err)
	}

	// Boot (or attach to) the OpenCode server
	ocServer := opencode.NewServer(cfg.OpenCode.Command, cfg.OpenCode.Hostname, cfg.OpenCode.Port)
	baseURL := cfg.OpenCodeURL()
	if cfg.AutostartEnabled() {
		switch err := ocServer.Start(ctx); {
		case err == nil:
			baseURL = ocServer.URL()
			defer ocServer.Stop()
		case errors.Is(err, opencode.ErrNotInstalled):
			log.Printf("⚠️ opencode binary not found, attaching to %s", baseURL)
		default:
			log.Fatalf("Failed to start OpenCode server: %v", err)
		}
	} else {
		log.Printf("🔗 Attaching to external OpenCode server at %s", baseURL)
	}

	ocClient := opencode.NewClient(baseURL)
	exchanger := anthropic.NewExchanger()
	mon := monitor.New(database)

	// Create router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Dashboard
	r.Get("/", handlers.DashboardHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS)
		r.Use(middleware.RequestID)

		// Liveness echo
		r.Get("/hello", handlers.HelloHandler())
		r.Get("/hello/{name}", handlers.HelloHandler())

		// Upstream connectivity probe
		r.Get("/test/opencode", handlers.OpenCodeTestHandler(ocClient))

		// Anthropic OAuth/PKCE exchange (server-side to dodge CORS)
		r.Route("/anthropic/oauth", func(r chi.Router) {
			r.Get("/authorize", handlers.OAuthAuthorizeHandler())
			r.Post("/token", handlers.OAuthTokenHandler(exchanger, ocClient))
			r.Post("/api-key", handlers.OAuthAPIKeyHandler(exchanger, ocClient))
		})

		// OpenCode relay: typed routes first, catch-all last
		r.Get("/opencode/events", handlers.EventsHandler(ocClient))
		r.Get("/opencode/providers/summary", handlers.ProvidersSummaryHandler(ocClient))
		r.Get("/opencode/session", handlers.SessionsListHandler(ocClient, mon))
		r.Post("/opencode/session", handlers.SessionCreateHandler(ocClient, mon))
		r.Get("/opencode/session/{id}/message", handlers.MessagesHandler(ocClient, mon))
		r.Post("/opencode/session/{id}/message", handlers.SendMessageHandler(ocClient, mon))
		r.Put("/opencode/auth/{id}", handlers.AuthPutHandler(ocClient))
		r.Delete("/opencode/auth/{id}", handlers.AuthDeleteHandler(ocClient))
		r.HandleFunc("/opencode/*", handlers.ProxyHandler(ocClient, mon))

		// Relay traffic monitor
		r.Route("/monitor", func(r chi.Router) {
			r.Get("/logs", handlers.MonitorLogsHandler(mon))
			r.Get("/stats", handlers.MonitorStatsHandler(mon))
			r.Post("/toggle", handlers.MonitorToggleHandler(mon))
			r.Post("/clear", handlers.MonitorClearHandler(mon))
		})
	})

	srv := &http.Server{Handler: r}

	go func() {
		log.Printf("🚀 OpenCode Deck starting on http://%s", cfg.Addr())
		log.Printf("📊 Dashboard: http://localhost:%s", cfg.Port)
		log.Printf("🔌 OpenCode upstream: %s", baseURL)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Fatalf skips deferred cleanup, so reap the child here.
			ocServer.Stop()
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("👋 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
