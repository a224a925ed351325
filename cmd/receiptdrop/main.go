package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/receiptdrop/receiptdrop/internal/auth/google"
	"github.com/receiptdrop/receiptdrop/internal/auth/session"
	"github.com/receiptdrop/receiptdrop/internal/auth/token"
	"github.com/receiptdrop/receiptdrop/internal/config"
	"github.com/receiptdrop/receiptdrop/internal/db"
	"github.com/receiptdrop/receiptdrop/internal/extract"
	"github.com/receiptdrop/receiptdrop/internal/ledger"
	"github.com/receiptdrop/receiptdrop/internal/version"
	"github.com/receiptdrop/receiptdrop/internal/web/handlers"
	"github.com/receiptdrop/receiptdrop/internal/web/middleware"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	settings, err := extract.LoadSettings(cfg.ExtractionFile)
	if err != nil {
		log.Fatalf("Failed to load extraction settings: %v", err)
	}
	extractor := extract.NewClient(cfg.GeminiAPIKey, settings)

	oauthCfg := google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	sessions := session.NewStore(cfg.SessionSecret, cfg.Production())
	tokens := token.NewManager(oauthCfg)

	services := func(ctx context.Context, accessToken string) (*drive.Service, *sheets.Service, error) {
		return ledger.NewServices(ctx, accessToken)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Get("/login", handlers.LoginPageHandler())
	r.Get("/logout", google.HandleLogout(sessions))
	r.Get("/auth/google/login", google.HandleLogin(oauthCfg))
	r.Get("/auth/google/callback", google.HandleCallback(oauthCfg, sessions))

	// Browser routes (session required, redirect to login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions, tokens, false))
		r.Get("/", handlers.IndexHandler())
	})

	// API routes (session required, 401 on failure)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions, tokens, true))
		r.Post("/scan", handlers.ScanHandler(extractor))
		r.Post("/save", handlers.SaveHandler(database, services))
		r.Get("/history", handlers.HistoryHandler(database))
	})

	log.Printf("🧾 Reimbursement Assistant %s starting on http://%s", version.Version, cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
