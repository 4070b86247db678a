package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/trueup/trueup/pkg/check"
	"github.com/trueup/trueup/pkg/common"
	"github.com/trueup/trueup/pkg/log"
	"github.com/trueup/trueup/pkg/sbu"
	"github.com/trueup/trueup/pkg/storage"
	"github.com/trueup/trueup/pkg/types"
)

const authTokenCookie = "auth_token"

type contextKey string

const userContextKey contextKey = "user"

// authUser is the authenticated identity attached to each API request.
type authUser struct {
	Email string
	Admin bool
}

// tokenVerifier is a function that validates a Google or Apple ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server handles the HTTP API for the truing-up review workflow. It
// orchestrates the check catalogue, the aggregation layer and storage.
type Server struct {
	checks    *check.Map
	catalogue *sbu.Catalogue
	storage   storage.Database

	listenAddr string
	httpServer *http.Server

	adminEmails   []string
	oidcAudiences map[string]string
	oidcVerifiers map[string]tokenVerifier
	bypassAuth    bool
	serverName    string
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(c *check.Map, cat *sbu.Catalogue, db storage.Database) *Server {
	srv := &Server{
		checks:     c,
		catalogue:  cat,
		storage:    db,
		serverName: "trueup",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	adminEmails := lflag.String("admin-emails", "", "comma-delimited list of email addresses allowed to update settings and filings")
	oidcAudience := lflag.String("oidc-audience", "", "Google client ID to validate id tokens against")
	oidcAudiences := map[string]string{}
	lflag.JSON(&oidcAudiences, "oidc-audiences", oidcAudiences, "JSON map of provider (google/apple) to audience/client ID")
	bypassAuth := lflag.Bool("bypass-auth", false, "disable authentication, development only")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *adminEmails != "" {
			srv.adminEmails = strings.Split(*adminEmails, ",")
			for i, email := range srv.adminEmails {
				srv.adminEmails[i] = strings.TrimSpace(email)
			}
		}
		if len(oidcAudiences) == 0 && *oidcAudience != "" {
			oidcAudiences["google"] = *oidcAudience
		}
		if len(oidcAudiences) > 0 {
			ctx := oidc.ClientContext(context.Background(), common.HTTPClient(10*time.Second))
			srv.oidcAudiences = make(map[string]string, len(oidcAudiences))
			srv.oidcVerifiers = make(map[string]tokenVerifier, len(oidcAudiences))
			for n, a := range oidcAudiences {
				var issuer string
				switch n {
				case "google":
					issuer = "https://accounts.google.com"
				case "apple":
					issuer = "https://appleid.apple.com"
				default:
					log.Ctx(ctx).Error("unsupported oidc audience client", slog.String("client", n))
					os.Exit(1)
				}
				provider, err := oidc.NewProvider(ctx, issuer)
				if err != nil {
					log.Ctx(ctx).Error("failed to initialize OIDC provider", slog.String("client", n), slog.Any("error", err))
					os.Exit(1)
				}
				srv.oidcVerifiers[n] = provider.Verifier(&oidc.Config{ClientID: a}).Verify
				srv.oidcAudiences[n] = a
			}
		}
		srv.bypassAuth = *bypassAuth
		if !srv.bypassAuth && len(srv.oidcAudiences) == 0 {
			log.Ctx(context.Background()).Error("no oidc audiences configured, pass -bypass-auth to run without authentication")
			os.Exit(1)
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/assess", s.handleAssess)
	apiMux.HandleFunc("GET /api/findings", s.handleListFindings)
	apiMux.HandleFunc("GET /api/findings/{checkID}", s.handleGetFinding)
	apiMux.HandleFunc("POST /api/review", s.handleReview)
	apiMux.HandleFunc("GET /api/reviews", s.handleListReviews)
	apiMux.HandleFunc("GET /api/summary", s.handleSummary)
	apiMux.HandleFunc("GET /api/arr", s.handleARR)
	apiMux.HandleFunc("GET /api/pending", s.handlePending)
	apiMux.HandleFunc("GET /api/flags", s.handleFlags)
	apiMux.HandleFunc("GET /api/export", s.handleExport)
	apiMux.HandleFunc("GET /api/filing", s.handleGetFiling)
	apiMux.HandleFunc("POST /api/filing", s.handleSetFiling)
	apiMux.HandleFunc("GET /api/settings", s.handleGetSettings)
	apiMux.HandleFunc("POST /api/settings", s.handleUpdateSettings)
	apiMux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)
	apiMux.HandleFunc("POST /api/auth/login", s.handleLogin)
	apiMux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

func (s *Server) getUser(r *http.Request) authUser {
	if user, ok := r.Context().Value(userContextKey).(authUser); ok {
		return user
	}
	return authUser{}
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}

// isAdmin returns true if the user's email is in the adminEmails list.
func (s *Server) isAdmin(user authUser) bool {
	if user.Admin {
		return true
	}
	for _, adminEmail := range s.adminEmails {
		if user.Email == adminEmail {
			return true
		}
	}
	return false
}

var errMissingParams = errors.New("sbu and year are required")

// filingParams extracts the sbu and year query parameters.
func filingParams(r *http.Request) (string, string, error) {
	sbu := r.URL.Query().Get("sbu")
	year := r.URL.Query().Get("year")
	if sbu == "" || year == "" {
		return "", "", errMissingParams
	}
	return sbu, year, nil
}

// assessor builds the aggregation layer with the reconciliation
// tolerances from settings.
func (s *Server) assessor(settings types.Settings) *sbu.Assessor {
	check.SetDefaultBands(settings.GreenVariancePct, settings.YellowVariancePct)
	a := sbu.NewAssessor(s.checks, s.catalogue)
	a.SetTolerances(settings.RoundingTolerance, settings.RoundingWarn)
	return a
}
