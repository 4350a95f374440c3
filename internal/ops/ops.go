// Package ops serves the operational HTTP endpoints next to a bot.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/promobot/core/buildinfo"
	"github.com/m3rciful/promobot/core/logger"
)

const component = "ops"

const (
	healthTimeout   = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Pinger verifies backing-store connectivity; *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Stats supplies the live numbers reported by /status. Nil funcs report zero.
type Stats struct {
	ActiveForms func() int
	QueuedSends func() int
	SendErrors  func() uint64
}

// Server exposes /healthz and /status for one bot process.
type Server struct {
	app     string
	listen  string
	db      Pinger
	stats   Stats
	started time.Time
}

// NewServer builds an ops server; it does not listen until Run.
func NewServer(app, listen string, db Pinger, stats Stats) *Server {
	return &Server{
		app:     app,
		listen:  listen,
		db:      db,
		stats:   stats,
		started: time.Now(),
	}
}

type statusResponse struct {
	App         string `json:"app"`
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Built       string `json:"built,omitempty"`
	UptimeS     int64  `json:"uptime_s"`
	ActiveForms int    `json:"active_forms"`
	QueuedSends int    `json:"queued_sends"`
	SendErrors  uint64 `json:"send_errors"`
}

// Handler builds the route tree; split out so tests can drive it directly.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			logger.Warn(r.Context(), component, "ops.health",
				slog.String("err", err.Error()),
			)
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		App:     s.app,
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
		Built:   buildinfo.Date,
		UptimeS: int64(time.Since(s.started).Seconds()),
	}
	if s.stats.ActiveForms != nil {
		resp.ActiveForms = s.stats.ActiveForms()
	}
	if s.stats.QueuedSends != nil {
		resp.QueuedSends = s.stats.QueuedSends()
	}
	if s.stats.SendErrors != nil {
		resp.SendErrors = s.stats.SendErrors()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warn(r.Context(), component, "ops.status",
			slog.String("err", err.Error()),
		)
	}
}

// Run serves until ctx is done, then drains connections. A Server built with
// an empty listen address returns immediately.
func (s *Server) Run(ctx context.Context) error {
	if s.listen == "" {
		return nil
	}

	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info(ctx, component, "ops.listen", slog.String("listen", s.listen))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
