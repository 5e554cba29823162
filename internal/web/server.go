// Package web serves the dashboard page, SSE update streams and the JSON control API.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/session"
	"github.com/vadiminshakov/helios/internal/widget"
)

const (
	snapshotPollInterval = 3 * time.Second
	widgetPollInterval   = time.Second
	heartbeatInterval    = 20 * time.Second
)

type balanceSnapshotReader interface {
	SnapshotsAfter(index uint64) ([]domain.BalanceSnapshotRecord, error)
}

type widgetFeed interface {
	UpdatesAfter(index uint64) []domain.WidgetUpdateRecord
	Latest() []domain.WidgetState
	LatestOf(kind domain.MetricKind) (domain.WidgetState, bool)
	CurrentIndex() uint64
}

type boardControl interface {
	SetPeriod(kind domain.MetricKind, p domain.Period) error
	SetView(kind domain.MetricKind, v domain.ExposureView) error
	Widgets() []*widget.Widget
}

type sessionControl interface {
	Account() domain.Account
	DocumentsCompleted() bool
	CompleteDocuments()
	RecordFunding(ev domain.FundingEvent) session.FundingResult
}

// Server exposes HTTP endpoints serving the HTML UI, SSE streams and the control API.
type Server struct {
	Addr      string
	Snapshots balanceSnapshotReader
	Feed      widgetFeed
	Board     boardControl
	Session   sessionControl

	logger        *zap.Logger
	snapshotPoll  time.Duration
	widgetPoll    time.Duration
	heartbeatPoll time.Duration
}

// NewServer creates a new web server instance.
func NewServer(addr string, snapshots balanceSnapshotReader, feed widgetFeed, board boardControl, sess sessionControl, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:          addr,
		Snapshots:     snapshots,
		Feed:          feed,
		Board:         board,
		Session:       sess,
		logger:        logger.With(zap.String("component", "web")),
		snapshotPoll:  snapshotPollInterval,
		widgetPoll:    widgetPollInterval,
		heartbeatPoll: heartbeatInterval,
	}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /widgets/stream", s.handleWidgetStream)
	mux.HandleFunc("GET /balance/stream", s.handleBalanceStream)

	mux.HandleFunc("GET /api/widgets", s.handleWidgets)
	mux.HandleFunc("GET /api/widgets/{kind}", s.handleWidget)
	mux.HandleFunc("POST /api/widgets/{kind}/period", s.handleSetPeriod)
	mux.HandleFunc("POST /api/widgets/{kind}/view", s.handleSetView)
	mux.HandleFunc("GET /api/detail", s.handleDetail)
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("POST /api/funding", s.handleFunding)
	mux.HandleFunc("POST /api/documents/complete", s.handleDocumentsComplete)

	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server error", zap.Error(err))
		}
	}()

	s.logger.Info("dashboard listening with automatic TLS", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

type widgetHealth struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Interval string    `json:"interval"`
	Ticks    uint64    `json:"ticks"`
	LastTick time.Time `json:"last_tick"`
}

type healthResponse struct {
	Status  string         `json:"status"`
	Widgets []widgetHealth `json:"widgets"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Widgets: []widgetHealth{}}
	if s.Board != nil {
		for _, wg := range s.Board.Widgets() {
			resp.Widgets = append(resp.Widgets, widgetHealth{
				ID:       wg.ID,
				Kind:     wg.Kind.String(),
				Interval: wg.Interval.String(),
				Ticks:    wg.Ticks(),
				LastTick: wg.LastTick(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
