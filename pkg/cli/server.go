package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mchmarny/genrelay/pkg/catalog"
	"github.com/mchmarny/genrelay/pkg/genre"
	"github.com/mchmarny/genrelay/pkg/metrics"
	"github.com/mchmarny/genrelay/pkg/track"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverMaxBodyBytes        = 1 << 20
)

const flagPort = "port"

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Starts the metadata relay and genre HTTP server",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagPort,
				Usage: "Port on which the server will listen (default: from config)",
			},
		},
	}
}

// songService is the catalog lookup the relay routes need.
type songService interface {
	GetSong(ctx context.Context, id string) (*catalog.SongMeta, error)
	GetPlaylist(ctx context.Context, id string) (*catalog.Playlist, error)
}

type server struct {
	catalog    songService
	tracks     track.Store
	aggregator *genre.Aggregator
	metrics    bool
	kill       chan struct{}
	killOnce   sync.Once
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	port := cfg.Config.Server.Port
	if p := cmd.Int(flagPort); p > 0 {
		port = p
	}
	address := fmt.Sprintf("%s:%d", cfg.Config.Server.Address, port)

	tracks, err := cfg.openTracks(ctx)
	if err != nil {
		return fmt.Errorf("opening track store: %w", err)
	}
	defer tracks.Close()

	srv := &server{
		tracks:     tracks,
		aggregator: genre.NewAggregator(),
		metrics:    cfg.Config.Metrics.Enabled,
		kill:       make(chan struct{}),
	}

	cat, err := cfg.catalogClient(ctx)
	if err != nil {
		return fmt.Errorf("creating catalog client: %w", err)
	}
	if cat != nil {
		srv.catalog = cat
	} else {
		slog.Warn("catalog.base_url not set, /meta and /playlist are disabled")
	}

	s := &http.Server{
		Addr:           address,
		Handler:        srv.router(),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error starting server", "error", err)
		}
	}()

	slog.Info("server started", "address", "http://"+address)

	select {
	case <-done:
	case <-srv.kill:
		slog.Info("shutdown requested")
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

func (s *server) router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /meta", s.metaHandler)
	mux.HandleFunc("GET /playlist", s.playlistHandler)
	mux.HandleFunc("GET /status", s.statusHandler)
	mux.HandleFunc("POST /genre", s.genreHandler)
	mux.HandleFunc("GET /kill", s.killHandler)

	if s.metrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return "", false
	}
	return id, true
}

func (s *server) metaHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not configured")
		return
	}

	m, err := s.catalog.GetSong(r.Context(), id)
	if err != nil {
		catalogError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) playlistHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not configured")
		return
	}

	p, err := s.catalog.GetPlaylist(r.Context(), id)
	if err != nil {
		catalogError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func catalogError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found: "+id)
		return
	}
	slog.Error("catalog request failed", "id", id, "error", err)
	writeError(w, http.StatusBadGateway, "catalog request failed")
}

func (s *server) statusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	t, err := s.tracks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, track.ErrNotFound) {
			writeError(w, http.StatusNotFound, "track not found: "+id)
			return
		}
		slog.Error("failed to get track", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "error querying track")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type genreRequest struct {
	Tags []genre.TagList `json:"tags"`
}

type genreResponse struct {
	Genre string `json:"genre"`
}

func (s *server) genreHandler(w http.ResponseWriter, r *http.Request) {
	var req genreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, serverMaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "error binding json")
		return
	}

	res, err := explain(s.aggregator, req.Tags)
	if err != nil {
		if errors.Is(err, genre.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}
	writeJSON(w, http.StatusOK, genreResponse{Genre: res.Genre})
}

func (s *server) killHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is shutting down..."))
	s.killOnce.Do(func() { close(s.kill) })
}
