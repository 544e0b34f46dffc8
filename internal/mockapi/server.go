// Package mockapi serves an in memory control plane that speaks the search
// and change stream protocol of the real API.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gojson "github.com/goccy/go-json"
	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAddr is the demo listen address.
	DefaultAddr = "127.0.0.1:8003"

	defaultMutateEvery = 2 * time.Second
	defaultKeepAlive   = 15 * time.Second
	mutationSize       = 3
)

// Config holds the mock server settings.
type Config struct {
	Addr string

	// Token, when set, must be presented as a bearer token.
	Token string

	Dataset Dataset

	// MutateEvery is the period of the lifecycle mutations. Negative disables them.
	MutateEvery time.Duration

	// KeepAlive is the period of stream keepalive comments.
	KeepAlive time.Duration

	Logger *slog.Logger
}

// Server is the mock control plane.
type Server struct {
	cfg   Config
	store *Store
	hub   *Hub
	log   *slog.Logger
}

// NewServer seeds the store and returns a server ready to Serve.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MutateEvery == 0 {
		cfg.MutateEvery = defaultMutateEvery
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	store, err := OpenStore(ctx, cfg.Dataset)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:   cfg,
		store: store,
		hub:   NewHub(),
		log:   cfg.Logger,
	}, nil
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Hub returns the change hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
			NoColor: true,
		}),
		middleware.Recoverer,
	)

	r.Get("/", s.handleRoot)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get(client.EventsPath, s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))
			r.Get(dao.InstancesPath, searchHandler(s.store.SearchInstances))
			r.Get(dao.UsersPath, searchHandler(s.store.SearchUsers))
			r.Get(dao.ActionLogsPath, searchHandler(s.store.SearchActionLogs))
		})
	})

	return r
}

// Serve listens on the configured address and blocks until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.log.Info("mock control plane listening", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if s.cfg.MutateEvery > 0 {
		eg.Go(func() error {
			return s.mutateLoop(egctx)
		})
	}
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.log.Debug("shutting down mock control plane")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) mutateLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.MutateEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("mutation failed", "error", err)
			}
		}
	}
}

// Tick applies one batch of lifecycle mutations and publishes the resulting
// change events.
func (s *Server) Tick(ctx context.Context) (*Mutation, error) {
	m, err := s.store.Mutate(ctx, mutationSize)
	if err != nil {
		return nil, err
	}
	for _, c := range m.Changes(s.store.now().UTC()) {
		n := s.hub.Publish(c)
		s.log.Debug("change published", "event", c.Name, "ids", len(c.Payload.IDs), "listeners", n)
	}

	return m, nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"name": "ivs-mock", "ok": true})
}

// handleEvents streams change events for the requested topics.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := s.hub.Subscribe(parseTopics(r.URL.Query().Get("topics")))
	defer s.hub.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_, _ = fmt.Fprintf(w, "event: %s\ndata: {\"ok\":true}\n\n", client.EventHello)
	flusher.Flush()

	keepAlive := time.NewTicker(s.cfg.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
		case c := <-ch:
			data, err := gojson.Marshal(c.Payload)
			if err != nil {
				s.log.Error("encode change", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", c.Name, data)
		}
		flusher.Flush()
	}
}

// parseTopics reads a comma separated topic list. Empty selects every topic.
func parseTopics(raw string) []string {
	var tt []string
	for _, t := range strings.Split(raw, ",") {
		switch t = strings.ToLower(strings.TrimSpace(t)); t {
		case "":
		case "action_logs":
			tt = append(tt, client.TopicActions)
		default:
			tt = append(tt, t)
		}
	}
	if len(tt) == 0 {
		return []string{client.TopicInstances, client.TopicActions}
	}

	return tt
}

func searchHandler[T any](search func(context.Context, Search) (Result[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := ParseSearch(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := search(r.Context(), q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, client.SearchResponse[T]{
			Offset:        &q.Offset,
			Limit:         &q.Limit,
			TotalCount:    &res.Total,
			FilteredCount: &res.Filtered,
			Rows:          res.Rows,
			StatusCounts:  res.Stats,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := gojson.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
