// Package server serves a listing collection from a JSON file, in the
// shape the carlist client reads: GET <path> returns the whole array and
// GET <path>/{id} returns one record.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Options configures the collection server
type Options struct {
	Path    string        // collection route, e.g. "/cars"
	Latency time.Duration // delay added before every collection response
	Fail    bool          // answer collection requests with 503
	Logger  *zap.Logger
}

// Server holds the collection and its HTTP routes
type Server struct {
	data   []byte
	opts   Options
	logger *zap.Logger
}

// New loads the collection from a JSON file
func New(dataPath string, opts Options) (*Server, error) {
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return NewFromBytes(data, opts)
}

// NewFromBytes validates data as a JSON array and wraps it in a server
func NewFromBytes(data []byte, opts Options) (*Server, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsArray() {
		return nil, errors.New("collection data must be a JSON array")
	}
	if opts.Path == "" {
		opts.Path = "/cars"
	}
	if !strings.HasPrefix(opts.Path, "/") {
		opts.Path = "/" + opts.Path
	}
	opts.Path = strings.TrimSuffix(opts.Path, "/")
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Server{
		data:   data,
		opts:   opts,
		logger: opts.Logger.Named("server"),
	}, nil
}

// Handler returns the routes wrapped in CORS
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET "+s.opts.Path, WithLogging(s.logger, s.handleCollection))
	mux.HandleFunc("GET "+s.opts.Path+"/{id}", WithLogging(s.logger, s.handleItem))

	return CORS(mux)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving collection", zap.String("addr", addr), zap.String("path", s.opts.Path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	if !s.wait(r) {
		return
	}
	if s.opts.Fail {
		http.Error(w, "collection unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(s.data)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	if !s.wait(r) {
		return
	}
	if s.opts.Fail {
		http.Error(w, "collection unavailable", http.StatusServiceUnavailable)
		return
	}

	id := r.PathValue("id")
	var found string
	gjson.ParseBytes(s.data).ForEach(func(_, value gjson.Result) bool {
		if value.Get("id").String() == id {
			found = value.Raw
			return false
		}
		return true
	})

	if found == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(found))
}

// wait applies the simulated latency; false means the client went away
func (s *Server) wait(r *http.Request) bool {
	if s.opts.Latency <= 0 {
		return true
	}
	timer := time.NewTimer(s.opts.Latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	}
}
