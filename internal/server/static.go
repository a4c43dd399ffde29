package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// HealthPath answers 200 on the built-in static server.
const HealthPath = "/_scenariowatch/health"

type staticServer struct {
	srv    *http.Server
	cancel context.CancelFunc
	eg     *errgroup.Group
}

// NewHandler returns the router of the static strategy serving root.
func NewHandler(root string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := chi.NewMux()
	r.Use(
		requestLogger(logger),
		middleware.Recoverer,
		middleware.NoCache,
		middleware.Compress(5),
	)

	r.Get(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/*", http.FileServer(http.Dir(root)))
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

func startStatic(root string, port int, logger *slog.Logger) (*staticServer, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: NewHandler(root, logger),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting static server", "root", root, "addr", fmt.Sprintf("http://localhost:%d", port))

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	return &staticServer{srv: srv, cancel: cancel, eg: eg}, nil
}

func (s *staticServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, stopGrace)
	defer cancel()

	err := s.srv.Shutdown(shutdownCtx)
	s.cancel()
	return errors.Join(err, s.eg.Wait())
}
