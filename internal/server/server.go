package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ButyrinIA/board/internal/board"
	"github.com/ButyrinIA/board/internal/config"
	"github.com/ButyrinIA/board/internal/storage"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg      *config.Config
	svc      *board.Service
	monitor  *board.Monitor
	upgrader websocket.Upgrader
	handler  http.Handler
}

func New(cfg *config.Config, storage storage.Storage) *Server {
	svc := board.NewService(storage, board.OptionsFromConfig(cfg))
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		monitor: board.NewMonitor(svc),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog)

	r.Methods(http.MethodPost).Path("/posts").HandlerFunc(s.createPost)
	r.Methods(http.MethodGet).Path("/posts/{id}").HandlerFunc(s.getPostContent)
	r.Methods(http.MethodPost).Path("/posts/{id}/vote").HandlerFunc(s.votePost)
	r.Methods(http.MethodGet).Path("/posts/{id}/top-comments").HandlerFunc(s.getTopComments)

	r.Methods(http.MethodPost).Path("/comments").HandlerFunc(s.createComment)
	r.Methods(http.MethodGet).Path("/comments/{id}").HandlerFunc(s.getComment)
	r.Methods(http.MethodPost).Path("/comments/{id}/vote").HandlerFunc(s.voteComment)
	r.Methods(http.MethodGet).Path("/comments/{id}/branch").HandlerFunc(s.expandCommentBranch)

	r.Methods(http.MethodGet).Path("/monitor").HandlerFunc(s.monitorUpdates)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("handled", "method", r.Method, "url", r.URL.String(), "duration", m.Duration, "status", m.Code)
	})
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер.
// Контексты запросов наследуются от ctx, поэтому сессии мониторинга тоже закрываются.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:        s.cfg.Addr(),
		Handler:     s.handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
