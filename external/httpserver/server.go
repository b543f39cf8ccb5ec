package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"
)

const readHeaderTimeout = 5 * time.Second

type Server struct {
	srv *http.Server
}

func NewServer(addr string, jobs StatusSource) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(jobs),
		ReadHeaderTimeout: readHeaderTimeout,
	}}
}

// Start serves in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		slog.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.IsDevelopment() {
			gin.SetMode(gin.ReleaseMode)
		}
		sched := do.MustInvoke[*scheduler.Scheduler](i)
		return NewServer(cfg.HTTPAddr, sched), nil
	})
}
