package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allyplatform/ally-config/engine/configsvc"
	"github.com/allyplatform/ally-config/pkg/appconfig"
	"github.com/allyplatform/ally-config/pkg/logger"
)

const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server hosts the configuration API: the read surface in front of the
// service pipeline and the admin surface in front of the controller.
type Server struct {
	cfg          *appconfig.Config
	service      *configsvc.Service
	controller   *configsvc.Controller
	router       *gin.Engine
	httpServer   *http.Server
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer wires the HTTP layer. The service and controller are built by
// the caller so tests can substitute memory-only backends.
func NewServer(
	ctx context.Context,
	cfg *appconfig.Config,
	service *configsvc.Service,
	controller *configsvc.Controller,
) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("runtime settings are required")
	}
	if service == nil {
		return nil, fmt.Errorf("configuration service is required")
	}
	serverCtx, cancel := context.WithCancel(ctx)
	s := &Server{
		cfg:        cfg,
		service:    service,
		controller: controller,
		ctx:        serverCtx,
		cancel:     cancel,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Router exposes the gin engine for httptest-driven tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the context is canceled, then drains in-flight requests.
func (s *Server) Run() error {
	log := logger.FromContext(s.ctx)
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  orDefault(s.cfg.Server.ReadTimeout, defaultReadTimeout),
		WriteTimeout: orDefault(s.cfg.Server.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  orDefault(s.cfg.Server.IdleTimeout, defaultIdleTimeout),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("configuration server listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case err := <-errCh:
		s.cancel()
		return err
	case <-s.ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the listener, bounded by the configured drain timeout.
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cancel()
		if s.httpServer == nil {
			return
		}
		timeout := orDefault(s.cfg.Server.ShutdownTimeout, defaultShutdownTimeout)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		logger.FromContext(s.ctx).Info("shutting down configuration server")
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
