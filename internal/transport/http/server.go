package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"motorvault/internal/command"
	"motorvault/internal/service"
)

type Server struct {
	srv *http.Server
}

func NewServer(addr string, debug bool, adminToken string, svc service.EconomyService, dispatcher *command.Dispatcher) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(NewHandler(svc, dispatcher), adminToken),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler, adminToken string) *gin.Engine {
	router := gin.New()
	router.Use(Recovery())
	router.Use(Logger())
	h.Register(router, adminToken)
	return router
}

func (s *Server) Start(ctx context.Context) error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
