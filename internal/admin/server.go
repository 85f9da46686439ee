package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/auth"
	"github.com/TaciturnJian/bytecomm/internal/observability"
	"github.com/TaciturnJian/bytecomm/internal/pump"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Controller is the part of a running link the admin surface can see and stop.
type Controller interface {
	Monitors() []pump.Snapshot
	Stopped() bool
	Stop()
}

type Server struct {
	ID      string
	Addr    string
	Version string
	Started time.Time
	// Guard, when set, must accept the bearer token on control routes.
	Guard auth.Validator

	link   Controller
	router *gin.Engine
}

func New(id, addr string, corsOrigins []string, link Controller) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:      id,
		Addr:    addr,
		Version: "dev",
		Started: time.Now(),
		link:    link,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"link":    s.ID,
			"version": s.Version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		if s.link.Stopped() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready": status == http.StatusOK,
			"link":  s.ID,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/monitors", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"monitors": s.link.Monitors(),
		})
	})

	s.router.POST("/stop", s.requireToken(), func(c *gin.Context) {
		log.Info().Str("link", s.ID).Str("client_ip", c.ClientIP()).Msg("admin.Server stop requested")
		s.link.Stop()
		c.JSON(http.StatusAccepted, gin.H{"status": "stopping"})
	})
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Guard == nil {
			c.Next()
			return
		}
		token, _ := auth.BearerToken(c.GetHeader("Authorization"))
		if err := s.Guard.Validate(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

// Serve listens on Addr until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("admin.Server listening")
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
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
