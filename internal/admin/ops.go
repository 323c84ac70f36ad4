// Package admin provides the operator surface of the messenger: an optional
// read-only HTTP listener (health, metrics, live sessions, store totals) and
// a console observer that mirrors server events to the terminal.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-server/internal/repo"
	"github.com/tbourn/go-messenger-server/internal/server"
)

// OpsServer is the read-only HTTP listener. It never mutates the store; the
// TCP protocol stays the only write path.
type OpsServer struct {
	srv *http.Server
	log zerolog.Logger
}

// NewOpsServer builds the ops listener over the session registry and the
// store handle.
func NewOpsServer(addr string, sessions *server.Registry, db *gorm.DB, log zerolog.Logger) *OpsServer {
	return &OpsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           opsRouter(sessions, db),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.With().Str("component", "ops").Logger(),
	}
}

// opsRouter assembles the read-only route set.
func opsRouter(sessions *server.Registry, db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"usernames":   sessions.ActiveUsernames(),
			"connections": sessions.ConnCount(),
		})
	})
	api.GET("/stats", func(c *gin.Context) {
		totals, err := repo.CountTotals(c.Request.Context(), db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, totals)
	})

	return r
}

// Start serves in a background goroutine until Shutdown.
func (o *OpsServer) Start() {
	go func() {
		o.log.Info().Str("addr", o.srv.Addr).Msg("ops listener up")
		if err := o.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.log.Error().Err(err).Msg("ops listener failed")
		}
	}()
}

// Shutdown stops the listener gracefully.
func (o *OpsServer) Shutdown(ctx context.Context) error {
	return o.srv.Shutdown(ctx)
}
