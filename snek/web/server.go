// Package web exposes the moderation commands, infraction history and metrics over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sneknetwork/snek/snek/command"
	"github.com/sneknetwork/snek/snek/infraction"
)

// Commands runs moderation commands.
type Commands interface {
	Apply(ctx context.Context, kind infraction.Kind, r command.Request) (command.Reply, error)
	Pardon(ctx context.Context, kind infraction.Kind, r command.Request) (command.Reply, error)
	History(ctx context.Context, guild, user snowflake.ID) ([]infraction.Record, error)
}

// Server is the HTTP surface of the service.
type Server struct {
	log    *slog.Logger
	cmds   Commands
	apiKey string

	router *gin.Engine
	srv    *http.Server
}

// NewServer sets up the routes of the server listening on addr. Every route but /metrics
// requires the authorization header to hold apiKey.
func NewServer(log *slog.Logger, addr, apiKey string, cmds Commands) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{log: log.With("subsystem", "web"), cmds: cmds, apiKey: apiKey}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", s.authorize)
	api.POST("/guilds/:guild/infractions", s.apply)
	api.DELETE("/guilds/:guild/infractions/:type/:user", s.pardon)
	api.GET("/guilds/:guild/users/:user/infractions", s.history)

	s.router = router
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", "address", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for running requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) authorize(c *gin.Context) {
	if s.apiKey == "" || c.GetHeader("authorization") != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("handled request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}
