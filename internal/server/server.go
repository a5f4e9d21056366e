// Package server is the persistence service HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mindcanvas/internal/auth"
	"mindcanvas/internal/events"
	"mindcanvas/internal/export"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/mindmap"
	"mindcanvas/internal/search"
	"mindcanvas/internal/session"
	"mindcanvas/internal/store"
	"mindcanvas/internal/templates"
)

const (
	serviceName = "mindcanvas"
	Version     = "2.0.0"
)

// Deps are the collaborators the handlers use. Store and Issuer are
// required; the rest fall back to in-process implementations.
type Deps struct {
	Store      *store.Store
	Issuer     *auth.Issuer
	Sessions   session.Store
	Search     *search.Service
	Exporter   *export.Service
	Templates  *templates.Catalog
	Events     events.Publisher
	Engine     *mindmap.Engine
	CORSOrigin string
}

type Server struct {
	Deps
	log     *logger.Logger
	started time.Time
}

func New(d Deps) *Server {
	if d.Sessions == nil {
		d.Sessions = session.NewMemoryStore()
	}
	if d.Search == nil {
		d.Search = search.NewService(nil)
	}
	if d.Exporter == nil {
		d.Exporter = export.NewService("")
	}
	if d.Templates == nil {
		d.Templates = templates.Builtin()
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Engine == nil {
		d.Engine = mindmap.NewEngine()
	}
	if d.CORSOrigin == "" {
		d.CORSOrigin = "*"
	}
	return &Server{Deps: d, log: logger.New("server"), started: time.Now()}
}

// Router builds the gin engine with every route mounted under /api.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.log))
	router.Use(CORSMiddleware(s.CORSOrigin))

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	protected := api.Group("")
	protected.Use(AuthMiddleware(s.Issuer, s.Sessions))

	s.RegisterAuthRoutes(api, protected)
	s.RegisterMindMapRoutes(protected)
	s.RegisterCollaboratorRoutes(protected)
	s.RegisterTemplateRoutes(api)
	return router
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code, database := "OK", http.StatusOK, "ok"
	if err := s.Store.Ping(ctx); err != nil {
		s.log.Error("database ping failed", map[string]interface{}{"error": err})
		status, code, database = "DEGRADED", http.StatusServiceUnavailable, "unreachable"
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
		"service":   serviceName,
		"version":   Version,
		"database":  database,
	})
}

// publish sends e on the bus; a failed publish never fails the request.
func (s *Server) publish(c *gin.Context, e events.Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := s.Events.Publish(c.Request.Context(), e); err != nil {
		s.log.Warn("publish event", map[string]interface{}{"type": e.Type, "mindMapId": e.MindMapID, "error": err})
	}
}
