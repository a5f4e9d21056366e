package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/events"
	"mindcanvas/internal/export"
	"mindcanvas/internal/mindmap"
	"mindcanvas/internal/search"
	"mindcanvas/internal/store"
	"mindcanvas/internal/templates"
)

type createMindMapInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IsPublic    bool     `json:"isPublic"`
	Tags        []string `json:"tags"`
	TemplateID  string   `json:"templateId"`
}

// updateMindMapInput is merged into the stored map. Absent fields are kept.
type updateMindMapInput struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	IsPublic    *bool                `json:"isPublic"`
	Tags        []string             `json:"tags"`
	Nodes       []mindmap.Node       `json:"nodes"`
	Connections []mindmap.Connection `json:"connections"`
	Canvas      *mindmap.CanvasState `json:"canvas"`
}

type importOutlineInput struct {
	Title   string `json:"title"`
	Outline string `json:"outline"`
}

func (s *Server) RegisterMindMapRoutes(group *gin.RouterGroup) {
	mindmaps := group.Group("/mindmaps")
	{
		mindmaps.GET("", s.listMindMaps)
		mindmaps.POST("", s.createMindMap)
		mindmaps.GET("/search", s.searchMindMaps)
		mindmaps.POST("/import", s.importOutline)
		mindmaps.GET("/:id", s.getMindMap)
		mindmaps.PUT("/:id", s.updateMindMap)
		mindmaps.DELETE("/:id", s.deleteMindMap)
		mindmaps.GET("/:id/export/:format", s.exportMindMap)
	}
}

func isOwner(m mindmap.MindMap, userID string) bool {
	return m.OwnerID == userID
}

func isMember(m mindmap.MindMap, userID string) bool {
	if isOwner(m, userID) {
		return true
	}
	for _, id := range m.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

func canView(m mindmap.MindMap, userID string) bool {
	return m.IsPublic || isMember(m, userID)
}

// loadMindMap fetches id and checks allowed against the caller. Missing
// maps and maps the caller may not touch both answer 404 with message.
func (s *Server) loadMindMap(c *gin.Context, allowed func(mindmap.MindMap, string) bool, message string) (mindmap.MindMap, bool) {
	m, err := s.Store.MindMap(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && !allowed(m, currentUserID(c))) {
		fail(c, apperr.NotFound(message))
		return mindmap.MindMap{}, false
	}
	if err != nil {
		fail(c, err)
		return mindmap.MindMap{}, false
	}
	return m, true
}

func (s *Server) listMindMaps(c *gin.Context) {
	maps, err := s.Store.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, maps, "")
}

func (s *Server) getMindMap(c *gin.Context) {
	m, found := s.loadMindMap(c, canView, "Mind map not found")
	if !found {
		return
	}
	ok(c, http.StatusOK, m, "")
}

func (s *Server) createMindMap(c *gin.Context) {
	var in createMindMapInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		badRequest(c, "Title is required")
		return
	}

	var m mindmap.MindMap
	if in.TemplateID != "" {
		tpl, err := s.Templates.Get(in.TemplateID)
		if err != nil {
			fail(c, apperr.NotFound("Template not found"))
			return
		}
		m = templates.Instantiate(s.Engine, tpl, uuid.NewString(), in.Title)
	} else {
		m = s.Engine.NewDocument(uuid.NewString(), in.Title)
	}
	m.OwnerID = currentUserID(c)
	m.IsPublic = in.IsPublic
	if in.Description != "" {
		m.Description = in.Description
	}
	if len(in.Tags) > 0 {
		m.Tags = append(m.Tags, in.Tags...)
	}

	s.storeNew(c, m, "Mind map created successfully")
}

// importOutline creates a map from indented text, one node per line.
func (s *Server) importOutline(c *gin.Context) {
	var in importOutlineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	m, err := templates.FromOutline(s.Engine, uuid.NewString(), strings.TrimSpace(in.Title), in.Outline)
	if errors.Is(err, templates.ErrEmptyOutline) {
		badRequest(c, "Outline is required")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	m.OwnerID = currentUserID(c)
	s.storeNew(c, m, "Mind map imported successfully")
}

func (s *Server) storeNew(c *gin.Context, m mindmap.MindMap, message string) {
	if err := mindmap.Validate(m); err != nil {
		fail(c, err)
		return
	}
	created, err := s.Store.CreateMindMap(c.Request.Context(), m)
	if err != nil {
		fail(c, err)
		return
	}
	s.Search.IndexMap(created)
	s.publish(c, events.Event{Type: events.MindMapCreated, MindMapID: created.ID, UserID: created.OwnerID, Version: created.Version})
	ok(c, http.StatusCreated, created, message)
}

// merge applies the present fields of in to m.
func (in updateMindMapInput) merge(m mindmap.MindMap) mindmap.MindMap {
	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.IsPublic != nil {
		m.IsPublic = *in.IsPublic
	}
	if in.Tags != nil {
		m.Tags = in.Tags
	}
	if in.Nodes != nil {
		m.Nodes = in.Nodes
	}
	if in.Connections != nil {
		m.Connections = in.Connections
	}
	if in.Canvas != nil {
		m.Canvas = *in.Canvas
	}
	return m
}

func (s *Server) updateMindMap(c *gin.Context) {
	var in updateMindMapInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	m, found := s.loadMindMap(c, isOwner, "Mind map not found or you do not have permission to update it")
	if !found {
		return
	}

	m = mindmap.Sanitize(in.merge(m))
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	if err := mindmap.Validate(m); err != nil {
		fail(c, err)
		return
	}

	saved, err := s.Store.SaveMindMap(c.Request.Context(), m)
	if err != nil {
		fail(c, err)
		return
	}
	s.Search.IndexMap(saved)
	s.publish(c, events.Event{Type: events.MindMapUpdated, MindMapID: saved.ID, UserID: currentUserID(c), Version: saved.Version})
	ok(c, http.StatusOK, saved, "Mind map updated successfully")
}

func (s *Server) deleteMindMap(c *gin.Context) {
	m, found := s.loadMindMap(c, isOwner, "Mind map not found or you do not have permission to delete it")
	if !found {
		return
	}
	if err := s.Store.DeleteMindMap(c.Request.Context(), m.ID); err != nil {
		fail(c, err)
		return
	}
	s.Search.RemoveMap(m.ID)
	s.publish(c, events.Event{Type: events.MindMapDeleted, MindMapID: m.ID, UserID: currentUserID(c)})
	ok(c, http.StatusOK, nil, "Mind map deleted successfully")
}

func (s *Server) searchMindMaps(c *gin.Context) {
	q := search.Query{
		Text:      strings.TrimSpace(c.Query("q")),
		SortBy:    search.SortBy(c.Query("sortBy")),
		SortOrder: c.Query("sortOrder"),
	}
	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, fmt.Sprintf("%s must be a number", name))
			return
		}
		*dst = n
	}

	uid := currentUserID(c)
	maps, err := s.Store.ListForUser(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, s.Search.Search(uid, maps, q), "")
}

func (s *Server) exportMindMap(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		badRequest(c, "Unsupported export format")
		return
	}
	m, found := s.loadMindMap(c, canView, "Mind map not found or access denied")
	if !found {
		return
	}

	res, err := s.Exporter.Export(c.Request.Context(), m, format)
	switch {
	case errors.Is(err, export.ErrEmpty):
		badRequest(c, "No nodes to export")
		return
	case errors.Is(err, export.ErrPDFDependencyMissing):
		fail(c, apperr.Unavailable("PDF export requires Chrome or Chromium on the server", err))
		return
	case err != nil:
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, res.MimeType, res.Data)
}
