package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/templates"
)

// RegisterTemplateRoutes mounts the read-only template catalog. It needs no
// token.
func (s *Server) RegisterTemplateRoutes(group *gin.RouterGroup) {
	tpl := group.Group("/templates")
	{
		tpl.GET("", s.listTemplates)
		tpl.GET("/:id", s.getTemplate)
	}
}

func (s *Server) listTemplates(c *gin.Context) {
	found := s.Templates.Search(c.Query("q"), c.Query("category"))
	if found == nil {
		found = []templates.Template{}
	}
	ok(c, http.StatusOK, gin.H{
		"templates":  found,
		"categories": s.Templates.Categories(),
	}, "")
}

func (s *Server) getTemplate(c *gin.Context) {
	t, err := s.Templates.Get(c.Param("id"))
	if err != nil {
		fail(c, apperr.NotFound("Template not found"))
		return
	}
	ok(c, http.StatusOK, t, "")
}
