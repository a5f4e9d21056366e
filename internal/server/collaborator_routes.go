package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/events"
	"mindcanvas/internal/store"
)

type addCollaboratorInput struct {
	Email string `json:"email"`
}

func (s *Server) RegisterCollaboratorRoutes(group *gin.RouterGroup) {
	collaborators := group.Group("/mindmaps/:id/collaborators")
	{
		collaborators.GET("", s.listCollaborators)
		collaborators.POST("", s.addCollaborator)
		collaborators.DELETE("/:userId", s.removeCollaborator)
	}
}

func (s *Server) listCollaborators(c *gin.Context) {
	m, found := s.loadMindMap(c, isMember, "Mind map not found or you do not have permission to view it")
	if !found {
		return
	}
	ctx := c.Request.Context()
	owner, err := s.Store.UserByID(ctx, m.OwnerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		fail(c, err)
		return
	}
	users, err := s.Store.UsersByID(ctx, m.Collaborators)
	if err != nil {
		fail(c, err)
		return
	}
	if users == nil {
		users = []store.User{}
	}
	ok(c, http.StatusOK, gin.H{"owner": owner, "collaborators": users}, "")
}

func (s *Server) addCollaborator(c *gin.Context) {
	var in addCollaboratorInput
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Email) == "" {
		badRequest(c, "Email is required")
		return
	}
	m, found := s.loadMindMap(c, isOwner, "Mind map not found or you do not have permission to add collaborators")
	if !found {
		return
	}

	ctx := c.Request.Context()
	user, err := s.Store.UserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, apperr.NotFound("User not found with this email"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if user.ID == currentUserID(c) {
		badRequest(c, "You cannot add yourself as a collaborator")
		return
	}
	if isMember(m, user.ID) {
		badRequest(c, "User is already a collaborator")
		return
	}

	if err := s.Store.AddCollaborator(ctx, m.ID, user.ID); err != nil {
		fail(c, err)
		return
	}
	s.reindex(c, m.ID)
	s.publish(c, events.Event{Type: events.CollaboratorAdded, MindMapID: m.ID, UserID: currentUserID(c), Subject: user.ID})
	ok(c, http.StatusOK, gin.H{"collaborator": user, "message": "Collaborator added successfully"}, "")
}

func (s *Server) removeCollaborator(c *gin.Context) {
	m, found := s.loadMindMap(c, isOwner, "Mind map not found or you do not have permission to remove collaborators")
	if !found {
		return
	}
	target := c.Param("userId")
	if target == currentUserID(c) {
		badRequest(c, "You cannot remove yourself as the owner")
		return
	}

	err := s.Store.RemoveCollaborator(c.Request.Context(), m.ID, target)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, apperr.NotFound("Collaborator not found"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	s.reindex(c, m.ID)
	s.publish(c, events.Event{Type: events.CollaboratorRemoved, MindMapID: m.ID, UserID: currentUserID(c), Subject: target})
	ok(c, http.StatusOK, gin.H{"message": "Collaborator removed successfully"}, "")
}

// reindex refreshes the search record of id after its membership changed.
func (s *Server) reindex(c *gin.Context, id string) {
	m, err := s.Store.MindMap(c.Request.Context(), id)
	if err != nil {
		logFromContext(c).Warn("reload mind map for index", map[string]interface{}{"id": id, "error": err})
		return
	}
	s.Search.IndexMap(m)
}
