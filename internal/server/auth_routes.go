package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/auth"
	"mindcanvas/internal/mindmap"
	"mindcanvas/internal/store"
)

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterAuthRoutes mounts /auth. Registration and login are public; the
// rest needs a token.
func (s *Server) RegisterAuthRoutes(public, protected *gin.RouterGroup) {
	authGroup := public.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
	}
	authed := protected.Group("/auth")
	{
		authed.GET("/me", s.me)
		authed.POST("/logout", s.logout)
	}
}

func (s *Server) register(c *gin.Context) {
	var in registerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		badRequest(c, "Name, email and password are required")
		return
	}

	var problems []mindmap.FieldError
	if !strings.Contains(in.Email, "@") {
		problems = append(problems, mindmap.FieldError{Field: "email", Message: "email is not valid"})
	}
	if len(in.Password) < auth.MinPasswordLength {
		problems = append(problems, mindmap.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength),
		})
	}
	if len(problems) > 0 {
		fail(c, apperr.Validation(problems[0].Message, problems))
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	user, err := s.Store.CreateUser(c.Request.Context(), store.User{Name: in.Name, Email: in.Email, PasswordHash: hash})
	if errors.Is(err, store.ErrEmailTaken) {
		badRequest(c, "User already exists with this email")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	token, _, err := s.Issuer.Issue(user.ID, user.Email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"user": user, "token": token}, "Registration successful")
}

func (s *Server) login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		badRequest(c, "Email and password are required")
		return
	}

	user, err := s.Store.UserByEmail(c.Request.Context(), in.Email)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, apperr.Authentication("Invalid credentials"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		fail(c, apperr.Authentication("Invalid credentials"))
		return
	}

	token, _, err := s.Issuer.Issue(user.ID, user.Email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user, "token": token}, "Login successful")
}

func (s *Server) me(c *gin.Context) {
	user, err := s.Store.UserByID(c.Request.Context(), currentUserID(c))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user}, "")
}

// logout revokes the presented token until it would have expired anyway.
func (s *Server) logout(c *gin.Context) {
	claims, found := currentClaims(c)
	if !found {
		fail(c, apperr.Authentication(""))
		return
	}
	if err := s.Sessions.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil, "Logged out")
}
