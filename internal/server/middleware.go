package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/auth"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/session"
)

const (
	ctxUserID = "userID"
	ctxClaims = "claims"
	ctxLogger = "logger"
)

// CORSMiddleware adds the required headers to allow cross-origin requests
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, Origin, Cache-Control")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, Content-Disposition")
		c.Header("Access-Control-Max-Age", "43200") // 12 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request and leaves a request scoped
// logger on the context for handlers.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(ctxLogger, log.WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}))

		c.Next()

		status := c.Writer.Status()
		data := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if uid := c.GetString(ctxUserID); uid != "" {
			data["userId"] = uid
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", data)
		case status >= http.StatusBadRequest:
			log.Warn("request", data)
		default:
			log.Info("request", data)
		}
	}
}

func logFromContext(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return logger.New("server")
}

// AuthMiddleware requires a valid, unrevoked bearer token and stores the
// caller's id and claims on the context.
func AuthMiddleware(issuer *auth.Issuer, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			fail(c, apperr.Authentication("Access token is required"))
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token has expired"
			}
			fail(c, apperr.Authentication(msg))
			return
		}

		if err := session.Check(c.Request.Context(), sessions, claims.ID); err != nil {
			if errors.Is(err, session.ErrRevoked) {
				fail(c, apperr.Authentication("Token has been revoked"))
				return
			}
			fail(c, apperr.Internal(err))
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func currentClaims(c *gin.Context) (auth.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := v.(auth.Claims)
	return claims, ok
}
