package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/promoter-portal/internal/application/session"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

const sessionKey = "session"

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// authMiddleware resolves the bearer token into a session for an active profile
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortWithError(c, ierr.NewError("missing bearer token").
				WithHint("Sua sessão expirou. Faça login novamente.").
				Mark(ierr.ErrUnauthenticated))
			return
		}

		sess, err := s.services.Auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// requireAdmin rejects non-admin sessions before the handler runs
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessionFrom(c).RequireAdmin(); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// sessionFrom returns the session set by authMiddleware, or an empty one
func sessionFrom(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(session.Session); ok {
			return sess
		}
	}
	return session.Session{}
}
