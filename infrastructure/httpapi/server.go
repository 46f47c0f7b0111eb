// Package httpapi is the REST edge: account signup/signin, the user
// directory, durable group mutations, and history fetches. Route shapes
// follow the collaborating frontend; the relay core does not depend on them.
package httpapi

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"textnest/contract"
	"textnest/infrastructure/ws"
	"textnest/services"
)

type Server struct {
	log        *slog.Logger
	auth       services.IAuthService
	directory  services.IDirectoryService
	membership contract.IMembershipIndex
	socket     *ws.Handler
}

func NewServer(log *slog.Logger, auth services.IAuthService,
	directory services.IDirectoryService, membership contract.IMembershipIndex,
	socket *ws.Handler) *Server {
	return &Server{
		log:        log,
		auth:       auth,
		directory:  directory,
		membership: membership,
		socket:     socket,
	}
}

// Routes assembles the gin engine. Recovery only; request logging stays on
// the slog side.
func (s *Server) Routes(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(allowedOrigins))

	r.POST("/signup", s.handleSignup)
	r.POST("/signin", s.handleSignin)
	r.GET("/users", s.handleListUsers)
	r.POST("/group/create", s.handleCreateGroup)
	r.POST("/group/join", s.handleJoinGroup)
	r.GET("/messages/:username", s.handleMessages)
	r.GET("/health", s.handleHealth)

	if s.socket != nil {
		r.GET("/ws", s.socket.Serve)
	}

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && slices.Contains(allowedOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
