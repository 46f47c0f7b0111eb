package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"textnest/domain"
	"textnest/errors"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createGroupRequest struct {
	GroupName string `json:"groupName" binding:"required"`
	Username  string `json:"username" binding:"required"`
}

type joinGroupRequest struct {
	GroupName string `json:"groupName" binding:"required"`
	Username  string `json:"username" binding:"required"`
}

type messageResponse struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	IsGroup   bool      `json:"isGroup"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	token, err := s.auth.Signup(req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": req.Username, "token": token})
}

func (s *Server) handleSignin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	token, err := s.auth.Signin(req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": req.Username, "token": token})
}

func (s *Server) handleListUsers(c *gin.Context) {
	usernames, err := s.directory.ListUsers()
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(usernames, func(username string, _ int) gin.H {
		return gin.H{"username": username}
	}))
}

func (s *Server) handleCreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "groupName and username required"})
		return
	}

	group, err := s.membership.CreateGroup(req.GroupName, req.Username)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"groupId": group.ID, "groupName": group.Name})
}

func (s *Server) handleJoinGroup(c *gin.Context) {
	var req joinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "groupName and username required"})
		return
	}

	group, err := s.membership.JoinGroup(req.GroupName, req.Username)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groupId": group.ID, "groupName": group.Name})
}

func (s *Server) handleMessages(c *gin.Context) {
	history, err := s.directory.History(c.Param("username"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(history, func(message domain.Message, _ int) messageResponse {
		return messageResponse{
			Sender:    message.Sender,
			Receiver:  message.Target,
			Content:   message.Content,
			IsGroup:   message.IsGroup(),
			Timestamp: message.SentAt,
		}
	}))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
