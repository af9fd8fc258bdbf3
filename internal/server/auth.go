package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/milkround/milkround/internal/auth/domain"
)

func (s *Server) registerAuthRoutes() {
	group := s.engine.Group("/auth")
	group.POST("/register", s.handleRegister)
	group.POST("/login", s.handleLogin)
	group.POST("/logout", s.AuthRequired(), s.handleLogout)
	group.GET("/me", s.AuthRequired(), s.handleMe)
}

type sessionResponse struct {
	Account   *authdomain.Account `json:"account"`
	Token     string              `json:"token"`
	ExpiresAt string              `json:"expires_at"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req authdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	result, err := s.authsvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, sessionResponse{
		Account:   result.Account,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	result, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusOK, sessionResponse{
		Account:   result.Account,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	token := c.GetString(contextTokenKey)
	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "logged out")
}

func (s *Server) handleMe(c *gin.Context) {
	account, err := s.authsvc.GetAccount(c.Request.Context(), c.GetString(contextAccountIDKey))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}
