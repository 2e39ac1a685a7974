package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillcompass/skillcompass/internal/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type githubCallbackRequest struct {
	Code string `json:"code" binding:"required"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Invalid request body")
		return
	}

	user, tokens, err := h.auth.Register(c.Request.Context(), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	CreatedResponse(c, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Email and password are required")
		return
	}

	user, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// GitHubURL handles GET /auth/github/url.
func (h *AuthHandler) GitHubURL(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		BadRequestResponse(c, "Missing state parameter")
		return
	}

	url, err := h.auth.GitHubAuthURL(state)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, gin.H{"auth_url": url})
}

// GitHubCallback handles POST /auth/github/callback.
func (h *AuthHandler) GitHubCallback(c *gin.Context) {
	var req githubCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Missing authorization code")
		return
	}

	user, tokens, err := h.auth.LoginWithGitHub(c.Request.Context(), req.Code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Refresh token is required")
		return
	}

	tokens, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, gin.H{"tokens": tokens})
}

// Logout handles POST /auth/logout. Revoking an unknown token succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestResponse(c, "Refresh token is required")
		return
	}

	if err := h.auth.RevokeToken(c.Request.Context(), req.RefreshToken); err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, gin.H{"message": "logged out"})
}

// Me handles GET /user/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		UnauthorizedResponse(c, "Authentication required")
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		ErrorResponseFromError(c, err)
		return
	}

	SuccessResponse(c, user)
}
