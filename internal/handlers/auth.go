package handlers

import (
	"net/http"
	"net/url"

	"github.com/bountydesk/bountydesk/internal/config"
	"github.com/bountydesk/bountydesk/internal/middleware"
	"github.com/bountydesk/bountydesk/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
	frontendURL string
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, cfg),
		frontendURL: cfg.OAuth.FrontendURL,
	}
}

// Login handles local account login (the seeded admin)
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	services.LogInfo("auth", "login", "local login: "+req.Username, req.Username, c.ClientIP(), c.Request.UserAgent(), nil)
	c.JSON(http.StatusOK, resp)
}

// GitHubLogin redirects the browser to GitHub's authorization page
// GET /api/auth/github
func (h *AuthHandler) GitHubLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, h.authService.AuthCodeURL())
}

// GitHubCallback completes the OAuth flow and hands the token back to the
// frontend via a redirect
// GET /api/auth/github/callback
func (h *AuthHandler) GitHubCallback(c *gin.Context) {
	resp, err := h.authService.HandleOAuthCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error="+url.QueryEscape(err.Error()))
		return
	}

	services.LogInfo("auth", "oauth_login", "github login: "+resp.User.Username, resp.User.Username, c.ClientIP(), c.Request.UserAgent(), nil)
	c.Redirect(http.StatusFound, h.frontendURL+"/login?token="+url.QueryEscape(resp.Token))
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout handles user logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// CreateAdminIfNotExists creates the default admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
