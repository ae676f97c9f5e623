package handlers

import (
	"net/http"

	"github.com/bountydesk/bountydesk/internal/middleware"
	"github.com/bountydesk/bountydesk/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{userService: services.NewUserService(db)}
}

// List returns accounts, filterable by role
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.userService.List(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole promotes a reporter to reviewer or demotes a reviewer back
// PUT /api/users/:username/role
func (h *UserHandler) SetRole(c *gin.Context) {
	username := c.Param("username")
	if username == middleware.GetUsername(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot change your own role"})
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.SetRole(username, req.Role)
	if err != nil {
		if err.Error() == "user not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	services.LogInfo("users", "set_role", username+" role set to "+req.Role, middleware.GetUsername(c), c.ClientIP(), c.Request.UserAgent(), nil)

	c.JSON(http.StatusOK, user)
}
