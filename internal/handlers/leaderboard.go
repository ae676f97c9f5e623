package handlers

import (
	"github.com/bountydesk/bountydesk/internal/services"
	"github.com/bountydesk/bountydesk/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(db *gorm.DB) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: services.NewLeaderboardService(db),
	}
}

// Top returns reporters ranked by total points
// GET /api/leaderboard
func (h *LeaderboardHandler) Top(c *gin.Context) {
	var req services.LeaderboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entries, err := h.leaderboardService.Top(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, entries)
}
