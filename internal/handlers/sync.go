package handlers

import (
	"net/http"

	"github.com/bountydesk/bountydesk/internal/middleware"
	"github.com/bountydesk/bountydesk/internal/services"
	"github.com/bountydesk/bountydesk/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SyncHandler struct {
	dashboardService *services.DashboardService
	taskQueue        services.TaskQueue
}

func NewSyncHandler(db *gorm.DB, taskQueue services.TaskQueue) *SyncHandler {
	return &SyncHandler{
		dashboardService: services.NewDashboardService(db),
		taskQueue:        taskQueue,
	}
}

// TriggerSync enqueues a full sync pass over the tracked repositories
// POST /api/issues/sync
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	username := middleware.GetUsername(c)
	task := &services.JobTask{
		Type:        services.TaskTypeSync,
		Trigger:     "manual",
		RequestedBy: username,
	}

	if err := h.taskQueue.Enqueue(task); err != nil {
		response.ServerError(c, "failed to enqueue sync: "+err.Error())
		return
	}

	services.LogInfo("sync", "trigger", "manual sync requested", username, c.ClientIP(), c.Request.UserAgent(), nil)

	response.Accepted(c, "sync enqueued", gin.H{"async": h.taskQueue.IsAsync()})
}

// TriggerRecompute enqueues a full rebuild of reporter point totals
// POST /api/scores/recompute
func (h *SyncHandler) TriggerRecompute(c *gin.Context) {
	username := middleware.GetUsername(c)
	task := &services.JobTask{
		Type:        services.TaskTypeRecompute,
		Trigger:     "manual",
		RequestedBy: username,
	}

	if err := h.taskQueue.Enqueue(task); err != nil {
		response.ServerError(c, "failed to enqueue recompute: "+err.Error())
		return
	}

	services.LogInfo("scores", "recompute", "score recompute requested", username, c.ClientIP(), c.Request.UserAgent(), nil)

	response.Accepted(c, "recompute enqueued", gin.H{"async": h.taskQueue.IsAsync()})
}

// ListRuns returns recent sync passes, newest first
// GET /api/sync-runs
func (h *SyncHandler) ListRuns(c *gin.Context) {
	var req services.SyncRunListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runs, err := h.dashboardService.RecentSyncRuns(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": runs})
}
