package handlers

import (
	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports the health of the portal's subsystems.
type HealthHandler struct {
	db        *gorm.DB
	taskQueue services.TaskQueue
}

func NewHealthHandler(db *gorm.DB, taskQueue services.TaskQueue) *HealthHandler {
	return &HealthHandler{db: db, taskQueue: taskQueue}
}

// CheckHealth returns the health status of all subsystems.
// GET /api/health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	queueMode := "sync"
	if h.taskQueue != nil && h.taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var runningSyncs int64
	h.db.Model(&models.SyncRun{}).
		Where("status = ?", models.SyncRunRunning).
		Count(&runningSyncs)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "bountydesk",
		"components": gin.H{
			"database":      dbStatus,
			"queue_mode":    queueMode,
			"running_syncs": runningSyncs,
		},
	})
}
