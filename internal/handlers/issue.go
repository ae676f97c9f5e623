package handlers

import (
	"errors"
	"strconv"

	"github.com/bountydesk/bountydesk/internal/middleware"
	"github.com/bountydesk/bountydesk/internal/services"
	"github.com/bountydesk/bountydesk/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type IssueHandler struct {
	issueService  *services.IssueService
	reviewService *services.ReviewService
}

func NewIssueHandler(db *gorm.DB) *IssueHandler {
	return &IssueHandler{
		issueService:  services.NewIssueService(db),
		reviewService: services.NewReviewService(db),
	}
}

// List returns the mirrored issues, filterable by status, reporter and repo
// GET /api/issues
func (h *IssueHandler) List(c *gin.Context) {
	var req services.IssueListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.issueService.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// MyIssues returns the issues reported by the logged-in user
// GET /api/issues/my
func (h *IssueHandler) MyIssues(c *gin.Context) {
	var req services.IssueListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Reporter = middleware.GetUsername(c)

	resp, err := h.issueService.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// Get returns a single issue by its GitHub issue id
// GET /api/issues/:id
func (h *IssueHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	issue, err := h.issueService.GetByGitHubID(id)
	if err != nil {
		response.Error(c, response.IssueNotFound(id))
		return
	}

	response.Success(c, issue)
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus records a reviewer verdict and adjusts the reporter score
// PATCH /api/issues/:id/status
func (h *IssueHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	reviewer := middleware.GetUsername(c)
	issue, reporter, err := h.reviewService.SetStatus(id, req.Status, reviewer)
	if err != nil {
		response.Error(c, reviewError(err, id, req.Status))
		return
	}

	services.LogInfo("review", "set_status", "issue "+c.Param("id")+" marked "+req.Status, reviewer, c.ClientIP(), c.Request.UserAgent(), nil)

	response.Success(c, gin.H{
		"issue":    issue,
		"reporter": reporter,
	})
}

// reviewError maps the review engine's sentinel errors onto portal error
// codes so every failure mode stays distinguishable on the wire.
func reviewError(err error, githubIssueID int64, status string) error {
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		return response.InvalidStatus(status)
	case errors.Is(err, services.ErrIssueNotFound):
		return response.IssueNotFound(githubIssueID)
	case errors.Is(err, services.ErrIssueLocked):
		return response.IssueLocked(githubIssueID)
	case errors.Is(err, services.ErrReviewConflict):
		return response.ReviewConflict()
	default:
		return err
	}
}
