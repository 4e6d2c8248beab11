package api

import (
	"fitformula/api/internal/domain"
	"fitformula/api/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HistoryHandler serves the signed-in user's plan history.
type HistoryHandler struct {
	historyService service.PlanHistoryService
	exportService  service.ExportService
}

func NewHistoryHandler(historyService service.PlanHistoryService, exportService service.ExportService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, exportService: exportService}
}

// SavePlanRequest is the body of POST /history. UserID defaults to the caller.
type SavePlanRequest struct {
	UserID   string          `json:"userId"`
	Type     domain.PlanType `json:"type" binding:"required"`
	Content  string          `json:"content" binding:"required"`
	Metadata domain.Metadata `json:"metadata"`
}

type SavePlanResponse struct {
	ID string `json:"id"`
}

// ListHistory godoc
// @Summary List plan history
// @Description Returns the caller's saved plans, newest first.
// @Tags History
// @Produce json
// @Param type query string false "workout or meal"
// @Success 200 {array} domain.PlanHistoryItem
// @Failure 400 {object} gin.H "Unknown plan type"
// @Failure 503 {object} gin.H "History store unavailable"
// @Router /history [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	actor := identityFromContext(c)
	if actor == nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	planType := domain.PlanType(c.Query("type"))
	items, err := h.historyService.List(c.Request.Context(), actor, actor.UserID, planType)
	if err != nil {
		respondError(c, err, "Failed to load plan history")
		return
	}
	c.JSON(http.StatusOK, items)
}

// SavePlan godoc
// @Summary Save a plan
// @Description Appends a generated plan to the caller's history.
// @Tags History
// @Accept json
// @Produce json
// @Param plan body SavePlanRequest true "Plan to save"
// @Success 201 {object} SavePlanResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Not allowed to save for this user"
// @Failure 503 {object} gin.H "History store unavailable"
// @Router /history [post]
func (h *HistoryHandler) SavePlan(c *gin.Context) {
	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	actor := identityFromContext(c)
	userID := req.UserID
	if userID == "" && actor != nil {
		userID = actor.UserID
	}

	id, err := h.historyService.Save(c.Request.Context(), actor, domain.PlanHistoryInput{
		UserID:   userID,
		Type:     req.Type,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(c, err, "Failed to save plan")
		return
	}
	c.JSON(http.StatusCreated, SavePlanResponse{ID: id})
}

// GetPlan returns a single plan from the caller's history.
func (h *HistoryHandler) GetPlan(c *gin.Context) {
	item, err := h.historyService.Get(c.Request.Context(), identityFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load plan")
		return
	}
	c.JSON(http.StatusOK, item)
}

// ExportPlan godoc
// @Summary Export a plan
// @Description Uploads the plan as markdown and returns a temporary download URL.
// @Tags History
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} service.PlanExport
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 501 {object} gin.H "Export not configured"
// @Router /history/{id}/export [get]
func (h *HistoryHandler) ExportPlan(c *gin.Context) {
	export, err := h.exportService.ExportPlan(c.Request.Context(), identityFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to export plan")
		return
	}
	c.JSON(http.StatusOK, export)
}
