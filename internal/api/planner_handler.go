package api

import (
	"fitformula/api/internal/domain"
	"fitformula/api/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlannerHandler generates meal and workout plans through the plan API.
type PlannerHandler struct {
	generationService service.PlanGenerationService
}

func NewPlannerHandler(generationService service.PlanGenerationService) *PlannerHandler {
	return &PlannerHandler{generationService: generationService}
}

// MealPlanResponse mirrors the plan API answer plus the history outcome.
type MealPlanResponse struct {
	MealPlan     string              `json:"meal_plan"`
	Calculations domain.Calculations `json:"calculations"`
	HistoryID    string              `json:"historyId,omitempty"`
	SaveError    string              `json:"saveError,omitempty"`
}

type WorkoutPlanResponse struct {
	WorkoutPlan string                 `json:"workout_plan"`
	Metadata    domain.WorkoutMetadata `json:"metadata"`
	Exercises   []domain.Exercise      `json:"exercises"`
	HistoryID   string                 `json:"historyId,omitempty"`
	SaveError   string                 `json:"saveError,omitempty"`
}

// GenerateMealPlan godoc
// @Summary Generate a meal plan
// @Description Anonymous callers get one free plan; signed-in users have it saved to their history.
// @Tags Plans
// @Accept json
// @Produce json
// @Param form body domain.MealPlanRequest true "Meal plan form"
// @Success 200 {object} MealPlanResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 402 {object} gin.H "Free trial already used"
// @Failure 502 {object} gin.H "Plan API failure"
// @Router /plans/meal [post]
func (h *PlannerHandler) GenerateMealPlan(c *gin.Context) {
	var req domain.MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	res, err := h.generationService.GenerateMealPlan(c.Request.Context(), identityFromContext(c), c.ClientIP(), req)
	if err != nil {
		respondError(c, err, "Failed to generate meal plan. Please try again.")
		return
	}

	resp := MealPlanResponse{
		MealPlan:     res.Plan.Content,
		Calculations: res.Plan.Calculations,
		HistoryID:    res.HistoryID,
	}
	if res.SaveError != nil {
		_ = c.Error(res.SaveError)
		resp.SaveError = "Plan generated but could not be saved to your history"
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateWorkoutPlan godoc
// @Summary Generate a workout plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param form body domain.WorkoutPlanRequest true "Workout plan form"
// @Success 200 {object} WorkoutPlanResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 502 {object} gin.H "Plan API failure"
// @Router /plans/workout [post]
func (h *PlannerHandler) GenerateWorkoutPlan(c *gin.Context) {
	var req domain.WorkoutPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	res, err := h.generationService.GenerateWorkoutPlan(c.Request.Context(), identityFromContext(c), req)
	if err != nil {
		respondError(c, err, "Failed to generate workout plan. Please try again.")
		return
	}

	resp := WorkoutPlanResponse{
		WorkoutPlan: res.Plan.Content,
		Metadata:    res.Plan.Metadata,
		Exercises:   res.Plan.Exercises,
		HistoryID:   res.HistoryID,
	}
	if res.SaveError != nil {
		_ = c.Error(res.SaveError)
		resp.SaveError = "Plan generated but could not be saved to your history"
	}
	c.JSON(http.StatusOK, resp)
}
