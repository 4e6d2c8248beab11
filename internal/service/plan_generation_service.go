package service

import (
	"context"
	"errors"
	"fitformula/api/internal/cache"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/plangen"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrFreeTrialUsed = errors.New("free trial plan already used, sign in to generate more plans")
)

// MealPlanResult is a generated meal plan plus the outcome of saving it.
// HistoryID is empty for anonymous callers and when the save failed.
type MealPlanResult struct {
	Plan      *domain.MealPlan
	HistoryID string
	SaveError error
}

// WorkoutPlanResult is a generated workout plan plus the outcome of saving it.
type WorkoutPlanResult struct {
	Plan      *domain.WorkoutPlan
	HistoryID string
	SaveError error
}

type PlanGenerationService interface {
	// GenerateMealPlan asks the plan API for a meal plan. Anonymous callers
	// get one per clientKey within the trial window.
	GenerateMealPlan(ctx context.Context, actor *domain.Identity, clientKey string, req domain.MealPlanRequest) (*MealPlanResult, error)
	GenerateWorkoutPlan(ctx context.Context, actor *domain.Identity, req domain.WorkoutPlanRequest) (*WorkoutPlanResult, error)
}

type planGenerationService struct {
	client      plangen.Client
	history     PlanHistoryService
	trials      cache.TrialTracker
	trialWindow time.Duration
	logger      *zap.Logger
}

func NewPlanGenerationService(
	client plangen.Client,
	history PlanHistoryService,
	trials cache.TrialTracker,
	trialWindow time.Duration,
	logger *zap.Logger,
) PlanGenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if trialWindow <= 0 {
		trialWindow = 24 * time.Hour
	}
	return &planGenerationService{
		client:      client,
		history:     history,
		trials:      trials,
		trialWindow: trialWindow,
		logger:      logger,
	}
}

func (s *planGenerationService) GenerateMealPlan(ctx context.Context, actor *domain.Identity, clientKey string, req domain.MealPlanRequest) (*MealPlanResult, error) {
	if err := validateMealRequest(req); err != nil {
		return nil, err
	}

	anonymous := actor == nil
	if anonymous {
		ok, err := s.trials.Consume(ctx, clientKey, s.trialWindow)
		if err != nil {
			return nil, fmt.Errorf("check free trial: %w", err)
		}
		if !ok {
			return nil, ErrFreeTrialUsed
		}
	}

	plan, err := s.client.GenerateMealPlan(ctx, req)
	if err != nil {
		if anonymous {
			s.releaseTrial(clientKey)
		}
		return nil, err
	}

	result := &MealPlanResult{Plan: plan}
	if !anonymous {
		result.HistoryID, result.SaveError = s.save(ctx, actor, domain.PlanTypeMeal, plan.Content, plan.HistoryMetadata(req))
	}
	return result, nil
}

func (s *planGenerationService) GenerateWorkoutPlan(ctx context.Context, actor *domain.Identity, req domain.WorkoutPlanRequest) (*WorkoutPlanResult, error) {
	if err := validateWorkoutRequest(req); err != nil {
		return nil, err
	}

	plan, err := s.client.GenerateWorkoutPlan(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &WorkoutPlanResult{Plan: plan}
	if actor != nil {
		result.HistoryID, result.SaveError = s.save(ctx, actor, domain.PlanTypeWorkout, plan.Content, plan.HistoryMetadata(req))
	}
	return result, nil
}

// save persists a generated plan. A failure is returned to the caller next to
// the plan rather than failing the whole generation.
func (s *planGenerationService) save(ctx context.Context, actor *domain.Identity, t domain.PlanType, content string, md domain.Metadata) (string, error) {
	id, err := s.history.Save(ctx, actor, domain.PlanHistoryInput{
		UserID:   actor.UserID,
		Type:     t,
		Content:  content,
		Metadata: md,
	})
	if err != nil {
		s.logger.Warn("failed to save generated plan",
			zap.String("userId", actor.UserID),
			zap.String("type", string(t)),
			zap.Error(err),
		)
		return "", err
	}
	return id, nil
}

func (s *planGenerationService) releaseTrial(key string) {
	// The request context may already be cancelled at this point
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.trials.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release free trial", zap.String("clientKey", key), zap.Error(err))
	}
}

func validateMealRequest(req domain.MealPlanRequest) error {
	var missing []string
	if req.Age <= 0 {
		missing = append(missing, "age")
	}
	if strings.TrimSpace(req.Gender) == "" {
		missing = append(missing, "gender")
	}
	if req.Weight <= 0 {
		missing = append(missing, "weight")
	}
	if req.Height <= 0 {
		missing = append(missing, "height")
	}
	if strings.TrimSpace(req.ActivityLevel) == "" {
		missing = append(missing, "activity_level")
	}
	if strings.TrimSpace(req.Goal) == "" {
		missing = append(missing, "goal")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing or invalid %s", ErrValidationFailed, strings.Join(missing, ", "))
	}
	return nil
}

func validateWorkoutRequest(req domain.WorkoutPlanRequest) error {
	if len(req.AvailableEquipment) == 0 {
		return fmt.Errorf("%w: select at least one piece of equipment", ErrValidationFailed)
	}
	if strings.TrimSpace(req.FitnessLevel) == "" || strings.TrimSpace(req.Goals) == "" {
		return fmt.Errorf("%w: fitness_level and goals are required", ErrValidationFailed)
	}
	if req.TimePerSession < 0 || req.SessionsPerWeek < 0 {
		return fmt.Errorf("%w: session length and frequency cannot be negative", ErrValidationFailed)
	}
	return nil
}
