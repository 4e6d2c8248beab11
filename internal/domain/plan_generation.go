package domain

// MealPlanRequest holds the form inputs sent to the plan API for a meal plan.
type MealPlanRequest struct {
	Age                 int      `json:"age"`
	Gender              string   `json:"gender"`
	Weight              float64  `json:"weight"` // kg
	Height              float64  `json:"height"` // cm
	ActivityLevel       string   `json:"activity_level"`
	Goal                string   `json:"goal"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
}

// Calculations are the caloric figures returned with a meal plan.
type Calculations struct {
	BMR            float64 `json:"bmr"`
	TDEE           float64 `json:"tdee"`
	TargetCalories float64 `json:"target_calories"`
}

// MealPlan is a generated meal plan as returned by the plan API.
type MealPlan struct {
	Content      string       `json:"meal_plan"`
	Calculations Calculations `json:"calculations"`
}

// WorkoutPlanRequest holds the form inputs sent to the plan API for a workout plan.
type WorkoutPlanRequest struct {
	FitnessLevel       string   `json:"fitness_level"`
	AvailableEquipment []string `json:"available_equipment"`
	Goals              string   `json:"goals"`
	TimePerSession     int      `json:"time_per_session"`  // minutes
	SessionsPerWeek    int      `json:"sessions_per_week"`
	MedicalConditions  string   `json:"medical_conditions"`
}

// WorkoutMetadata is the descriptive block returned alongside a workout plan.
type WorkoutMetadata struct {
	GeneratedAt  string `json:"generated_at"`
	FitnessLevel string `json:"fitness_level"`
	Goals        string `json:"goals"`
}

// WorkoutPlan is a generated workout plan as returned by the plan API.
type WorkoutPlan struct {
	Content   string          `json:"workout_plan"`
	Metadata  WorkoutMetadata `json:"metadata"`
	Exercises []Exercise      `json:"exercises"`
}

// HistoryMetadata builds the history metadata persisted with a meal plan.
func (p MealPlan) HistoryMetadata(req MealPlanRequest) Metadata {
	return Metadata{
		"calculations": map[string]interface{}{
			"bmr":             p.Calculations.BMR,
			"tdee":            p.Calculations.TDEE,
			"target_calories": p.Calculations.TargetCalories,
		},
		"formData": map[string]interface{}{
			"age":                  req.Age,
			"gender":               req.Gender,
			"weight":               req.Weight,
			"height":               req.Height,
			"activity_level":       req.ActivityLevel,
			"goal":                 req.Goal,
			"dietary_restrictions": req.DietaryRestrictions,
		},
	}
}

// HistoryMetadata builds the history metadata persisted with a workout plan.
func (p WorkoutPlan) HistoryMetadata(req WorkoutPlanRequest) Metadata {
	exercises := make([]interface{}, len(p.Exercises))
	for i, ex := range p.Exercises {
		exercises[i] = ex.ToMetadata()
	}
	return Metadata{
		"metadata": map[string]interface{}{
			"generated_at":  p.Metadata.GeneratedAt,
			"fitness_level": p.Metadata.FitnessLevel,
			"goals":         p.Metadata.Goals,
		},
		"exercises": exercises,
		"formData": map[string]interface{}{
			"fitness_level":       req.FitnessLevel,
			"available_equipment": req.AvailableEquipment,
			"goals":               req.Goals,
			"time_per_session":    req.TimePerSession,
			"sessions_per_week":   req.SessionsPerWeek,
			"medical_conditions":  req.MedicalConditions,
		},
	}
}
