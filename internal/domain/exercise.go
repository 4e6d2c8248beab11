// internal/domain/exercise.go
package domain

// Exercise is a single exercise suggested inside a generated workout plan.
type Exercise struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	Image       string `json:"image,omitempty"` // Optional illustration URL
}

// ToMetadata flattens the exercise for storage in plan metadata.
func (e Exercise) ToMetadata() map[string]interface{} {
	m := map[string]interface{}{
		"name": e.Name,
		"sets": e.Sets,
		"reps": e.Reps,
	}
	if e.Description != "" {
		m["description"] = e.Description
	}
	if e.Image != "" {
		m["image"] = e.Image
	}
	return m
}
