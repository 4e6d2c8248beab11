// internal/domain/plan_history.go
package domain

import (
	"time"
)

// PlanType discriminates the kind of generated plan.
type PlanType string

const (
	PlanTypeWorkout PlanType = "workout"
	PlanTypeMeal    PlanType = "meal"
)

// Valid reports whether t is one of the known plan kinds.
func (t PlanType) Valid() bool {
	return t == PlanTypeWorkout || t == PlanTypeMeal
}

// Metadata carries the calculation inputs/outputs or form data used to generate a plan.
type Metadata map[string]interface{}

// PlanHistoryItem is one entry in a user's append-only plan history.
type PlanHistoryItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`  // Owner, immutable
	Type      PlanType  `json:"type"`    // Immutable
	Content   string    `json:"content"` // Markdown plan text
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"` // Assigned by the store, never by the caller
}

// PlanHistoryInput is what a caller supplies when saving a plan.
type PlanHistoryInput struct {
	UserID   string
	Type     PlanType
	Content  string
	Metadata Metadata
}

// Item builds the record that will be persisted. ID and CreatedAt stay empty.
func (in PlanHistoryInput) Item() PlanHistoryItem {
	return PlanHistoryItem{
		UserID:   in.UserID,
		Type:     in.Type,
		Content:  in.Content,
		Metadata: in.Metadata,
	}
}
