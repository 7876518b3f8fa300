package domain

import (
	"math"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	Completed   bool      `json:"completed"`
	Subject     string    `json:"subject"`
	Priority    Priority  `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// TaskPatch is a partial update of a task. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Priority    *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

type StudyPlan struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject" validate:"required"`
	Tasks          []Task    `json:"tasks" validate:"dive"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	TargetHours    float64   `json:"targetHours" validate:"min=0"`
	CompletedHours float64   `json:"completedHours" validate:"min=0"`
}

// Progress is CompletedHours as a rounded percentage of TargetHours, capped at 100.
func (p StudyPlan) Progress() int {
	if p.TargetHours <= 0 {
		return 0
	}
	return min(100, int(math.Round(p.CompletedHours/p.TargetHours*100)))
}
