package model

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Requirement represents a unit of scope attached to one project
type Requirement struct {
	ID             string                            `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title          string                            `json:"title" gorm:"type:varchar(300);index;not null"`
	Description    string                            `json:"description" gorm:"type:text"`
	Type           string                            `json:"type" gorm:"type:varchar(30);index;not null"`
	Priority       string                            `json:"priority" gorm:"type:varchar(20);index;not null"`
	Status         string                            `json:"status" gorm:"type:varchar(30);index;not null"`
	Complexity     *string                           `json:"complexity" gorm:"type:varchar(20)"`
	EstimatedHours string                            `json:"estimated_hours" gorm:"type:varchar(50)"`
	ActualHours    string                            `json:"actual_hours" gorm:"type:varchar(50)"`
	DueDate        *time.Time                        `json:"due_date" gorm:"index"`
	CompletionDate *time.Time                        `json:"completion_date"`
	DynamicFields  datatypes.JSONType[DynamicFields] `json:"dynamic_fields"`
	ProjectID      string                            `json:"project_id" gorm:"type:varchar(36);index;not null"`
	AssignedTo     *string                           `json:"assigned_to" gorm:"type:varchar(36);index"`
	CreatedBy      string                            `json:"created_by" gorm:"type:varchar(36);index;not null"`
	CreatedAt      time.Time                         `json:"created_at"`
	UpdatedAt      time.Time                         `json:"updated_at"`

	// Relations
	Project  *Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Assignee *User    `json:"-" gorm:"foreignKey:AssignedTo;constraint:OnDelete:SET NULL"`
	Creator  *User    `json:"-" gorm:"foreignKey:CreatedBy"`
}

func (r *Requirement) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

var statusProgress = map[string]int{
	RequirementStatusPending:       0,
	RequirementStatusInAnalysis:    25,
	RequirementStatusApproved:      50,
	RequirementStatusInDevelopment: 75,
	RequirementStatusCompleted:     100,
	RequirementStatusCancelled:     0,
}

// IsTerminal reports whether the status is completed or cancelled
func IsTerminal(status string) bool {
	return slices.Contains(TerminalRequirementStatuses, status)
}

// IsOverdue reports whether the due date has passed on a non-terminal requirement
func (r *Requirement) IsOverdue(now time.Time) bool {
	if r.DueDate == nil {
		return false
	}
	return r.DueDate.Before(now) && !IsTerminal(r.Status)
}

// DaysUntilDue is the floor of the remaining whole days, negative once past due
func (r *Requirement) DaysUntilDue(now time.Time) *int {
	if r.DueDate == nil {
		return nil
	}
	days := int(math.Floor(r.DueDate.Sub(now).Hours() / 24))
	return &days
}

// ProgressPercentage maps the status to its fixed milestone
func (r *Requirement) ProgressPercentage() int {
	return statusProgress[r.Status]
}
