package model

import (
	"slices"
	"strings"
)

// Project status values
const (
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
	ProjectStatusPaused     = "paused"
)

// Priority values shared by projects and requirements
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Requirement type values
const (
	RequirementTypeFunctional    = "functional"
	RequirementTypeNonFunctional = "non-functional"
	RequirementTypeBusinessRule  = "business-rule"
)

// Requirement status values
const (
	RequirementStatusPending       = "pending"
	RequirementStatusInAnalysis    = "in-analysis"
	RequirementStatusApproved      = "approved"
	RequirementStatusInDevelopment = "in-development"
	RequirementStatusCompleted     = "completed"
	RequirementStatusCancelled     = "cancelled"
)

// Complexity values
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Dynamic field types
const (
	FieldTypeText     = "text"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeSelect   = "select"
	FieldTypeTextarea = "textarea"
	FieldTypeBoolean  = "boolean"
)

// Dynamic field scopes
const (
	AppliesToRequirement = "requirement"
	AppliesToProject     = "project"
)

const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

// Enum is a named allow-list of string values.
type Enum struct {
	Name   string
	Values []string
}

func (e Enum) Contains(v string) bool {
	return slices.Contains(e.Values, v)
}

// Allowed renders the allow-list for error messages
func (e Enum) Allowed() string {
	return strings.Join(e.Values, ", ")
}

var (
	ProjectStatuses = Enum{"status", []string{
		ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled, ProjectStatusPaused,
	}}
	Priorities = Enum{"priority", []string{
		PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical,
	}}
	RequirementTypes = Enum{"type", []string{
		RequirementTypeFunctional, RequirementTypeNonFunctional, RequirementTypeBusinessRule,
	}}
	RequirementStatuses = Enum{"status", []string{
		RequirementStatusPending, RequirementStatusInAnalysis, RequirementStatusApproved,
		RequirementStatusInDevelopment, RequirementStatusCompleted, RequirementStatusCancelled,
	}}
	Complexities = Enum{"complexity", []string{
		ComplexityLow, ComplexityMedium, ComplexityHigh,
	}}
	FieldTypes = Enum{"field_type", []string{
		FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect, FieldTypeTextarea, FieldTypeBoolean,
	}}
	AppliesToScopes = Enum{"applies_to", []string{
		AppliesToRequirement, AppliesToProject,
	}}
)

// TerminalRequirementStatuses never count as overdue
var TerminalRequirementStatuses = []string{RequirementStatusCompleted, RequirementStatusCancelled}
