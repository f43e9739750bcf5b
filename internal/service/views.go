package service

import (
	"time"

	"requirement-service/internal/model"
)

// UserSafe is the public projection of a referenced user
type UserSafe struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
}

func newUserSafe(u *model.User) *UserSafe {
	if u == nil || u.ID == "" {
		return nil
	}
	return &UserSafe{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      u.Role,
	}
}

// UserSummary is the list projection of a user
type UserSummary struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

func newUserSummary(u *model.User) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName(),
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// UserResponse is the full projection of a user, without the password hash
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newUserResponse(u *model.User) *UserResponse {
	perms := []string(u.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Role:        u.Role,
		Permissions: perms,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ProjectRef is the project header embedded in requirement responses
type ProjectRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ProjectSummary is the list projection of a project
type ProjectSummary struct {
	ID                         string    `json:"id"`
	Name                       string    `json:"name"`
	Status                     string    `json:"status"`
	Priority                   string    `json:"priority"`
	ClientName                 string    `json:"client_name"`
	IsActive                   bool      `json:"is_active"`
	LogoURL                    string    `json:"logo_url"`
	CreatedBy                  string    `json:"created_by"`
	RequirementsCount          int64     `json:"requirements_count"`
	CompletedRequirementsCount int64     `json:"completed_requirements_count"`
	ProgressPercentage         float64   `json:"progress_percentage"`
	CreatedAt                  time.Time `json:"created_at"`
}

// ProjectResponse is the full projection of a project
type ProjectResponse struct {
	ID                         string              `json:"id"`
	Name                       string              `json:"name"`
	Description                string              `json:"description"`
	Status                     string              `json:"status"`
	Priority                   string              `json:"priority"`
	StartDate                  *time.Time          `json:"start_date"`
	EndDate                    *time.Time          `json:"end_date"`
	Budget                     string              `json:"budget"`
	ClientName                 string              `json:"client_name"`
	IsActive                   bool                `json:"is_active"`
	LogoURL                    string              `json:"logo_url"`
	DynamicFields              model.DynamicFields `json:"dynamic_fields"`
	CreatedBy                  string              `json:"created_by"`
	Creator                    *UserSafe           `json:"creator"`
	RequirementsCount          int64               `json:"requirements_count"`
	CompletedRequirementsCount int64               `json:"completed_requirements_count"`
	ProgressPercentage         float64             `json:"progress_percentage"`
	CreatedAt                  time.Time           `json:"created_at"`
	UpdatedAt                  time.Time           `json:"updated_at"`
}

// requirementCounts holds total and completed requirements of one project
type requirementCounts struct {
	Total     int64
	Completed int64
}

func newProjectSummary(p *model.Project, c requirementCounts) ProjectSummary {
	return ProjectSummary{
		ID:                         p.ID,
		Name:                       p.Name,
		Status:                     p.Status,
		Priority:                   p.Priority,
		ClientName:                 p.ClientName,
		IsActive:                   p.IsActive,
		LogoURL:                    p.LogoURL,
		CreatedBy:                  p.CreatedBy,
		RequirementsCount:          c.Total,
		CompletedRequirementsCount: c.Completed,
		ProgressPercentage:         model.ProjectProgress(c.Completed, c.Total),
		CreatedAt:                  p.CreatedAt,
	}
}

func newProjectResponse(p *model.Project, c requirementCounts) *ProjectResponse {
	fields := p.DynamicFields.Data()
	if fields == nil {
		fields = model.DynamicFields{}
	}
	return &ProjectResponse{
		ID:                         p.ID,
		Name:                       p.Name,
		Description:                p.Description,
		Status:                     p.Status,
		Priority:                   p.Priority,
		StartDate:                  p.StartDate,
		EndDate:                    p.EndDate,
		Budget:                     p.Budget,
		ClientName:                 p.ClientName,
		IsActive:                   p.IsActive,
		LogoURL:                    p.LogoURL,
		DynamicFields:              fields,
		CreatedBy:                  p.CreatedBy,
		Creator:                    newUserSafe(p.Creator),
		RequirementsCount:          c.Total,
		CompletedRequirementsCount: c.Completed,
		ProgressPercentage:         model.ProjectProgress(c.Completed, c.Total),
		CreatedAt:                  p.CreatedAt,
		UpdatedAt:                  p.UpdatedAt,
	}
}

// RequirementSummary is the list projection of a requirement
type RequirementSummary struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Type               string     `json:"type"`
	Priority           string     `json:"priority"`
	Status             string     `json:"status"`
	Complexity         *string    `json:"complexity"`
	DueDate            *time.Time `json:"due_date"`
	ProjectID          string     `json:"project_id"`
	AssignedTo         *string    `json:"assigned_to"`
	CreatedBy          string     `json:"created_by"`
	IsOverdue          bool       `json:"is_overdue"`
	ProgressPercentage int        `json:"progress_percentage"`
	CreatedAt          time.Time  `json:"created_at"`
}

func newRequirementSummary(r *model.Requirement, now time.Time) RequirementSummary {
	return RequirementSummary{
		ID:                 r.ID,
		Title:              r.Title,
		Type:               r.Type,
		Priority:           r.Priority,
		Status:             r.Status,
		Complexity:         r.Complexity,
		DueDate:            r.DueDate,
		ProjectID:          r.ProjectID,
		AssignedTo:         r.AssignedTo,
		CreatedBy:          r.CreatedBy,
		IsOverdue:          r.IsOverdue(now),
		ProgressPercentage: r.ProgressPercentage(),
		CreatedAt:          r.CreatedAt,
	}
}

// RequirementResponse is the full projection of a requirement
type RequirementResponse struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Type               string              `json:"type"`
	Priority           string              `json:"priority"`
	Status             string              `json:"status"`
	Complexity         *string             `json:"complexity"`
	EstimatedHours     string              `json:"estimated_hours"`
	ActualHours        string              `json:"actual_hours"`
	DueDate            *time.Time          `json:"due_date"`
	CompletionDate     *time.Time          `json:"completion_date"`
	DynamicFields      model.DynamicFields `json:"dynamic_fields"`
	ProjectID          string              `json:"project_id"`
	AssignedTo         *string             `json:"assigned_to"`
	CreatedBy          string              `json:"created_by"`
	Project            *ProjectRef         `json:"project"`
	AssignedUser       *UserSafe           `json:"assigned_user"`
	Creator            *UserSafe           `json:"creator"`
	IsOverdue          bool                `json:"is_overdue"`
	DaysUntilDue       *int                `json:"days_until_due"`
	ProgressPercentage int                 `json:"progress_percentage"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func newRequirementResponse(r *model.Requirement, now time.Time) *RequirementResponse {
	fields := r.DynamicFields.Data()
	if fields == nil {
		fields = model.DynamicFields{}
	}
	var project *ProjectRef
	if r.Project != nil && r.Project.ID != "" {
		project = &ProjectRef{ID: r.Project.ID, Name: r.Project.Name, Status: r.Project.Status}
	}
	return &RequirementResponse{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		Type:               r.Type,
		Priority:           r.Priority,
		Status:             r.Status,
		Complexity:         r.Complexity,
		EstimatedHours:     r.EstimatedHours,
		ActualHours:        r.ActualHours,
		DueDate:            r.DueDate,
		CompletionDate:     r.CompletionDate,
		DynamicFields:      fields,
		ProjectID:          r.ProjectID,
		AssignedTo:         r.AssignedTo,
		CreatedBy:          r.CreatedBy,
		Project:            project,
		AssignedUser:       newUserSafe(r.Assignee),
		Creator:            newUserSafe(r.Creator),
		IsOverdue:          r.IsOverdue(now),
		DaysUntilDue:       r.DaysUntilDue(now),
		ProgressPercentage: r.ProgressPercentage(),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// DynamicFieldResponse is the projection of a dynamic field definition
type DynamicFieldResponse struct {
	ID               string         `json:"id"`
	FieldName        string         `json:"field_name"`
	FieldType        string         `json:"field_type"`
	FieldLabel       string         `json:"field_label"`
	FieldDescription string         `json:"field_description"`
	Options          []string       `json:"options"`
	IsRequired       bool           `json:"is_required"`
	IsActive         bool           `json:"is_active"`
	AppliesTo        string         `json:"applies_to"`
	OrderIndex       string         `json:"order_index"`
	ValidationRules  map[string]any `json:"validation_rules"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func newDynamicFieldResponse(d *model.DynamicFieldDefinition) *DynamicFieldResponse {
	options := []string(d.Options)
	if options == nil {
		options = []string{}
	}
	rules := map[string]any(d.ValidationRules)
	if rules == nil {
		rules = map[string]any{}
	}
	return &DynamicFieldResponse{
		ID:               d.ID,
		FieldName:        d.FieldName,
		FieldType:        d.FieldType,
		FieldLabel:       d.FieldLabel,
		FieldDescription: d.FieldDescription,
		Options:          options,
		IsRequired:       d.IsRequired,
		IsActive:         d.IsActive,
		AppliesTo:        d.AppliesTo,
		OrderIndex:       d.OrderIndex,
		ValidationRules:  rules,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
