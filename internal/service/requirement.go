package service

import (
	"context"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"
	"requirement-service/internal/policy"
	"requirement-service/pkg/optional"
	"requirement-service/prometheus"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequirementInput is the payload for creating a requirement
type RequirementInput struct {
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Type           string              `json:"type"`
	Priority       string              `json:"priority"`
	Status         string              `json:"status"`
	Complexity     *string             `json:"complexity"`
	EstimatedHours string              `json:"estimated_hours"`
	ActualHours    string              `json:"actual_hours"`
	DueDate        *time.Time          `json:"due_date"`
	ProjectID      string              `json:"project_id"`
	AssignedTo     *string             `json:"assigned_to"`
	DynamicFields  model.DynamicFields `json:"dynamic_fields"`
}

// RequirementUpdate is the partial payload for updating a requirement.
// DynamicFields replaces the stored map when present.
type RequirementUpdate struct {
	Title          optional.Field[string]              `json:"title"`
	Description    optional.Field[string]              `json:"description"`
	Type           optional.Field[string]              `json:"type"`
	Priority       optional.Field[string]              `json:"priority"`
	Status         optional.Field[string]              `json:"status"`
	Complexity     optional.Field[string]              `json:"complexity"`
	EstimatedHours optional.Field[string]              `json:"estimated_hours"`
	ActualHours    optional.Field[string]              `json:"actual_hours"`
	DueDate        optional.Field[time.Time]           `json:"due_date"`
	CompletionDate optional.Field[time.Time]           `json:"completion_date"`
	AssignedTo     optional.Field[string]              `json:"assigned_to"`
	DynamicFields  optional.Field[model.DynamicFields] `json:"dynamic_fields"`
}

// RequirementFilter narrows List. IsOverdue is tri-state: nil means no filter.
type RequirementFilter struct {
	Search     string
	ProjectID  string
	Type       string
	Priority   string
	Status     string
	Complexity string
	AssignedTo string
	CreatedBy  string
	IsOverdue  *bool
}

// RequirementService manages requirements and their ownership rules
type RequirementService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRequirementService(db *gorm.DB) *RequirementService {
	return &RequirementService{db: db, now: utcNow}
}

// List returns requirement summaries newest first
func (s *RequirementService) List(ctx context.Context, params ListParams, filter RequirementFilter) (*Page[RequirementSummary], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	params = params.Normalize()

	query, err := s.filtered(s.db.WithContext(ctx).Model(&model.Requirement{}), filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internal(err, "failed to count requirements")
	}

	var reqs []model.Requirement
	if err := query.Order("created_at desc").Scopes(paginate(params)).Find(&reqs).Error; err != nil {
		return nil, internal(err, "failed to list requirements")
	}

	now := s.now()
	items := make([]RequirementSummary, len(reqs))
	for i := range reqs {
		items[i] = newRequirementSummary(&reqs[i], now)
	}
	return &Page[RequirementSummary]{Items: items, Total: total, Skip: params.Skip, Limit: params.Limit}, nil
}

func (s *RequirementService) filtered(query *gorm.DB, filter RequirementFilter) (*gorm.DB, error) {
	for _, check := range []struct {
		enum  model.Enum
		value string
	}{
		{model.RequirementTypes, filter.Type},
		{model.Priorities, filter.Priority},
		{model.RequirementStatuses, filter.Status},
		{model.Complexities, filter.Complexity},
	} {
		if err := checkOptionalEnum(check.enum, check.value); err != nil {
			return nil, err
		}
	}

	query = query.Scopes(searchScope(filter.Search, "title", "description"))
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Complexity != "" {
		query = query.Where("complexity = ?", filter.Complexity)
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.IsOverdue != nil {
		now := s.now()
		if *filter.IsOverdue {
			query = query.Scopes(overdueScope(now))
		} else {
			query = query.Where("(due_date IS NULL OR due_date >= ? OR status IN ?)", now, model.TerminalRequirementStatuses)
		}
	}
	return query, nil
}

// overdueScope keeps requirements with due_date < now that are not completed or cancelled
func overdueScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("due_date IS NOT NULL AND due_date < ? AND status NOT IN ?", now, model.TerminalRequirementStatuses)
	}
}

// Get returns the full requirement with its project, assignee and creator
func (s *RequirementService) Get(ctx context.Context, id string) (*RequirementResponse, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	return s.response(s.db.WithContext(ctx), id)
}

func (s *RequirementService) response(tx *gorm.DB, id string) (*RequirementResponse, error) {
	var r model.Requirement
	err := tx.Preload("Project").Preload("Assignee").Preload("Creator").
		Where("id = ?", id).First(&r).Error
	if err != nil {
		return nil, notFound(err, "requirement", id)
	}
	return newRequirementResponse(&r, s.now()), nil
}

// Create checks the project and assignee references, enums and requirement dynamic fields
func (s *RequirementService) Create(ctx context.Context, actor *model.User, in RequirementInput) (*RequirementResponse, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	r := &model.Requirement{
		Title:          trimmed(in.Title),
		Description:    in.Description,
		Type:           in.Type,
		Priority:       in.Priority,
		Status:         in.Status,
		Complexity:     in.Complexity,
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		DueDate:        in.DueDate,
		ProjectID:      in.ProjectID,
		AssignedTo:     in.AssignedTo,
		CreatedBy:      actor.ID,
	}
	if r.Type == "" {
		r.Type = model.RequirementTypeFunctional
	}
	if r.Priority == "" {
		r.Priority = model.PriorityMedium
	}
	if r.Status == "" {
		r.Status = model.RequirementStatusPending
	}
	if r.Complexity != nil && *r.Complexity == "" {
		r.Complexity = nil
	}
	if r.AssignedTo != nil && *r.AssignedTo == "" {
		r.AssignedTo = nil
	}
	if r.ProjectID == "" {
		return nil, apperror.Validation("project_id is required")
	}
	if err := validateRequirement(r); err != nil {
		return nil, err
	}

	var resp *RequirementResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Project{}).Where("id = ?", r.ProjectID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.NotFound("project %s not found", r.ProjectID)
		}
		if r.AssignedTo != nil {
			if err := ensureAssignable(tx, *r.AssignedTo); err != nil {
				return err
			}
		}
		fields, err := validateDynamicValues(tx, model.AppliesToRequirement, in.DynamicFields)
		if err != nil {
			return err
		}
		r.DynamicFields = datatypes.NewJSONType(fields)
		if r.Status == model.RequirementStatusCompleted {
			now := s.now()
			r.CompletionDate = &now
		}

		if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
			return err
		}
		resp, err = s.response(tx, r.ID)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to create requirement")
	}
	return resp, nil
}

// Update applies the supplied fields. The creator, the assignee or a requirement admin may edit.
func (s *RequirementService) Update(ctx context.Context, actor *model.User, id string, in RequirementUpdate) (*RequirementResponse, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var resp *RequirementResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := loadRequirement(tx, id)
		if err != nil {
			return err
		}
		if !policy.CanEditRequirement(actor, r) {
			return apperror.Forbidden("not enough permissions")
		}

		if v, ok := in.Title.Get(); ok {
			r.Title = trimmed(v)
		} else if in.Title.Set {
			return apperror.Validation("title cannot be null")
		}
		if in.Description.Set {
			r.Description = in.Description.Value
		}
		if v, ok := in.Type.Get(); ok {
			r.Type = v
		} else if in.Type.Set {
			return apperror.Validation("type cannot be null")
		}
		if v, ok := in.Priority.Get(); ok {
			r.Priority = v
		} else if in.Priority.Set {
			return apperror.Validation("priority cannot be null")
		}
		if v, ok := in.Status.Get(); ok {
			r.Status = v
		} else if in.Status.Set {
			return apperror.Validation("status cannot be null")
		}
		if in.Complexity.Set {
			r.Complexity = in.Complexity.Ptr()
			if r.Complexity != nil && *r.Complexity == "" {
				r.Complexity = nil
			}
		}
		if in.EstimatedHours.Set {
			r.EstimatedHours = in.EstimatedHours.Value
		}
		if in.ActualHours.Set {
			r.ActualHours = in.ActualHours.Value
		}
		if in.DueDate.Set {
			r.DueDate = in.DueDate.Ptr()
		}
		if in.CompletionDate.Set {
			r.CompletionDate = in.CompletionDate.Ptr()
		}
		if in.AssignedTo.Set {
			r.AssignedTo = in.AssignedTo.Ptr()
			if r.AssignedTo != nil && *r.AssignedTo == "" {
				r.AssignedTo = nil
			}
			if r.AssignedTo != nil {
				if err := ensureAssignable(tx, *r.AssignedTo); err != nil {
					return err
				}
			}
		}
		if err := validateRequirement(r); err != nil {
			return err
		}
		if in.DynamicFields.Set {
			fields, err := validateDynamicValues(tx, model.AppliesToRequirement, in.DynamicFields.Value)
			if err != nil {
				return err
			}
			r.DynamicFields = datatypes.NewJSONType(fields)
		}

		if err := tx.Omit(clause.Associations).Save(r).Error; err != nil {
			return err
		}
		resp, err = s.response(tx, r.ID)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to update requirement")
	}
	return resp, nil
}

// Delete removes the requirement. Only the creator or a requirement admin may delete.
func (s *RequirementService) Delete(ctx context.Context, actor *model.User, id string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := loadRequirement(tx, id)
		if err != nil {
			return err
		}
		if !policy.CanDeleteRequirement(actor, r) {
			return apperror.Forbidden("not enough permissions")
		}
		return tx.Delete(r).Error
	})
	return internal(err, "failed to delete requirement")
}

// Assign re-targets the requirement to userID, which must exist
func (s *RequirementService) Assign(ctx context.Context, id, userID string) (*RequirementResponse, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var resp *RequirementResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := loadRequirement(tx, id)
		if err != nil {
			return err
		}
		u, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if !u.IsActive {
			return apperror.Validation("assigned user %s is not active", userID)
		}
		if err := tx.Model(r).Update("assigned_to", userID).Error; err != nil {
			return err
		}
		resp, err = s.response(tx, r.ID)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to assign requirement")
	}
	return resp, nil
}

// Complete forces the completed status and stamps the completion date
func (s *RequirementService) Complete(ctx context.Context, id string) (*RequirementResponse, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var resp *RequirementResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := loadRequirement(tx, id)
		if err != nil {
			return err
		}
		err = tx.Model(r).Updates(map[string]any{
			"status":          model.RequirementStatusCompleted,
			"completion_date": s.now(),
		}).Error
		if err != nil {
			return err
		}
		resp, err = s.response(tx, r.ID)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to complete requirement")
	}
	return resp, nil
}

func loadRequirement(tx *gorm.DB, id string) (*model.Requirement, error) {
	var r model.Requirement
	if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
		return nil, notFound(err, "requirement", id)
	}
	return &r, nil
}

// ensureAssignable requires an existing, active user
func ensureAssignable(tx *gorm.DB, userID string) error {
	var u model.User
	if err := tx.Select("id", "is_active").Where("id = ?", userID).First(&u).Error; err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Validation("assigned user %s does not exist", userID)
		}
		return err
	}
	if !u.IsActive {
		return apperror.Validation("assigned user %s is not active", userID)
	}
	return nil
}

func validateRequirement(r *model.Requirement) error {
	if r.Title == "" || len(r.Title) > 300 {
		return apperror.Validation("title must be between 1 and 300 characters")
	}
	if err := checkEnum(model.RequirementTypes, r.Type); err != nil {
		return err
	}
	if err := checkEnum(model.Priorities, r.Priority); err != nil {
		return err
	}
	if err := checkEnum(model.RequirementStatuses, r.Status); err != nil {
		return err
	}
	if r.Complexity != nil {
		return checkEnum(model.Complexities, *r.Complexity)
	}
	return nil
}
