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

// ProjectInput is the payload for creating a project
type ProjectInput struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Status        string              `json:"status"`
	Priority      string              `json:"priority"`
	StartDate     *time.Time          `json:"start_date"`
	EndDate       *time.Time          `json:"end_date"`
	Budget        string              `json:"budget"`
	ClientName    string              `json:"client_name"`
	IsActive      *bool               `json:"is_active"`
	LogoURL       string              `json:"logo_url"`
	DynamicFields model.DynamicFields `json:"dynamic_fields"`
}

// ProjectUpdate is the partial payload for updating a project
type ProjectUpdate struct {
	Name          optional.Field[string]              `json:"name"`
	Description   optional.Field[string]              `json:"description"`
	Status        optional.Field[string]              `json:"status"`
	Priority      optional.Field[string]              `json:"priority"`
	StartDate     optional.Field[time.Time]           `json:"start_date"`
	EndDate       optional.Field[time.Time]           `json:"end_date"`
	Budget        optional.Field[string]              `json:"budget"`
	ClientName    optional.Field[string]              `json:"client_name"`
	IsActive      optional.Field[bool]                `json:"is_active"`
	LogoURL       optional.Field[string]              `json:"logo_url"`
	DynamicFields optional.Field[model.DynamicFields] `json:"dynamic_fields"`
}

// ProjectFilter narrows List
type ProjectFilter struct {
	Search     string
	Status     string
	Priority   string
	ClientName string
	CreatedBy  string
	IsActive   *bool
}

// ProjectService manages projects and their ownership rules
type ProjectService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db, now: utcNow}
}

// List returns project summaries newest first, with requirement counts and progress
func (s *ProjectService) List(ctx context.Context, params ListParams, filter ProjectFilter) (*Page[ProjectSummary], error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	params = params.Normalize()

	if err := checkOptionalEnum(model.ProjectStatuses, filter.Status); err != nil {
		return nil, err
	}
	if err := checkOptionalEnum(model.Priorities, filter.Priority); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	query := db.Model(&model.Project{}).
		Scopes(searchScope(filter.Search, "name", "description", "client_name"))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.ClientName != "" {
		query = query.Where("client_name LIKE ?", likePattern(filter.ClientName))
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internal(err, "failed to count projects")
	}

	var projects []model.Project
	if err := query.Order("created_at desc").Scopes(paginate(params)).Find(&projects).Error; err != nil {
		return nil, internal(err, "failed to list projects")
	}

	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}
	counts, err := countRequirements(db, ids)
	if err != nil {
		return nil, internal(err, "failed to count requirements")
	}

	items := make([]ProjectSummary, len(projects))
	for i := range projects {
		items[i] = newProjectSummary(&projects[i], counts[projects[i].ID])
	}
	return &Page[ProjectSummary]{Items: items, Total: total, Skip: params.Skip, Limit: params.Limit}, nil
}

// Get returns the full project with its creator and progress
func (s *ProjectService) Get(ctx context.Context, id string) (*ProjectResponse, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	return s.response(s.db.WithContext(ctx), id)
}

func (s *ProjectService) response(tx *gorm.DB, id string) (*ProjectResponse, error) {
	var p model.Project
	if err := tx.Preload("Creator").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "project", id)
	}
	counts, err := countRequirements(tx, []string{p.ID})
	if err != nil {
		return nil, internal(err, "failed to count requirements")
	}
	return newProjectResponse(&p, counts[p.ID]), nil
}

// Create validates enums and project dynamic fields; the actor becomes the creator
func (s *ProjectService) Create(ctx context.Context, actor *model.User, in ProjectInput) (*ProjectResponse, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	p := &model.Project{
		Name:        trimmed(in.Name),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Budget:      in.Budget,
		ClientName:  trimmed(in.ClientName),
		IsActive:    true,
		LogoURL:     in.LogoURL,
		CreatedBy:   actor.ID,
	}
	if p.Status == "" {
		p.Status = model.ProjectStatusInProgress
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := validateProject(p); err != nil {
		return nil, err
	}

	var resp *ProjectResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields, err := validateDynamicValues(tx, model.AppliesToProject, in.DynamicFields)
		if err != nil {
			return err
		}
		p.DynamicFields = datatypes.NewJSONType(fields)

		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		resp, err = s.response(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to create project")
	}
	return resp, nil
}

// Update applies the supplied fields. Only the creator or a project admin may update.
func (s *ProjectService) Update(ctx context.Context, actor *model.User, id string, in ProjectUpdate) (*ProjectResponse, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var resp *ProjectResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadOwned(tx, actor, id)
		if err != nil {
			return err
		}

		if v, ok := in.Name.Get(); ok {
			p.Name = trimmed(v)
		} else if in.Name.Set {
			return apperror.Validation("name cannot be null")
		}
		if in.Description.Set {
			p.Description = in.Description.Value
		}
		if v, ok := in.Status.Get(); ok {
			p.Status = v
		} else if in.Status.Set {
			return apperror.Validation("status cannot be null")
		}
		if v, ok := in.Priority.Get(); ok {
			p.Priority = v
		} else if in.Priority.Set {
			return apperror.Validation("priority cannot be null")
		}
		if in.StartDate.Set {
			p.StartDate = in.StartDate.Ptr()
		}
		if in.EndDate.Set {
			p.EndDate = in.EndDate.Ptr()
		}
		if in.Budget.Set {
			p.Budget = in.Budget.Value
		}
		if in.ClientName.Set {
			p.ClientName = trimmed(in.ClientName.Value)
		}
		if in.IsActive.Set {
			p.IsActive = in.IsActive.Value
		}
		if in.LogoURL.Set {
			p.LogoURL = in.LogoURL.Value
		}
		if err := validateProject(p); err != nil {
			return err
		}
		if in.DynamicFields.Set {
			fields, err := validateDynamicValues(tx, model.AppliesToProject, in.DynamicFields.Value)
			if err != nil {
				return err
			}
			p.DynamicFields = datatypes.NewJSONType(fields)
		}

		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		resp, err = s.response(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to update project")
	}
	return resp, nil
}

// Delete removes the project and all of its requirements
func (s *ProjectService) Delete(ctx context.Context, actor *model.User, id string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadOwned(tx, actor, id)
		if err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&model.Requirement{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
	return internal(err, "failed to delete project")
}

func (s *ProjectService) Activate(ctx context.Context, actor *model.User, id string) (*ProjectResponse, error) {
	return s.setColumn(ctx, actor, id, "is_active", true)
}

func (s *ProjectService) Deactivate(ctx context.Context, actor *model.User, id string) (*ProjectResponse, error) {
	return s.setColumn(ctx, actor, id, "is_active", false)
}

// SetLogo stores the logo reference returned by the upload endpoint
func (s *ProjectService) SetLogo(ctx context.Context, actor *model.User, id, logoURL string) (*ProjectResponse, error) {
	if len(logoURL) > 500 {
		return nil, apperror.Validation("logo_url must be at most 500 characters")
	}
	return s.setColumn(ctx, actor, id, "logo_url", logoURL)
}

func (s *ProjectService) setColumn(ctx context.Context, actor *model.User, id, column string, value any) (*ProjectResponse, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var resp *ProjectResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadOwned(tx, actor, id)
		if err != nil {
			return err
		}
		if err := tx.Model(p).Update(column, value).Error; err != nil {
			return err
		}
		resp, err = s.response(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to update project")
	}
	return resp, nil
}

// Requirements lists every requirement of the project, newest first
func (s *ProjectService) Requirements(ctx context.Context, id string) ([]RequirementSummary, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&model.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, internal(err, "failed to load project")
	}
	if count == 0 {
		return nil, apperror.NotFound("project %s not found", id)
	}

	var reqs []model.Requirement
	if err := db.Where("project_id = ?", id).Order("created_at desc").Find(&reqs).Error; err != nil {
		return nil, internal(err, "failed to list requirements")
	}

	now := s.now()
	out := make([]RequirementSummary, len(reqs))
	for i := range reqs {
		out[i] = newRequirementSummary(&reqs[i], now)
	}
	return out, nil
}

func (s *ProjectService) loadOwned(tx *gorm.DB, actor *model.User, id string) (*model.Project, error) {
	var p model.Project
	if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "project", id)
	}
	if !policy.CanModifyProject(actor, &p) {
		return nil, apperror.Forbidden("not enough permissions")
	}
	return &p, nil
}

func validateProject(p *model.Project) error {
	if p.Name == "" || len(p.Name) > 200 {
		return apperror.Validation("name must be between 1 and 200 characters")
	}
	if err := checkEnum(model.ProjectStatuses, p.Status); err != nil {
		return err
	}
	return checkEnum(model.Priorities, p.Priority)
}

// countRequirements returns total and completed requirement counts per project id in one query
func countRequirements(tx *gorm.DB, projectIDs []string) (map[string]requirementCounts, error) {
	out := make(map[string]requirementCounts, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ProjectID string
		Total     int64
		Completed int64
	}
	err := tx.Model(&model.Requirement{}).
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", model.RequirementStatusCompleted).
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ProjectID] = requirementCounts{Total: r.Total, Completed: r.Completed}
	}
	return out, nil
}
