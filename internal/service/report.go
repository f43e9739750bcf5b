package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/export"
	"requirement-service/internal/model"
	"requirement-service/prometheus"

	"gorm.io/gorm"
)

const recentWindow = 30 * 24 * time.Hour

// GroupCount is one bucket of a group-by count, serialized as {"<field>": value, "count": n}
type GroupCount struct {
	Field string
	Value string
	Count int64
}

func (g GroupCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{g.Field: g.Value, "count": g.Count})
}

// DashboardSummary holds the headline counters of the dashboard
type DashboardSummary struct {
	TotalProjects         int64 `json:"total_projects"`
	ActiveProjects        int64 `json:"active_projects"`
	TotalRequirements     int64 `json:"total_requirements"`
	CompletedRequirements int64 `json:"completed_requirements"`
	OverdueRequirements   int64 `json:"overdue_requirements"`
	RecentProjects        int64 `json:"recent_projects"`
	RecentRequirements    int64 `json:"recent_requirements"`
}

// Dashboard is a snapshot computed fresh on every call
type Dashboard struct {
	Summary                DashboardSummary `json:"summary"`
	ProjectsByStatus       []GroupCount     `json:"projects_by_status"`
	RequirementsByStatus   []GroupCount     `json:"requirements_by_status"`
	RequirementsByType     []GroupCount     `json:"requirements_by_type"`
	RequirementsByPriority []GroupCount     `json:"requirements_by_priority"`
}

// ProjectHeader is the project part of a project summary
type ProjectHeader struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Status             string  `json:"status"`
	Priority           string  `json:"priority"`
	ClientName         string  `json:"client_name"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// ProjectStatistics are the requirement counters of one project
type ProjectStatistics struct {
	TotalRequirements     int64   `json:"total_requirements"`
	CompletedRequirements int64   `json:"completed_requirements"`
	OverdueRequirements   int64   `json:"overdue_requirements"`
	CompletionRate        float64 `json:"completion_rate"`
}

// ProjectReport is the per-project summary
type ProjectReport struct {
	Project                ProjectHeader     `json:"project"`
	Statistics             ProjectStatistics `json:"statistics"`
	RequirementsByStatus   []GroupCount      `json:"requirements_by_status"`
	RequirementsByType     []GroupCount      `json:"requirements_by_type"`
	RequirementsByPriority []GroupCount      `json:"requirements_by_priority"`
}

// ExportFilter narrows an export. Empty strings and nil times do not filter.
type ExportFilter struct {
	Status      string
	Priority    string
	Type        string
	ProjectID   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReportService computes read-only aggregates and export tables
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: utcNow}
}

// Dashboard counts projects and requirements across the whole store
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := s.db.WithContext(ctx)
	now := s.now()
	since := now.Add(-recentWindow)
	projects := func() *gorm.DB { return db.Model(&model.Project{}) }
	reqs := func() *gorm.DB { return db.Model(&model.Requirement{}) }

	var d Dashboard
	counters := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{projects(), &d.Summary.TotalProjects},
		{projects().Where("is_active = ?", true), &d.Summary.ActiveProjects},
		{projects().Where("created_at >= ?", since), &d.Summary.RecentProjects},
		{reqs(), &d.Summary.TotalRequirements},
		{reqs().Where("status = ?", model.RequirementStatusCompleted), &d.Summary.CompletedRequirements},
		{reqs().Scopes(overdueScope(now)), &d.Summary.OverdueRequirements},
		{reqs().Where("created_at >= ?", since), &d.Summary.RecentRequirements},
	}
	for _, c := range counters {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, internal(err, "failed to compute dashboard")
		}
	}

	var err error
	if d.ProjectsByStatus, err = groupCount(projects(), "status"); err != nil {
		return nil, internal(err, "failed to compute dashboard")
	}
	if err := requirementBreakdowns(reqs, &d.RequirementsByStatus, &d.RequirementsByType, &d.RequirementsByPriority); err != nil {
		return nil, internal(err, "failed to compute dashboard")
	}
	return &d, nil
}

// ProjectSummary reports requirement counters and breakdowns for one project
func (s *ReportService) ProjectSummary(ctx context.Context, id string) (*ProjectReport, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	db := s.db.WithContext(ctx)
	var p model.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "project", id)
	}

	now := s.now()
	reqs := func() *gorm.DB { return db.Model(&model.Requirement{}).Where("project_id = ?", p.ID) }

	var stats ProjectStatistics
	if err := reqs().Count(&stats.TotalRequirements).Error; err != nil {
		return nil, internal(err, "failed to summarize project")
	}
	if err := reqs().Where("status = ?", model.RequirementStatusCompleted).Count(&stats.CompletedRequirements).Error; err != nil {
		return nil, internal(err, "failed to summarize project")
	}
	if err := reqs().Scopes(overdueScope(now)).Count(&stats.OverdueRequirements).Error; err != nil {
		return nil, internal(err, "failed to summarize project")
	}
	stats.CompletionRate = model.ProjectProgress(stats.CompletedRequirements, stats.TotalRequirements)

	report := &ProjectReport{
		Project: ProjectHeader{
			ID:                 p.ID,
			Name:               p.Name,
			Description:        p.Description,
			Status:             p.Status,
			Priority:           p.Priority,
			ClientName:         p.ClientName,
			ProgressPercentage: stats.CompletionRate,
		},
		Statistics: stats,
	}
	if err := requirementBreakdowns(reqs, &report.RequirementsByStatus, &report.RequirementsByType, &report.RequirementsByPriority); err != nil {
		return nil, internal(err, "failed to summarize project")
	}
	return report, nil
}

func requirementBreakdowns(reqs func() *gorm.DB, byStatus, byType, byPriority *[]GroupCount) error {
	for _, b := range []struct {
		column string
		dest   *[]GroupCount
	}{
		{"status", byStatus},
		{"type", byType},
		{"priority", byPriority},
	} {
		groups, err := groupCount(reqs(), b.column)
		if err != nil {
			return err
		}
		*b.dest = groups
	}
	return nil
}

// groupCount counts rows of query per distinct value of column
func groupCount(query *gorm.DB, column string) ([]GroupCount, error) {
	var rows []struct {
		Value string
		Total int64
	}
	err := query.Select(column + " AS value, COUNT(*) AS total").
		Group(column).
		Order(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]GroupCount, len(rows))
	for i, r := range rows {
		out[i] = GroupCount{Field: column, Value: r.Value, Count: r.Total}
	}
	return out, nil
}

func createdRange(query *gorm.DB, f ExportFilter) *gorm.DB {
	if f.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query = query.Where("created_at <= ?", *f.CreatedTo)
	}
	return query
}

// ExportProjects builds the flat project table with creator names resolved
func (s *ReportService) ExportProjects(ctx context.Context, f ExportFilter) (*export.Table, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	if err := checkOptionalEnum(model.ProjectStatuses, f.Status); err != nil {
		return nil, err
	}
	if err := checkOptionalEnum(model.Priorities, f.Priority); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	query := createdRange(db.Preload("Creator"), f)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		query = query.Where("priority = ?", f.Priority)
	}

	var projects []model.Project
	if err := query.Order("created_at desc").Find(&projects).Error; err != nil {
		return nil, internal(err, "failed to export projects")
	}
	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}
	counts, err := countRequirements(db, ids)
	if err != nil {
		return nil, internal(err, "failed to export projects")
	}

	t := &export.Table{Columns: []string{
		"ID", "Name", "Description", "Status", "Priority", "Client", "Budget",
		"Start Date", "End Date", "Requirements", "Progress (%)", "Created By",
		"Created At", "Updated At",
	}}
	for i := range projects {
		p := &projects[i]
		c := counts[p.ID]
		t.AddRow(
			p.ID, p.Name, p.Description, p.Status, p.Priority, p.ClientName, p.Budget,
			p.StartDate, p.EndDate, c.Total, model.ProjectProgress(c.Completed, c.Total), fullName(p.Creator),
			p.CreatedAt, p.UpdatedAt,
		)
	}
	return t, nil
}

// ExportRequirements builds the flat requirement table with project, assignee
// and creator names resolved.
func (s *ReportService) ExportRequirements(ctx context.Context, f ExportFilter) (*export.Table, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	for _, check := range []struct {
		enum  model.Enum
		value string
	}{
		{model.RequirementStatuses, f.Status},
		{model.Priorities, f.Priority},
		{model.RequirementTypes, f.Type},
	} {
		if err := checkOptionalEnum(check.enum, check.value); err != nil {
			return nil, err
		}
	}

	query := createdRange(s.db.WithContext(ctx).Preload("Project").Preload("Assignee").Preload("Creator"), f)
	if f.ProjectID != "" {
		query = query.Where("project_id = ?", f.ProjectID)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Priority != "" {
		query = query.Where("priority = ?", f.Priority)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var reqs []model.Requirement
	if err := query.Order("created_at desc").Find(&reqs).Error; err != nil {
		return nil, internal(err, "failed to export requirements")
	}

	now := s.now()
	t := &export.Table{Columns: []string{
		"ID", "Title", "Description", "Type", "Priority", "Status", "Complexity",
		"Estimated Hours", "Actual Hours", "Due Date", "Completion Date", "Project",
		"Assigned To", "Created By", "Overdue", "Progress (%)", "Created At", "Updated At",
	}}
	for i := range reqs {
		r := &reqs[i]
		project := ""
		if r.Project != nil {
			project = r.Project.Name
		}
		t.AddRow(
			r.ID, r.Title, r.Description, r.Type, r.Priority, r.Status, r.Complexity,
			r.EstimatedHours, r.ActualHours, r.DueDate, r.CompletionDate, project,
			fullName(r.Assignee), fullName(r.Creator), r.IsOverdue(now), r.ProgressPercentage(), r.CreatedAt, r.UpdatedAt,
		)
	}
	return t, nil
}

// Render serializes t, mapping format failures onto the error taxonomy
func (s *ReportService) Render(t *export.Table, f export.Format, entity string) ([]byte, error) {
	data, err := export.Render(f, t)
	switch {
	case err == nil:
		prometheus.RecordExport(entity, string(f))
		return data, nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return nil, apperror.Unsupported("export format %s is not implemented", f)
	case errors.Is(err, export.ErrUnknownFormat):
		return nil, apperror.Validation("%v", err)
	}
	return nil, apperror.Internal(err, "failed to render export")
}

func fullName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.FullName()
}
