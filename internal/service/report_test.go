package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/export"
	"requirement-service/internal/model"
)

func seedReportData(t *testing.T, svc *ReportService) (owner, assignee *model.User, p1, p2 *ProjectResponse) {
	t.Helper()
	ctx := context.Background()
	owner = seedUser(t, svc.db, "owner")
	assignee = seedUser(t, svc.db, "assignee")
	p1 = seedProject(t, svc.db, owner, "Apollo")
	p2, err := NewProjectService(svc.db).Create(ctx, owner, ProjectInput{Name: "Gemini", Status: model.ProjectStatusPaused, Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	reqs := NewRequirementService(svc.db)
	reqs.now = svc.now
	past := svc.now().Add(-48 * time.Hour)
	for _, in := range []RequirementInput{
		{Title: "A1", ProjectID: p1.ID, Status: model.RequirementStatusCompleted},
		{Title: "A2", ProjectID: p1.ID, DueDate: &past, AssignedTo: &assignee.ID},
		{Title: "A3", ProjectID: p1.ID, Type: model.RequirementTypeBusinessRule, Priority: model.PriorityHigh},
		{Title: "G1", ProjectID: p2.ID, Type: model.RequirementTypeNonFunctional},
	} {
		if _, err := reqs.Create(ctx, owner, in); err != nil {
			t.Fatalf("create requirement %s: %v", in.Title, err)
		}
	}
	return owner, assignee, p1, p2
}

func countOf(groups []GroupCount, value string) int64 {
	for _, g := range groups {
		if g.Value == value {
			return g.Count
		}
	}
	return 0
}

func TestDashboard(t *testing.T) {
	svc := NewReportService(newTestDB(t))
	svc.now = fixedClock(time.Now().UTC())
	seedReportData(t, svc)

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	want := DashboardSummary{
		TotalProjects:         2,
		ActiveProjects:        2,
		TotalRequirements:     4,
		CompletedRequirements: 1,
		OverdueRequirements:   1,
		RecentProjects:        2,
		RecentRequirements:    4,
	}
	if d.Summary != want {
		t.Errorf("Summary = %+v, want %+v", d.Summary, want)
	}
	if countOf(d.ProjectsByStatus, model.ProjectStatusPaused) != 1 || countOf(d.ProjectsByStatus, model.ProjectStatusInProgress) != 1 {
		t.Errorf("ProjectsByStatus = %+v", d.ProjectsByStatus)
	}
	if countOf(d.RequirementsByType, model.RequirementTypeFunctional) != 2 {
		t.Errorf("RequirementsByType = %+v", d.RequirementsByType)
	}
	if countOf(d.RequirementsByPriority, model.PriorityHigh) != 1 {
		t.Errorf("RequirementsByPriority = %+v", d.RequirementsByPriority)
	}

	body, err := json.Marshal(d.RequirementsByStatus[0])
	if err != nil {
		t.Fatalf("marshal GroupCount: %v", err)
	}
	if !bytes.Contains(body, []byte(`"status":`)) || !bytes.Contains(body, []byte(`"count":`)) {
		t.Errorf("GroupCount JSON = %s", body)
	}
}

func TestProjectSummary(t *testing.T) {
	svc := NewReportService(newTestDB(t))
	svc.now = fixedClock(time.Now().UTC())
	_, _, p1, _ := seedReportData(t, svc)

	r, err := svc.ProjectSummary(context.Background(), p1.ID)
	if err != nil {
		t.Fatalf("ProjectSummary() error = %v", err)
	}
	if r.Project.Name != "Apollo" {
		t.Errorf("Project = %+v", r.Project)
	}
	want := ProjectStatistics{TotalRequirements: 3, CompletedRequirements: 1, OverdueRequirements: 1, CompletionRate: model.ProjectProgress(1, 3)}
	if r.Statistics != want {
		t.Errorf("Statistics = %+v, want %+v", r.Statistics, want)
	}
	if countOf(r.RequirementsByStatus, model.RequirementStatusPending) != 2 {
		t.Errorf("RequirementsByStatus = %+v", r.RequirementsByStatus)
	}

	_, err = svc.ProjectSummary(context.Background(), "missing")
	assertKind(t, err, apperror.KindNotFound)
}

func TestExportProjects(t *testing.T) {
	svc := NewReportService(newTestDB(t))
	svc.now = fixedClock(time.Now().UTC())
	seedReportData(t, svc)
	ctx := context.Background()

	table, err := svc.ExportProjects(ctx, ExportFilter{})
	if err != nil {
		t.Fatalf("ExportProjects() error = %v", err)
	}
	if len(table.Rows) != 2 || len(table.Columns) != len(table.Rows[0]) {
		t.Fatalf("table = %d rows, %d columns", len(table.Rows), len(table.Columns))
	}

	table, err = svc.ExportProjects(ctx, ExportFilter{Status: model.ProjectStatusPaused})
	if err != nil || len(table.Rows) != 1 || table.Rows[0][1] != "Gemini" {
		t.Fatalf("ExportProjects(paused) = %v, %v", table, err)
	}
	if creator := table.Rows[0][11]; creator != "owner Test" {
		t.Errorf("Created By = %v, want owner Test", creator)
	}

	future := svc.now().Add(time.Hour)
	table, err = svc.ExportProjects(ctx, ExportFilter{CreatedFrom: &future})
	if err != nil || len(table.Rows) != 0 {
		t.Errorf("ExportProjects(from future) = %v, %v", table, err)
	}

	_, err = svc.ExportProjects(ctx, ExportFilter{Status: "bogus"})
	assertKind(t, err, apperror.KindValidation)
}

func TestExportRequirementsRender(t *testing.T) {
	svc := NewReportService(newTestDB(t))
	svc.now = fixedClock(time.Now().UTC())
	_, _, p1, _ := seedReportData(t, svc)

	table, err := svc.ExportRequirements(context.Background(), ExportFilter{ProjectID: p1.ID})
	if err != nil {
		t.Fatalf("ExportRequirements() error = %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}

	data, err := svc.Render(table, export.FormatCSV, "requirements")
	if err != nil {
		t.Fatalf("Render(csv) error = %v", err)
	}
	text := string(data)
	for _, want := range []string{"Apollo", "assignee Test", "Yes"} {
		if !strings.Contains(text, want) {
			t.Errorf("csv export missing %q", want)
		}
	}

	data, err = svc.Render(table, export.FormatExcel, "requirements")
	if err != nil || !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("Render(excel) = %d bytes, %v", len(data), err)
	}

	_, err = svc.Render(table, export.FormatPDF, "requirements")
	assertKind(t, err, apperror.KindUnsupported)
}
