package service

import (
	"context"
	"testing"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"
	"requirement-service/internal/policy"
	"requirement-service/pkg/optional"
)

func TestProjectCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner")

	p, err := NewProjectService(db).Create(context.Background(), owner, ProjectInput{Name: "  Apollo  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.Name != "Apollo" || p.Status != model.ProjectStatusInProgress || p.Priority != model.PriorityMedium || !p.IsActive {
		t.Errorf("Create() = %+v", p)
	}
	if p.CreatedBy != owner.ID || p.Creator == nil || p.Creator.Username != "owner" {
		t.Errorf("creator not set: %+v", p.Creator)
	}
	if p.ProgressPercentage != 0 || p.RequirementsCount != 0 {
		t.Errorf("empty project progress = %v/%d", p.ProgressPercentage, p.RequirementsCount)
	}
}

func TestProjectCreateValidation(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner")
	projects := NewProjectService(db)

	tests := []struct {
		name string
		in   ProjectInput
	}{
		{"missing name", ProjectInput{}},
		{"bad status", ProjectInput{Name: "x", Status: "done"}},
		{"bad priority", ProjectInput{Name: "x", Priority: "urgent"}},
		{"unknown dynamic field", ProjectInput{Name: "x", DynamicFields: model.DynamicFields{"nope": model.StringValue("v")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := projects.Create(context.Background(), owner, tt.in)
			assertKind(t, err, apperror.KindValidation)
		})
	}
}

func TestProjectOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	projects := NewProjectService(db)

	a := seedUser(t, db, "usera")
	b := seedUser(t, db, "userb", policy.PermProjectUpdate)
	c := seedUser(t, db, "userc", policy.PermProjectUpdate, policy.PermProjectAdmin)
	p := seedProject(t, db, a, "Shared")

	_, err := projects.Update(ctx, b, p.ID, ProjectUpdate{Name: optional.Of("Hijacked")})
	assertKind(t, err, apperror.KindPermissionDenied)

	got, err := projects.Update(ctx, c, p.ID, ProjectUpdate{Name: optional.Of("Renamed")})
	if err != nil {
		t.Fatalf("admin Update() error = %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}

	_, err = projects.Deactivate(ctx, b, p.ID)
	assertKind(t, err, apperror.KindPermissionDenied)
	assertKind(t, projects.Delete(ctx, b, p.ID), apperror.KindPermissionDenied)

	got, err = projects.SetLogo(ctx, a, p.ID, "/api/v1/upload/logo/logo_abc.png")
	if err != nil || got.LogoURL != "/api/v1/upload/logo/logo_abc.png" {
		t.Errorf("SetLogo() = %+v, %v", got, err)
	}
}

func TestProjectToggleRequiresOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	projects := NewProjectService(db)

	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other", policy.PermProjectUpdate)
	admin := seedUser(t, db, "padmin", policy.PermProjectUpdate, policy.PermProjectAdmin)
	p := seedProject(t, db, owner, "Toggled")

	tests := []struct {
		name       string
		actor      *model.User
		activate   bool
		wantActive bool
		wantErr    bool
	}{
		{"non-owner deactivate", other, false, true, true},
		{"admin deactivate", admin, false, false, false},
		{"non-owner activate", other, true, false, true},
		{"owner activate", owner, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toggle := projects.Deactivate
			if tt.activate {
				toggle = projects.Activate
			}
			_, err := toggle(ctx, tt.actor, p.ID)
			if tt.wantErr {
				assertKind(t, err, apperror.KindPermissionDenied)
			} else if err != nil {
				t.Fatalf("toggle error = %v", err)
			}

			var stored model.Project
			db.First(&stored, "id = ?", p.ID)
			if stored.IsActive != tt.wantActive {
				t.Errorf("IsActive = %v, want %v", stored.IsActive, tt.wantActive)
			}
		})
	}
}

func TestProjectUpdateKeepsOmittedFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	projects := NewProjectService(db)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := projects.Create(ctx, owner, ProjectInput{
		Name:        "Keep",
		Description: "original",
		ClientName:  "ACME",
		Budget:      "10k",
		Priority:    model.PriorityHigh,
		StartDate:   &start,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := projects.Update(ctx, owner, p.ID, ProjectUpdate{Status: optional.Of(model.ProjectStatusPaused)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != model.ProjectStatusPaused {
		t.Errorf("Status = %q", got.Status)
	}
	if got.Description != "original" || got.ClientName != "ACME" || got.Budget != "10k" || got.Priority != model.PriorityHigh {
		t.Errorf("omitted fields changed: %+v", got)
	}
	if got.StartDate == nil || !got.StartDate.Equal(start) {
		t.Errorf("StartDate = %v, want %v", got.StartDate, start)
	}

	got, err = projects.Update(ctx, owner, p.ID, ProjectUpdate{StartDate: optional.Null[time.Time]()})
	if err != nil {
		t.Fatalf("Update(null start) error = %v", err)
	}
	if got.StartDate != nil {
		t.Errorf("StartDate = %v, want cleared", got.StartDate)
	}

	_, err = projects.Update(ctx, owner, p.ID, ProjectUpdate{Status: optional.Of("bogus")})
	assertKind(t, err, apperror.KindValidation)
}

func TestProjectDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	projects := NewProjectService(db)
	reqs := NewRequirementService(db)

	p := seedProject(t, db, owner, "Doomed")
	other := seedProject(t, db, owner, "Survivor")
	for _, pid := range []string{p.ID, p.ID, other.ID} {
		if _, err := reqs.Create(ctx, owner, RequirementInput{Title: "r", ProjectID: pid}); err != nil {
			t.Fatalf("create requirement: %v", err)
		}
	}

	if err := projects.Delete(ctx, owner, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := projects.Get(ctx, p.ID)
	assertKind(t, err, apperror.KindNotFound)

	var remaining int64
	db.Model(&model.Requirement{}).Count(&remaining)
	if remaining != 1 {
		t.Errorf("remaining requirements = %d, want 1", remaining)
	}

	_, err = projects.Requirements(ctx, p.ID)
	assertKind(t, err, apperror.KindNotFound)
	list, err := projects.Requirements(ctx, other.ID)
	if err != nil || len(list) != 1 {
		t.Errorf("Requirements(other) = %v, %v", list, err)
	}
}

func TestProjectListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	projects := NewProjectService(db)

	for _, in := range []ProjectInput{
		{Name: "Alpha", ClientName: "ACME Corp", Priority: model.PriorityHigh},
		{Name: "Beta", ClientName: "Globex", Priority: model.PriorityLow},
		{Name: "Gamma", Description: "acme rollout", ClientName: "Initech", Priority: model.PriorityHigh},
	} {
		if _, err := projects.Create(ctx, owner, in); err != nil {
			t.Fatalf("Create(%s) error = %v", in.Name, err)
		}
	}

	tests := []struct {
		name   string
		filter ProjectFilter
		want   int64
	}{
		{"all", ProjectFilter{}, 3},
		{"priority", ProjectFilter{Priority: model.PriorityHigh}, 2},
		{"client substring", ProjectFilter{ClientName: "Glob"}, 1},
		{"search name", ProjectFilter{Search: "Alp"}, 1},
		{"created by", ProjectFilter{CreatedBy: owner.ID}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := projects.List(ctx, ListParams{}, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Total != tt.want || int64(len(page.Items)) != tt.want {
				t.Errorf("List() total = %d items = %d, want %d", page.Total, len(page.Items), tt.want)
			}
		})
	}

	page, err := projects.List(ctx, ListParams{Skip: 1, Limit: 1}, ProjectFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 {
		t.Errorf("paged List() total = %d items = %d", page.Total, len(page.Items))
	}

	_, err = projects.List(ctx, ListParams{}, ProjectFilter{Status: "bogus"})
	assertKind(t, err, apperror.KindValidation)
}
