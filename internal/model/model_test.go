package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRequirementIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name   string
		due    *time.Time
		status string
		want   bool
	}{
		{"no due date", nil, RequirementStatusPending, false},
		{"past due pending", &yesterday, RequirementStatusPending, true},
		{"past due in development", &yesterday, RequirementStatusInDevelopment, true},
		{"past due completed", &yesterday, RequirementStatusCompleted, false},
		{"past due cancelled", &yesterday, RequirementStatusCancelled, false},
		{"future due", &tomorrow, RequirementStatusPending, false},
		{"due exactly now", &now, RequirementStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Requirement{DueDate: tt.due, Status: tt.status}
			if got := r.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequirementDaysUntilDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := now.Add(d); return &v }

	tests := []struct {
		name string
		due  *time.Time
		want *int
	}{
		{"no due date", nil, nil},
		{"in 3 days", at(72 * time.Hour), intPtr(3)},
		{"in 36 hours", at(36 * time.Hour), intPtr(1)},
		{"in 1 hour", at(time.Hour), intPtr(0)},
		{"1 hour ago", at(-time.Hour), intPtr(-1)},
		{"2 days ago", at(-48 * time.Hour), intPtr(-2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Requirement{DueDate: tt.due}
			got := r.DaysUntilDue(now)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Fatalf("DaysUntilDue = %v, want %v", got, tt.want)
			case *got != *tt.want:
				t.Errorf("DaysUntilDue = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func intPtr(v int) *int { return &v }

func TestRequirementProgressPercentage(t *testing.T) {
	want := map[string]int{
		RequirementStatusPending:       0,
		RequirementStatusInAnalysis:    25,
		RequirementStatusApproved:      50,
		RequirementStatusInDevelopment: 75,
		RequirementStatusCompleted:     100,
		RequirementStatusCancelled:     0,
	}
	for status, pct := range want {
		r := Requirement{Status: status}
		if got := r.ProgressPercentage(); got != pct {
			t.Errorf("ProgressPercentage(%s) = %d, want %d", status, got, pct)
		}
	}
}

func TestProjectProgress(t *testing.T) {
	tests := []struct {
		completed, total int64
		want             float64
	}{
		{0, 0, 0},
		{1, 2, 50},
		{1, 4, 25},
		{4, 4, 100},
	}
	for _, tt := range tests {
		if got := ProjectProgress(tt.completed, tt.total); got != tt.want {
			t.Errorf("ProjectProgress(%d, %d) = %v, want %v", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestUserFullName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"}, "Jane Doe"},
		{User{Username: "jdoe", FirstName: "Jane"}, "jdoe"},
		{User{Username: "jdoe"}, "jdoe"},
	}
	for _, tt := range tests {
		if got := tt.user.FullName(); got != tt.want {
			t.Errorf("FullName() = %q, want %q", got, tt.want)
		}
	}
}

func TestEnumContains(t *testing.T) {
	if !RequirementStatuses.Contains("in-analysis") {
		t.Error("in-analysis should be a valid requirement status")
	}
	if RequirementStatuses.Contains("in_progress") {
		t.Error("in_progress is a project status, not a requirement status")
	}
	if got := Complexities.Allowed(); got != "low, medium, high" {
		t.Errorf("Allowed() = %q", got)
	}
}

func TestDynamicFieldsJSON(t *testing.T) {
	in := `{"source":"ERP","budget":1200.5,"urgent":true,"cleared":null}`

	var fields DynamicFields
	if err := json.Unmarshal([]byte(in), &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if s, ok := fields["source"].AsString(); !ok || s != "ERP" {
		t.Errorf("source = %v", fields["source"])
	}
	if n, ok := fields["budget"].AsNumber(); !ok || n != 1200.5 {
		t.Errorf("budget = %v", fields["budget"])
	}
	if b, ok := fields["urgent"].AsBool(); !ok || !b {
		t.Errorf("urgent = %v", fields["urgent"])
	}
	if !fields["cleared"].IsNull() {
		t.Errorf("cleared kind = %v, want null", fields["cleared"].Kind())
	}

	out, err := json.Marshal(DynamicFields{"due": DateValue(time.Date(2026, 5, 1, 15, 4, 0, 0, time.UTC))})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"due":"2026-05-01"}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestDynamicValueRejectsComposite(t *testing.T) {
	for _, in := range []string{`[1,2]`, `{"a":1}`} {
		var v DynamicValue
		if err := json.Unmarshal([]byte(in), &v); err == nil {
			t.Errorf("Unmarshal(%s) accepted a composite value", in)
		}
	}
}

func TestDefaultDynamicFields(t *testing.T) {
	defs := DefaultDynamicFields()
	if len(defs) != 5 {
		t.Fatalf("len = %d, want 5", len(defs))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.FieldName] = true
		if d.AppliesTo != AppliesToRequirement || d.IsRequired {
			t.Errorf("%s: applies_to=%s required=%v", d.FieldName, d.AppliesTo, d.IsRequired)
		}
		if !FieldTypes.Contains(d.FieldType) {
			t.Errorf("%s: invalid type %s", d.FieldName, d.FieldType)
		}
		if d.FieldType == FieldTypeSelect && len(d.Options) == 0 {
			t.Errorf("%s: select without options", d.FieldName)
		}
	}
	for _, n := range []string{"data_source", "kpis_involved", "estimated_delivery_date", "complexity_level", "notes"} {
		if !names[n] {
			t.Errorf("missing default field %s", n)
		}
	}
}
