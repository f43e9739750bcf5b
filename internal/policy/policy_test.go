package policy

import (
	"testing"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"

	"gorm.io/datatypes"
)

func user(id string, perms ...string) *model.User {
	return &model.User{ID: id, Role: model.RoleAnalyst, Permissions: datatypes.JSONSlice[string](perms), IsActive: true}
}

func TestCheckPermission(t *testing.T) {
	admin := user("a")
	admin.Role = model.RoleAdmin

	tests := []struct {
		name     string
		user     *model.User
		required []string
		want     bool
	}{
		{"admin role bypasses", admin, []string{"project:delete"}, true},
		{"holds one of set", user("u", "user:admin"), []string{"user:read", "user:admin"}, true},
		{"holds none", user("u", "project:read"), []string{"user:read", "user:admin"}, false},
		{"empty permissions", user("u"), []string{"project:read"}, false},
		{"nil user", nil, []string{"project:read"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPermission(tt.user, tt.required); got != tt.want {
				t.Errorf("CheckPermission = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	super := user("s")
	super.IsSuperuser = true

	if !HasPermission(super, PermProjectAdmin) {
		t.Error("superuser should hold every permission")
	}
	if !HasPermission(user("u", PermProjectAdmin), PermProjectAdmin) {
		t.Error("explicit permission not honoured")
	}
	admin := user("a")
	admin.Role = model.RoleAdmin
	if HasPermission(admin, PermProjectAdmin) {
		t.Error("admin role alone must not grant single-permission checks")
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		op   Operation
		ok   bool
	}{
		{"project list with read", user("u", PermProjectRead), ProjectList, true},
		{"project list without read", user("u", PermRequirementRead), ProjectList, false},
		{"project requirements need requirement read", user("u", PermProjectRead), ProjectRequirements, false},
		{"user list via user admin", user("u", PermUserAdmin), UserList, true},
		{"export needs export", user("u", PermReportRead), ReportExport, false},
		{"logo read open to everyone", user("u"), UploadLogoRead, true},
		{"unknown operation", user("u", PermProjectRead), Operation("project.fly"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, tt.op)
			if tt.ok && err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if !tt.ok && !apperror.Is(err, apperror.KindPermissionDenied) {
				t.Fatalf("Authorize error = %v, want permission denied", err)
			}
		})
	}
}

func TestEveryOperationHasAnEntry(t *testing.T) {
	ops := []Operation{
		UserList, UserGet, UserCreate, UserUpdate, UserDelete, UserActivate, UserDeactivate,
		ProjectList, ProjectGet, ProjectCreate, ProjectUpdate, ProjectDelete, ProjectActivate, ProjectDeactivate, ProjectRequirements,
		RequirementList, RequirementGet, RequirementCreate, RequirementUpdate, RequirementDelete, RequirementAssign, RequirementComplete,
		DynamicFieldList, DynamicFieldGet, DynamicFieldCreate, DynamicFieldUpdate, DynamicFieldDelete,
		DynamicFieldActivate, DynamicFieldDeactivate, DynamicFieldInitialize,
		ReportDashboard, ReportProjectSummary, ReportExport,
		UploadLogoWrite, UploadLogoRead,
	}
	for _, op := range ops {
		if _, ok := Required(op); !ok {
			t.Errorf("operation %s missing from table", op)
		}
	}
}

func TestOwnership(t *testing.T) {
	creator := user("creator")
	assignee := user("assignee")
	other := user("other")
	projectAdmin := user("padmin", PermProjectAdmin)
	reqAdmin := user("radmin", PermRequirementAdmin)

	p := &model.Project{CreatedBy: "creator"}
	assigned := "assignee"
	r := &model.Requirement{CreatedBy: "creator", AssignedTo: &assigned}

	checks := []struct {
		name string
		got  bool
		want bool
	}{
		{"creator modifies project", CanModifyProject(creator, p), true},
		{"other modifies project", CanModifyProject(other, p), false},
		{"project admin modifies project", CanModifyProject(projectAdmin, p), true},
		{"requirement admin modifies project", CanModifyProject(reqAdmin, p), false},
		{"assignee edits requirement", CanEditRequirement(assignee, r), true},
		{"other edits requirement", CanEditRequirement(other, r), false},
		{"requirement admin edits", CanEditRequirement(reqAdmin, r), true},
		{"assignee deletes requirement", CanDeleteRequirement(assignee, r), false},
		{"creator deletes requirement", CanDeleteRequirement(creator, r), true},
		{"requirement admin deletes", CanDeleteRequirement(reqAdmin, r), true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}
