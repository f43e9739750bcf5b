// Package policy decides whether a user may perform an operation.
//
// Admission is two-layered: a static table maps every operation to a set of
// permissions of which the user needs any one (CheckPermission), and update or
// delete of projects and requirements additionally passes an ownership check.
package policy

import (
	"slices"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"
)

// Operation names a permission-gated action.
type Operation string

const (
	UserList       Operation = "user.list"
	UserGet        Operation = "user.get"
	UserCreate     Operation = "user.create"
	UserUpdate     Operation = "user.update"
	UserDelete     Operation = "user.delete"
	UserActivate   Operation = "user.activate"
	UserDeactivate Operation = "user.deactivate"

	ProjectList         Operation = "project.list"
	ProjectGet          Operation = "project.get"
	ProjectCreate       Operation = "project.create"
	ProjectUpdate       Operation = "project.update"
	ProjectDelete       Operation = "project.delete"
	ProjectActivate     Operation = "project.activate"
	ProjectDeactivate   Operation = "project.deactivate"
	ProjectRequirements Operation = "project.requirements"

	RequirementList     Operation = "requirement.list"
	RequirementGet      Operation = "requirement.get"
	RequirementCreate   Operation = "requirement.create"
	RequirementUpdate   Operation = "requirement.update"
	RequirementDelete   Operation = "requirement.delete"
	RequirementAssign   Operation = "requirement.assign"
	RequirementComplete Operation = "requirement.complete"

	DynamicFieldList       Operation = "dynamic_field.list"
	DynamicFieldGet        Operation = "dynamic_field.get"
	DynamicFieldCreate     Operation = "dynamic_field.create"
	DynamicFieldUpdate     Operation = "dynamic_field.update"
	DynamicFieldDelete     Operation = "dynamic_field.delete"
	DynamicFieldActivate   Operation = "dynamic_field.activate"
	DynamicFieldDeactivate Operation = "dynamic_field.deactivate"
	DynamicFieldInitialize Operation = "dynamic_field.initialize"

	ReportDashboard      Operation = "report.dashboard"
	ReportProjectSummary Operation = "report.project_summary"
	ReportExport         Operation = "report.export"

	UploadLogoWrite Operation = "upload.logo.write"
	UploadLogoRead  Operation = "upload.logo.read"
)

// Permission strings
const (
	PermUserRead   = "user:read"
	PermUserCreate = "user:create"
	PermUserUpdate = "user:update"
	PermUserDelete = "user:delete"
	PermUserAdmin  = "user:admin"

	PermProjectRead   = "project:read"
	PermProjectCreate = "project:create"
	PermProjectUpdate = "project:update"
	PermProjectDelete = "project:delete"
	PermProjectAdmin  = "project:admin"

	PermRequirementRead   = "requirement:read"
	PermRequirementCreate = "requirement:create"
	PermRequirementUpdate = "requirement:update"
	PermRequirementDelete = "requirement:delete"
	PermRequirementAdmin  = "requirement:admin"

	PermDynamicFieldRead   = "dynamic_field:read"
	PermDynamicFieldCreate = "dynamic_field:create"
	PermDynamicFieldUpdate = "dynamic_field:update"
	PermDynamicFieldDelete = "dynamic_field:delete"

	PermReportRead   = "report:read"
	PermReportExport = "report:export"

	PermUploadLogo = "upload:logo"
)

var required = map[Operation][]string{
	UserList:       {PermUserRead, PermUserAdmin},
	UserGet:        {PermUserRead, PermUserAdmin},
	UserCreate:     {PermUserCreate, PermUserAdmin},
	UserUpdate:     {PermUserUpdate, PermUserAdmin},
	UserActivate:   {PermUserUpdate, PermUserAdmin},
	UserDeactivate: {PermUserUpdate, PermUserAdmin},
	UserDelete:     {PermUserDelete, PermUserAdmin},

	ProjectList:         {PermProjectRead},
	ProjectGet:          {PermProjectRead},
	ProjectCreate:       {PermProjectCreate},
	ProjectUpdate:       {PermProjectUpdate},
	ProjectActivate:     {PermProjectUpdate},
	ProjectDeactivate:   {PermProjectUpdate},
	ProjectDelete:       {PermProjectDelete},
	ProjectRequirements: {PermRequirementRead},

	RequirementList:     {PermRequirementRead},
	RequirementGet:      {PermRequirementRead},
	RequirementCreate:   {PermRequirementCreate},
	RequirementUpdate:   {PermRequirementUpdate},
	RequirementAssign:   {PermRequirementUpdate},
	RequirementComplete: {PermRequirementUpdate},
	RequirementDelete:   {PermRequirementDelete},

	DynamicFieldList:       {PermDynamicFieldRead},
	DynamicFieldGet:        {PermDynamicFieldRead},
	DynamicFieldCreate:     {PermDynamicFieldCreate},
	DynamicFieldInitialize: {PermDynamicFieldCreate},
	DynamicFieldUpdate:     {PermDynamicFieldUpdate},
	DynamicFieldActivate:   {PermDynamicFieldUpdate},
	DynamicFieldDeactivate: {PermDynamicFieldUpdate},
	DynamicFieldDelete:     {PermDynamicFieldDelete},

	ReportDashboard:      {PermReportRead},
	ReportProjectSummary: {PermReportRead},
	ReportExport:         {PermReportExport},

	UploadLogoWrite: {PermUploadLogo},
	UploadLogoRead:  nil,
}

// Required returns the permission set for op and whether op is known.
func Required(op Operation) ([]string, bool) {
	perms, ok := required[op]
	return perms, ok
}

// DefaultPermissions are granted to self-registered and admin-created users
// that do not specify their own set.
var DefaultPermissions = []string{
	PermProjectRead, PermProjectCreate, PermProjectUpdate,
	PermRequirementRead, PermRequirementCreate, PermRequirementUpdate,
	PermDynamicFieldRead,
	PermReportRead,
}

// AllPermissions is every permission string the service checks, including the admin overrides.
var AllPermissions = []string{
	PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete, PermUserAdmin,
	PermProjectRead, PermProjectCreate, PermProjectUpdate, PermProjectDelete, PermProjectAdmin,
	PermRequirementRead, PermRequirementCreate, PermRequirementUpdate, PermRequirementDelete, PermRequirementAdmin,
	PermDynamicFieldRead, PermDynamicFieldCreate, PermDynamicFieldUpdate, PermDynamicFieldDelete,
	PermReportRead, PermReportExport,
	PermUploadLogo,
}

// CheckPermission is true for the admin role or when any required permission is held.
func CheckPermission(user *model.User, requiredPerms []string) bool {
	if user == nil {
		return false
	}
	if user.Role == model.RoleAdmin {
		return true
	}
	for _, p := range requiredPerms {
		if slices.Contains(user.Permissions, p) {
			return true
		}
	}
	return false
}

// HasPermission is true for superusers or when perm is held.
func HasPermission(user *model.User, perm string) bool {
	if user == nil {
		return false
	}
	return user.IsSuperuser || slices.Contains(user.Permissions, perm)
}

// Authorize admits user to op. Unknown operations are denied. An empty set
// admits any authenticated user.
func Authorize(user *model.User, op Operation) error {
	perms, ok := required[op]
	if !ok || user == nil {
		return apperror.Forbidden("not enough permissions")
	}
	if len(perms) == 0 {
		return nil
	}
	if !CheckPermission(user, perms) {
		return apperror.Forbidden("not enough permissions")
	}
	return nil
}

// CanModifyProject allows the creator or a project admin.
func CanModifyProject(user *model.User, p *model.Project) bool {
	return user != nil && (p.CreatedBy == user.ID || HasPermission(user, PermProjectAdmin))
}

// CanEditRequirement allows the creator, the assignee or a requirement admin.
func CanEditRequirement(user *model.User, r *model.Requirement) bool {
	if user == nil {
		return false
	}
	if r.CreatedBy == user.ID || HasPermission(user, PermRequirementAdmin) {
		return true
	}
	return r.AssignedTo != nil && *r.AssignedTo == user.ID
}

// CanDeleteRequirement allows the creator or a requirement admin.
func CanDeleteRequirement(user *model.User, r *model.Requirement) bool {
	return user != nil && (r.CreatedBy == user.ID || HasPermission(user, PermRequirementAdmin))
}
