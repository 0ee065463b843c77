package shared

// Permission names used across the application.
const (
	// PermPTOApprove allows approving or denying PTO requests.
	PermPTOApprove = "pto.approve"
	// PermPTOAdjust allows administrative PTO balance adjustments.
	PermPTOAdjust = "pto.adjust"
	// PermTeamView allows viewing team timesheets and live presence.
	PermTeamView = "timeclock.view_team"
	// PermReportsView allows viewing and exporting reports.
	PermReportsView = "reports.view"
	// PermAuditView allows reading the audit timeline.
	PermAuditView = "audit.view"
	// PermAdminManage allows user, department and settings administration.
	PermAdminManage = "admin.manage"
)

// Role names stored on profiles.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// RolePermissions expands a profile role into its granted permissions.
// Employees hold no elevated permissions; every authenticated user can act
// on their own entries and requests.
var RolePermissions = map[string][]string{
	RoleEmployee: {},
	RoleManager:  {PermPTOApprove, PermTeamView, PermReportsView},
	RoleAdmin: {
		PermPTOApprove, PermPTOAdjust, PermTeamView,
		PermReportsView, PermAuditView, PermAdminManage,
	},
}
