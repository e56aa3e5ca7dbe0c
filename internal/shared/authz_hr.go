package shared

// HR permissions declared for the authorization catalog.
const (
	PermHRStaffView     = "hr.staff.view"
	PermHRStaffManage   = "hr.staff.manage"
	PermHRLeaveView     = "hr.leave.view"
	PermHRLeaveManage   = "hr.leave.manage"
	PermHRPayrollView   = "hr.payroll.view"
	PermHRPayrollManage = "hr.payroll.manage"
)

// HRScopes lists all permissions related to the HR module.
func HRScopes() []string {
	return []string{
		PermHRStaffView,
		PermHRStaffManage,
		PermHRLeaveView,
		PermHRLeaveManage,
		PermHRPayrollView,
		PermHRPayrollManage,
	}
}
