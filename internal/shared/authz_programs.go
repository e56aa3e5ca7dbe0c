package shared

// Program and operations permissions declared for the authorization catalog.
const (
	PermProgramsView   = "programs.view"
	PermProgramsEdit   = "programs.edit"
	PermProgramsManage = "programs.manage"

	PermRiskRegisterView = "risk.register.view"
	PermRiskRegisterEdit = "risk.register.edit"

	PermInventoryView = "inventory.view"
	PermInventoryEdit = "inventory.edit"
)

// ProgramScopes lists all permissions related to programs, risk and inventory.
func ProgramScopes() []string {
	return []string{
		PermProgramsView,
		PermProgramsEdit,
		PermProgramsManage,
		PermRiskRegisterView,
		PermRiskRegisterEdit,
		PermInventoryView,
		PermInventoryEdit,
	}
}
