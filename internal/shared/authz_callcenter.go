package shared

// Call center and reporting permissions declared for the authorization
// catalog.
const (
	PermCallCenterView     = "callcenter.view"
	PermCallCenterEditTeam = "callcenter.edit_team"
	PermCallCenterEditAll  = "callcenter.edit_all"

	PermReportsView   = "reports.view"
	PermAnalyticsView = "analytics.view"
)

// CallCenterScopes lists all permissions related to the call center module.
func CallCenterScopes() []string {
	return []string{
		PermCallCenterView,
		PermCallCenterEditTeam,
		PermCallCenterEditAll,
		PermReportsView,
		PermAnalyticsView,
	}
}
