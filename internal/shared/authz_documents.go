package shared

// Document permissions declared for the authorization catalog. Sensitivity
// tiers are separate permissions with their own scope; top-secret access is
// individually granted, hence its own-only scope.
const (
	PermDocumentsViewPublic       = "documents.view_public"
	PermDocumentsViewInternal     = "documents.view_internal"
	PermDocumentsViewConfidential = "documents.view_confidential"
	PermDocumentsViewTopSecret    = "documents.view_topsecret"
	PermDocumentsManage           = "documents.manage"
)

// DocumentScopes lists all permissions related to the documents module.
func DocumentScopes() []string {
	return []string{
		PermDocumentsViewPublic,
		PermDocumentsViewInternal,
		PermDocumentsViewConfidential,
		PermDocumentsViewTopSecret,
		PermDocumentsManage,
	}
}
