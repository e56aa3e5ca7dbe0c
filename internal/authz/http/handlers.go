package authzhttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-portal/atlas-portal/internal/authz"
	"github.com/atlas-portal/atlas-portal/internal/platform/httpx"
	"github.com/atlas-portal/atlas-portal/internal/shared"
)

// Handler exposes the administrative JSON API over the authorization
// catalogs. Every route is itself gated through the engine, so the catalogs
// are protected resources of the system they define.
type Handler struct {
	logger    *slog.Logger
	service   *authz.Service
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *authz.Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

type roleResponse struct {
	ID                     string `json:"id"`
	DisplayName            string `json:"display_name"`
	Description            string `json:"description,omitempty"`
	SecurityClearanceLevel int    `json:"security_clearance_level"`
	Priority               int    `json:"priority"`
	IsSystemRole           bool   `json:"is_system_role"`
	CanAssignRoles         bool   `json:"can_assign_roles"`
	CanManageUsers         bool   `json:"can_manage_users"`
	MaxSecurityLevel       int    `json:"max_security_level"`
}

type permissionResponse struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	Description      string `json:"description,omitempty"`
	Module           string `json:"module"`
	Category         string `json:"category"`
	Action           string `json:"action"`
	Scope            string `json:"scope"`
	SecurityLevel    int    `json:"security_level"`
	RequiresApproval bool   `json:"requires_approval"`
	IsActive         bool   `json:"is_active"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.service.Snapshot().Roles().List()
	out := make([]roleResponse, len(roles))
	for i, role := range roles {
		out[i] = toRoleResponse(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms := h.service.Snapshot().Permissions().List()
	out := make([]permissionResponse, len(perms))
	for i, perm := range perms {
		out[i] = toPermissionResponse(perm)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}

func (h *Handler) listRoleGrants(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	snap := h.service.Snapshot()
	if _, err := snap.Roles().Get(roleID); err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "role not found")
		return
	}
	grants := snap.RoleGrants(roleID)
	type grantResponse struct {
		PermissionID string `json:"permission_id"`
		GrantedBy    string `json:"granted_by"`
	}
	out := make([]grantResponse, len(grants))
	for i, grant := range grants {
		out[i] = grantResponse{PermissionID: grant.PermissionID, GrantedBy: grant.GrantedBy}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "grants": out})
}

type resolveRequest struct {
	RoleID        string `json:"role_id" validate:"required"`
	DepartmentKey string `json:"department_key"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role_id is required")
		return
	}
	if strings.TrimSpace(req.DepartmentKey) == "" {
		req.DepartmentKey = authz.DepartmentUnassigned
	}
	principal := authz.Principal{RoleID: req.RoleID, DepartmentKey: req.DepartmentKey}
	set, err := h.service.ResolvePermissions(r.Context(), principal)
	resp := map[string]any{
		"role_id":        req.RoleID,
		"department_key": req.DepartmentKey,
		"permissions":    set.List(),
	}
	if errors.Is(err, authz.ErrUnknownRole) {
		resp["unknown_role"] = true
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type upsertRoleRequest struct {
	ID                     string `json:"id" validate:"required"`
	DisplayName            string `json:"display_name" validate:"required"`
	Description            string `json:"description"`
	SecurityClearanceLevel int    `json:"security_clearance_level" validate:"gte=0"`
	Priority               int    `json:"priority"`
	CanAssignRoles         bool   `json:"can_assign_roles"`
	CanManageUsers         bool   `json:"can_manage_users"`
	MaxSecurityLevel       int    `json:"max_security_level" validate:"gte=0"`
}

func (h *Handler) upsertRole(w http.ResponseWriter, r *http.Request) {
	var req upsertRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role := authz.Role{
		ID:                     req.ID,
		DisplayName:            req.DisplayName,
		Description:            req.Description,
		SecurityClearanceLevel: req.SecurityClearanceLevel,
		Priority:               req.Priority,
		CanAssignRoles:         req.CanAssignRoles,
		CanManageUsers:         req.CanManageUsers,
		MaxSecurityLevel:       req.MaxSecurityLevel,
	}
	if existing, err := h.service.Snapshot().Roles().Get(req.ID); err == nil {
		role.IsSystemRole = existing.IsSystemRole
	}
	if err := h.service.UpsertRole(r.Context(), role); err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(role))
}

type upsertPermissionRequest struct {
	ID               string `json:"id" validate:"required"`
	DisplayName      string `json:"display_name" validate:"required"`
	Description      string `json:"description"`
	Module           string `json:"module" validate:"required"`
	Category         string `json:"category" validate:"required"`
	Action           string `json:"action" validate:"required"`
	Scope            string `json:"scope" validate:"required,oneof=own team department organization"`
	SecurityLevel    int    `json:"security_level" validate:"gte=0"`
	RequiresApproval bool   `json:"requires_approval"`
	IsActive         *bool  `json:"is_active"`
}

func (h *Handler) upsertPermission(w http.ResponseWriter, r *http.Request) {
	var req upsertPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	perm := authz.Permission{
		ID:               req.ID,
		DisplayName:      req.DisplayName,
		Description:      req.Description,
		Module:           req.Module,
		Category:         authz.Category(req.Category),
		Action:           authz.Action(req.Action),
		Scope:            authz.Scope(req.Scope),
		SecurityLevel:    req.SecurityLevel,
		RequiresApproval: req.RequiresApproval,
		IsActive:         active,
	}
	if err := h.service.UpsertPermission(r.Context(), perm); err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponse(perm))
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *Handler) setPermissionActive(w http.ResponseWriter, r *http.Request) {
	permissionID := chi.URLParam(r, "permissionID")
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "is_active is required")
		return
	}
	if err := h.service.SetPermissionActive(r.Context(), permissionID, *req.IsActive); err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": permissionID, "is_active": *req.IsActive})
}

type grantRequest struct {
	PermissionID string `json:"permission_id" validate:"required"`
}

func (h *Handler) grantPermission(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission_id is required")
		return
	}
	if err := h.service.GrantPermission(r.Context(), roleID, req.PermissionID, h.currentActor(r)); err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": roleID, "permission_id": req.PermissionID})
}

func (h *Handler) revokePermission(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	permissionID := chi.URLParam(r, "permissionID")
	if err := h.service.RevokePermission(r.Context(), roleID, permissionID); err != nil {
		h.respondWriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type departmentTagRequest struct {
	Tag string `json:"tag" validate:"required"`
}

func (h *Handler) grantDepartmentTag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "departmentKey")
	var req departmentTagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tag is required")
		return
	}
	if err := h.service.GrantDepartmentTag(r.Context(), key, req.Tag); err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"department_key": key, "tag": req.Tag})
}

func (h *Handler) revokeDepartmentTag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "departmentKey")
	tag := chi.URLParam(r, "tag")
	if err := h.service.RevokeDepartmentTag(r.Context(), key, tag); err != nil {
		h.respondWriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignmentCheckRequest struct {
	ActorRoleID  string `json:"actor_role_id" validate:"required"`
	TargetRoleID string `json:"target_role_id" validate:"required"`
}

func (h *Handler) checkAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	decision := h.service.CanAssignRole(req.ActorRoleID, req.TargetRoleID)
	resp := map[string]any{"allowed": decision.Allowed}
	if !decision.Allowed {
		resp["reason"] = string(decision.Reason)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) currentActor(r *http.Request) string {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return ""
	}
	return sess.User()
}

// respondWriteError keeps deny details out of client responses; the audit
// trail retains the specifics.
func (h *Handler) respondWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrCatalogInvariant):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invariant Violation", err.Error())
	case errors.Is(err, authz.ErrUnknownRole), errors.Is(err, authz.ErrUnknownPermission):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	default:
		if h.logger != nil {
			h.logger.Error("authz admin write", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toRoleResponse(role authz.Role) roleResponse {
	return roleResponse{
		ID:                     role.ID,
		DisplayName:            role.DisplayName,
		Description:            role.Description,
		SecurityClearanceLevel: role.SecurityClearanceLevel,
		Priority:               role.Priority,
		IsSystemRole:           role.IsSystemRole,
		CanAssignRoles:         role.CanAssignRoles,
		CanManageUsers:         role.CanManageUsers,
		MaxSecurityLevel:       role.MaxSecurityLevel,
	}
}

func toPermissionResponse(perm authz.Permission) permissionResponse {
	return permissionResponse{
		ID:               perm.ID,
		DisplayName:      perm.DisplayName,
		Description:      perm.Description,
		Module:           perm.Module,
		Category:         string(perm.Category),
		Action:           string(perm.Action),
		Scope:            string(perm.Scope),
		SecurityLevel:    perm.SecurityLevel,
		RequiresApproval: perm.RequiresApproval,
		IsActive:         perm.IsActive,
	}
}
