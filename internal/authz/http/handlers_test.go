package authzhttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-portal/atlas-portal/internal/authz"
	authzhttp "github.com/atlas-portal/atlas-portal/internal/authz/http"
	"github.com/atlas-portal/atlas-portal/internal/shared"
)

func newAuthzAPI(t *testing.T) http.Handler {
	t.Helper()
	snap, err := authz.SeedSnapshot()
	require.NoError(t, err)
	service := authz.NewServiceFromSnapshot(snap)
	mw := authz.Middleware{Service: service}
	handler := authzhttp.NewHandler(nil, service, mw)

	r := chi.NewRouter()
	r.Route("/authz", handler.MountRoutes)
	return r
}

func doRequest(t *testing.T, api http.Handler, method, path, body, roleID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if roleID != "" {
		manager := shared.NewSessionManager(nil, "test_session", "secret", time.Hour, false)
		sess, err := manager.Load(context.Background(), req)
		require.NoError(t, err)
		sess.SetUser("99")
		sess.Set(shared.SessionKeyRole, roleID)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	res := httptest.NewRecorder()
	api.ServeHTTP(res, req)
	return res
}

func TestListRolesRequiresSystemPermission(t *testing.T) {
	api := newAuthzAPI(t)

	res := doRequest(t, api, http.MethodGet, "/authz/roles", "", "basic_user_1")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doRequest(t, api, http.MethodGet, "/authz/roles", "", "")
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestListRoles(t *testing.T) {
	api := newAuthzAPI(t)
	res := doRequest(t, api, http.MethodGet, "/authz/roles", "", "system_administrator")
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Roles []struct {
			ID       string `json:"id"`
			Priority int    `json:"priority"`
		} `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Len(t, payload.Roles, 5)
	assert.Equal(t, "system_administrator", payload.Roles[0].ID)
	assert.Equal(t, "basic_user_1", payload.Roles[4].ID)
}

func TestListRoleGrants(t *testing.T) {
	api := newAuthzAPI(t)
	res := doRequest(t, api, http.MethodGet, "/authz/roles/basic_user_1/grants", "", "system_administrator")
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Grants []struct {
			PermissionID string `json:"permission_id"`
		} `json:"grants"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Len(t, payload.Grants, 5)

	res = doRequest(t, api, http.MethodGet, "/authz/roles/ghost/grants", "", "system_administrator")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestResolveEndpoint(t *testing.T) {
	api := newAuthzAPI(t)
	res := doRequest(t, api, http.MethodPost, "/authz/resolve",
		`{"role_id":"basic_user_1","department_key":"CALL_CENTER"}`, "system_administrator")
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Permissions []string `json:"permissions"`
		UnknownRole bool     `json:"unknown_role"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Len(t, payload.Permissions, 7)
	assert.False(t, payload.UnknownRole)
	assert.Contains(t, payload.Permissions, "case_intake")
}

func TestResolveEndpointUnknownRole(t *testing.T) {
	api := newAuthzAPI(t)
	res := doRequest(t, api, http.MethodPost, "/authz/resolve",
		`{"role_id":"ghost","department_key":"CALL_CENTER"}`, "system_administrator")
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Permissions []string `json:"permissions"`
		UnknownRole bool     `json:"unknown_role"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.True(t, payload.UnknownRole)
	assert.Equal(t, []string{"caller_followup", "case_intake"}, payload.Permissions)
}

func TestResolveEndpointValidation(t *testing.T) {
	api := newAuthzAPI(t)
	res := doRequest(t, api, http.MethodPost, "/authz/resolve", `{"department_key":"HR"}`, "system_administrator")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCheckAssignmentEndpoint(t *testing.T) {
	api := newAuthzAPI(t)

	res := doRequest(t, api, http.MethodPost, "/authz/assignments/check",
		`{"actor_role_id":"administrator","target_role_id":"system_administrator"}`, "system_administrator")
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.False(t, payload.Allowed)
	assert.Equal(t, string(authz.DenyExceedsGrantableLevel), payload.Reason)

	res = doRequest(t, api, http.MethodPost, "/authz/assignments/check",
		`{"actor_role_id":"system_administrator","target_role_id":"administrator"}`, "system_administrator")
	require.Equal(t, http.StatusOK, res.Code)
	payload.Reason = ""
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.True(t, payload.Allowed)
}
