package authzhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/atlas-portal/atlas-portal/internal/shared"
)

const rateLimit = 30
const rateWindow = time.Minute

// MountRoutes registers the authorization admin routes. Reads require the
// system.roles permission as well: the permission model itself is not
// disclosed to ordinary users.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Use(h.mw.RequireAny(shared.PermSystemRoles))
		gr.Get("/roles", h.listRoles)
		gr.Post("/roles", h.upsertRole)
		gr.Get("/roles/{roleID}/grants", h.listRoleGrants)
		gr.Post("/roles/{roleID}/grants", h.grantPermission)
		gr.Delete("/roles/{roleID}/grants/{permissionID}", h.revokePermission)
		gr.Get("/permissions", h.listPermissions)
		gr.Post("/permissions", h.upsertPermission)
		gr.Post("/permissions/{permissionID}/active", h.setPermissionActive)
		gr.Post("/departments/{departmentKey}/tags", h.grantDepartmentTag)
		gr.Delete("/departments/{departmentKey}/tags/{tag}", h.revokeDepartmentTag)
		gr.Post("/resolve", h.resolve)
		gr.Post("/assignments/check", h.checkAssignment)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
