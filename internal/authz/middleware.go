package authz

import (
	"context"
	"net/http"
	"strings"

	"log/slog"

	"github.com/atlas-portal/atlas-portal/internal/shared"
)

// EventRecorder persists audit events produced by the middleware. The core
// itself never writes; this is the consumption contract for callers.
type EventRecorder interface {
	Record(ctx context.Context, event Event) error
}

// DecisionObserver receives every middleware verdict, e.g. for metrics.
type DecisionObserver interface {
	ObserveDecision(allowed bool, reason string)
}

// Middleware wires authorization checks into HTTP handlers.
type Middleware struct {
	Service  *Service
	Emitter  *Emitter
	Recorder EventRecorder
	Observer DecisionObserver
	Logger   *slog.Logger
}

// Require gates a route on a single permission evaluated against the given
// resource-owner relationship.
func (m Middleware) Require(permissionID string, relationship Relationship) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := m.currentPrincipal(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			decision := m.Service.Authorize(r.Context(), principal, Request{
				PermissionID: permissionID,
				Relationship: relationship,
			})
			m.record(r, principal, permissionID, decision)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAny ensures the principal holds at least one of the permissions or
// tags, without a relationship check.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := m.currentPrincipal(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			set, err := m.Service.ResolvePermissions(r.Context(), principal)
			if err != nil && m.Logger != nil {
				m.Logger.Warn("authz resolve", slog.String("role", principal.RoleID), slog.Any("error", err))
			}
			for _, p := range normalized {
				if set.Has(p) {
					m.record(r, principal, p, Allow())
					next.ServeHTTP(w, r)
					return
				}
			}
			m.record(r, principal, strings.Join(normalized, ","), Deny(DenyPermissionNotGranted))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func (m Middleware) currentPrincipal(r *http.Request) (Principal, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || strings.TrimSpace(sess.User()) == "" {
		return Principal{}, false
	}
	roleID := strings.TrimSpace(sess.Get(shared.SessionKeyRole))
	if roleID == "" {
		return Principal{}, false
	}
	department := strings.TrimSpace(sess.Get(shared.SessionKeyDepartment))
	if department == "" {
		department = DepartmentUnassigned
	}
	return Principal{RoleID: roleID, DepartmentKey: department}, true
}

func (m Middleware) record(r *http.Request, principal Principal, permissionID string, decision Decision) {
	if m.Observer != nil {
		m.Observer.ObserveDecision(decision.Allowed, string(decision.Reason))
	}
	if m.Emitter == nil || m.Recorder == nil {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	actor := ""
	if sess != nil {
		actor = sess.User()
	}
	event := m.Emitter.Emit(EventInput{
		Actor:    actor,
		Action:   "authorize",
		Entity:   "route",
		EntityID: r.URL.Path,
		Decision: decision,
		Meta: map[string]string{
			"permission": permissionID,
			"role":       principal.RoleID,
			"department": principal.DepartmentKey,
		},
	})
	if err := m.Recorder.Record(r.Context(), event); err != nil && m.Logger != nil {
		m.Logger.Error("authz audit record", slog.Any("error", err))
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
