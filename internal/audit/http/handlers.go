package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/atlas-portal/atlas-portal/internal/audit"
	"github.com/atlas-portal/atlas-portal/internal/authz"
	"github.com/atlas-portal/atlas-portal/internal/platform/httpx"
)

// EventLister defines the business contract for the audit listing.
type EventLister interface {
	Recent(ctx context.Context, filters audit.Filters) ([]authz.Event, error)
}

// Handler serves the operator-facing audit trail.
type Handler struct {
	logger  *slog.Logger
	service EventLister
	mw      authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service EventLister, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

type eventResponse struct {
	ID       string            `json:"id"`
	Actor    string            `json:"actor"`
	Action   string            `json:"action"`
	Entity   string            `json:"entity"`
	EntityID string            `json:"entity_id"`
	Allowed  bool              `json:"allowed"`
	Reason   string            `json:"reason,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
	At       string            `json:"at"`
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	events, err := h.service.Recent(r.Context(), audit.Filters{
		Actor:  q.Get("actor"),
		Entity: q.Get("entity"),
		Action: q.Get("action"),
		Limit:  limit,
	})
	if err != nil {
		h.logger.Error("audit list", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]eventResponse, len(events))
	for i, event := range events {
		out[i] = eventResponse{
			ID:       event.ID,
			Actor:    event.Actor,
			Action:   event.Action,
			Entity:   event.Entity,
			EntityID: event.EntityID,
			Allowed:  event.Allowed,
			Reason:   string(event.Reason),
			Meta:     event.Meta,
			At:       event.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": out})
}
