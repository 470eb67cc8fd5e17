package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"seal/internal/events"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/httputil"
	"seal/pkg/requestcontext"
)

const maxLimit = 1000

type Service interface {
	List(ctx context.Context, filter events.Filter) ([]events.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.HandleList)
}

// HandleList handles GET /events?type=&source=&subject=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := events.Filter{
		Type:    events.Type(q.Get("type")),
		Source:  q.Get("source"),
		Subject: q.Get("subject"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxLimit {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "limit must be between 1 and %d", maxLimit))
			return
		}
		filter.Limit = limit
	}

	list, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": list})
}
