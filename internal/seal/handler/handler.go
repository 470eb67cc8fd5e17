package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"seal/internal/seal/models"
	"seal/pkg/domain"
	"seal/pkg/platform/httputil"
	"seal/pkg/requestcontext"
)

type Service interface {
	Address() common.Address
	Owner() common.Address
	GetRegistry(ctx context.Context) (common.Address, error)
	GetStrategy(ctx context.Context) (common.Address, error)
	UpdateRegistry(ctx context.Context, registry common.Address) error
	UpdateStrategy(ctx context.Context, template common.Address) error
	GetActivity(ctx context.Context, id domain.ActivityID) (*models.Activity, error)
	ListActivitiesByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Activity, error)
	ListSeals(ctx context.Context, id domain.ActivityID) ([]models.Seal, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the activity host under /seal.
func (h *Handler) Register(r chi.Router) {
	r.Route("/seal", func(r chi.Router) {
		r.Get("/", h.HandleGetHost)
		r.Put("/registry", h.HandleUpdateRegistry)
		r.Put("/strategy", h.HandleUpdateStrategy)
		r.Get("/activities/{id}", h.HandleGetActivity)
		r.Get("/activities/{id}/seals", h.HandleListSeals)
		r.Get("/profiles/{profileID}/activities", h.HandleListActivities)
	})
}

func (h *Handler) HandleGetHost(w http.ResponseWriter, r *http.Request) {
	registry, err := h.service.GetRegistry(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	strategy, err := h.service.GetStrategy(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HostResponse{
		Address:  h.service.Address(),
		Owner:    h.service.Owner(),
		Registry: registry,
		Strategy: strategy,
	})
}

func (h *Handler) HandleUpdateRegistry(w http.ResponseWriter, r *http.Request) {
	h.handleUpdate(w, r, h.service.UpdateRegistry)
}

func (h *Handler) HandleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	h.handleUpdate(w, r, h.service.UpdateStrategy)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, op func(context.Context, common.Address) error) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := op(ctx, req.Address); err != nil {
		h.logger.WarnContext(ctx, "seal request failed",
			"request_id", requestcontext.RequestID(ctx),
			"caller", requestcontext.Caller(ctx).Hex(),
			"path", r.URL.Path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := activityParam(w, r)
	if !ok {
		return
	}
	a, err := h.service.GetActivity(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) HandleListSeals(w http.ResponseWriter, r *http.Request) {
	id, ok := activityParam(w, r)
	if !ok {
		return
	}
	seals, err := h.service.ListSeals(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, seals)
}

func (h *Handler) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	profileID, err := domain.ParseProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	activities, err := h.service.ListActivitiesByProfile(r.Context(), profileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, activities)
}

func activityParam(w http.ResponseWriter, r *http.Request) (domain.ActivityID, bool) {
	id, err := domain.ParseUint(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return domain.ActivityID(id), true
}
