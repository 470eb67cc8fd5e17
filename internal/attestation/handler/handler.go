package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"seal/internal/attestation/models"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/httputil"
	"seal/pkg/requestcontext"
)

type Provider interface {
	RegisterSchema(ctx context.Context, schema models.Schema) (domain.SchemaID, error)
	Attest(ctx context.Context, att models.Attestation, extraData []byte) (domain.AttestationID, error)
	GetSchema(ctx context.Context, id domain.SchemaID) (*models.Schema, error)
	GetAttestation(ctx context.Context, id domain.AttestationID) (*models.Attestation, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, env models.Envelope) (bool, error)
}

// Handler exposes the local attestation provider and the admin dispatch endpoint.
type Handler struct {
	provider   Provider
	dispatcher Dispatcher
	logger     *slog.Logger
}

func New(provider Provider, dispatcher Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, dispatcher: dispatcher, logger: logger}
}

// Register mounts the provider endpoints. Writes require an authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sp", func(r chi.Router) {
		r.Post("/schemas", h.HandleRegisterSchema)
		r.Get("/schemas/{id}", h.HandleGetSchema)
		r.Post("/attestations", h.HandleAttest)
		r.Get("/attestations/{id}", h.HandleGetAttestation)
	})
}

// RegisterAdmin mounts the admin endpoints; the router guards them with the admin token.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/attestations", h.HandleAdminDispatch)
}

func (h *Handler) HandleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !requireCaller(w, ctx) {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterSchemaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := h.provider.RegisterSchema(ctx, req.ToSchema())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, IDResponse{ID: uint64(id)})
}

func (h *Handler) HandleAttest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !requireCaller(w, ctx) {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AttestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := h.provider.Attest(ctx, req.Attestation.ToAttestation(), req.ExtraData)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, IDResponse{ID: uint64(id)})
}

func (h *Handler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUint(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	schema, err := h.provider.GetSchema(r.Context(), domain.SchemaID(id))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, schema)
}

func (h *Handler) HandleGetAttestation(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUint(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	att, err := h.provider.GetAttestation(r.Context(), domain.AttestationID(id))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.PayloadFrom(att))
}

// HandleAdminDispatch handles POST /admin/attestations: an attestation seen
// on an external provider is pushed to its hook.
func (h *Handler) HandleAdminDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[AdminDispatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	delivered, err := h.dispatcher.Dispatch(ctx, req.Envelope)
	if err != nil {
		h.logger.WarnContext(ctx, "admin dispatch failed",
			"request_id", requestID,
			"attestation_id", req.Attestation.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DispatchResponse{Delivered: delivered})
}

func requireCaller(w http.ResponseWriter, ctx context.Context) bool {
	if requestcontext.Caller(ctx) == (common.Address{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	return true
}
