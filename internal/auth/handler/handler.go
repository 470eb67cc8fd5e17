package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"seal/internal/auth/models"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/httputil"
	"seal/pkg/requestcontext"
)

type Service interface {
	Challenge(ctx context.Context, address common.Address) (*models.Challenge, error)
	Token(ctx context.Context, address common.Address, signature []byte) (*models.TokenResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/challenge", h.HandleChallenge)
		r.Post("/token", h.HandleToken)
		r.Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[ChallengeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Challenge(ctx, req.Address)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue challenge",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Token(ctx, req.Address, req.SignatureBytes())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleMe echoes the caller the bearer token resolved to.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.Caller(r.Context())
	if caller == (common.Address{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MeResponse{Caller: caller})
}
