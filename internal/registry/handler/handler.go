package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"seal/internal/registry/models"
	"seal/pkg/domain"
	"seal/pkg/platform/httputil"
	"seal/pkg/requestcontext"
)

type Service interface {
	AuthorizeProfileCreation(ctx context.Context, account common.Address, status bool) error
	AddCreditsToAccount(ctx context.Context, account common.Address, credits uint64) error
	AddCreditsToProfile(ctx context.Context, id domain.ProfileID, credits uint64) error
	UpdateAttestationProvider(ctx context.Context, provider common.Address) error
	GrantStrategy(ctx context.Context, account common.Address) error
	RevokeStrategy(ctx context.Context, account common.Address) error
	Multicall(ctx context.Context, calls []models.Call) error

	GetAccount(ctx context.Context, account common.Address) (*models.Account, error)
	GetProfile(ctx context.Context, id domain.ProfileID) (*models.Profile, error)
	GetProfileByAnchor(ctx context.Context, anchor common.Address) (*models.Profile, error)
	ListProfilesByAccount(ctx context.Context, account common.Address) ([]*models.Profile, error)
	IsOwnerOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error)
	IsMemberOfProfile(ctx context.Context, id domain.ProfileID, account common.Address) (bool, error)
	AttestationProvider(ctx context.Context) (common.Address, error)

	UpdateProfileName(ctx context.Context, id domain.ProfileID, name string) (*models.Profile, error)
	UpdateProfileMetadata(ctx context.Context, id domain.ProfileID, metadata models.Metadata) (*models.Profile, error)
	AddMembers(ctx context.Context, id domain.ProfileID, members []common.Address) (*models.Profile, error)
	RemoveMembers(ctx context.Context, id domain.ProfileID, members []common.Address) (*models.Profile, error)
	UpdateProfilePendingOwner(ctx context.Context, id domain.ProfileID, pending common.Address) (*models.Profile, error)
	AcceptProfileOwnership(ctx context.Context, id domain.ProfileID) (*models.Profile, error)
	TransferCreditsToProfile(ctx context.Context, id domain.ProfileID, credits uint64) error
	ConsumeProfileCredits(ctx context.Context, id domain.ProfileID, credits uint64) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the registry under /registry. Authorization is decided by
// the service from the caller in context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Get("/provider", h.HandleGetProvider)
		r.Put("/provider", h.HandleUpdateProvider)
		r.Post("/multicall", h.HandleMulticall)
		r.Post("/strategies", h.HandleGrantStrategy)
		r.Delete("/strategies/{address}", h.HandleRevokeStrategy)

		r.Route("/accounts/{address}", func(r chi.Router) {
			r.Get("/", h.HandleGetAccount)
			r.Get("/profiles", h.HandleListProfiles)
			r.Put("/authorization", h.HandleAuthorize)
			r.Post("/credits", h.HandleAddCreditsToAccount)
		})

		r.Get("/anchors/{anchor}", h.HandleGetProfileByAnchor)

		r.Route("/profiles/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetProfile)
			r.Get("/membership", h.HandleMembership)
			r.Put("/name", h.HandleUpdateName)
			r.Put("/metadata", h.HandleUpdateMetadata)
			r.Post("/members", h.HandleAddMembers)
			r.Post("/members/remove", h.HandleRemoveMembers)
			r.Put("/pending-owner", h.HandleUpdatePendingOwner)
			r.Post("/accept-ownership", h.HandleAcceptOwnership)
			r.Post("/credits", h.HandleAddCreditsToProfile)
			r.Post("/credits/transfer", h.HandleTransferCredits)
			r.Post("/credits/consume", h.HandleConsumeCredits)
		})
	})
}

func (h *Handler) HandleGetProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := h.service.AttestationProvider(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProviderResponse{Provider: provider})
}

func (h *Handler) HandleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[AddressRequest](h, w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.UpdateAttestationProvider(r.Context(), req.Address))
}

func (h *Handler) HandleMulticall(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[MulticallRequest](h, w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.Multicall(r.Context(), req.Calls))
}

func (h *Handler) HandleGrantStrategy(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[AddressRequest](h, w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.GrantStrategy(r.Context(), req.Address))
}

func (h *Handler) HandleRevokeStrategy(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	h.respond(w, r, h.service.RevokeStrategy(r.Context(), account))
}

func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	a, err := h.service.GetAccount(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	list, err := h.service.ListProfilesByAccount(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"profiles": list})
}

func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	req, ok := decode[AuthorizationRequest](h, w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.AuthorizeProfileCreation(r.Context(), account, req.Status))
}

func (h *Handler) HandleAddCreditsToAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	req, ok := decode[CreditsRequest](h, w, r)
	if !ok {
		return
	}
	h.respond(w, r, h.service.AddCreditsToAccount(r.Context(), account, req.Credits))
}

func (h *Handler) HandleGetProfileByAnchor(w http.ResponseWriter, r *http.Request) {
	anchor, ok := addressParam(w, r, "anchor")
	if !ok {
		return
	}
	p, err := h.service.GetProfileByAnchor(r.Context(), anchor)
	h.writeProfile(w, p, err)
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetProfile(r.Context(), id)
	h.writeProfile(w, p, err)
}

// HandleMembership handles GET /registry/profiles/{id}/membership?account=.
func (h *Handler) HandleMembership(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	account, err := domain.ParseAddress(r.URL.Query().Get("account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	isOwner, err := h.service.IsOwnerOfProfile(r.Context(), id, account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	isMember, err := h.service.IsMemberOfProfile(r.Context(), id, account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MembershipResponse{IsOwner: isOwner, IsMember: isMember})
}

func (h *Handler) HandleUpdateName(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	req, ok := decode[NameRequest](h, w, r)
	if !ok {
		return
	}
	p, err := h.service.UpdateProfileName(r.Context(), id, req.Name)
	h.writeProfile(w, p, err)
}

func (h *Handler) HandleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	req, ok := decode[MetadataRequest](h, w, r)
	if !ok {
		return
	}
	p, err := h.service.UpdateProfileMetadata(r.Context(), id, models.Metadata{Protocol: req.Protocol, Pointer: req.Pointer})
	h.writeProfile(w, p, err)
}

func (h *Handler) HandleAddMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	req, ok := decode[MembersRequest](h, w, r)
	if !ok {
		return
	}
	p, err := h.service.AddMembers(r.Context(), id, req.Members)
	h.writeProfile(w, p, err)
}

func (h *Handler) HandleRemoveMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	req, ok := decode[MembersRequest](h, w, r)
	if !ok {
		return
	}
	p, err := h.service.RemoveMembers(r.Context(), id, req.Members)
	h.writeProfile(w, p, err)
}

func (h *Handler) HandleUpdatePendingOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	req, ok := decode[AddressRequest](h, w, r)
	if !ok {
		return
	}
	p, err := h.service.UpdateProfilePendingOwner(r.Context(), id, req.Address)
	h.writeProfile(w, p, err)
}

func (h *Handler) HandleAcceptOwnership(w http.ResponseWriter, r *http.Request) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	p, err := h.service.AcceptProfileOwnership(r.Context(), id)
	h.writeProfile(w, p, err)
}

func (h *Handler) HandleAddCreditsToProfile(w http.ResponseWriter, r *http.Request) {
	h.handleProfileCredits(w, r, h.service.AddCreditsToProfile)
}

func (h *Handler) HandleTransferCredits(w http.ResponseWriter, r *http.Request) {
	h.handleProfileCredits(w, r, h.service.TransferCreditsToProfile)
}

func (h *Handler) HandleConsumeCredits(w http.ResponseWriter, r *http.Request) {
	h.handleProfileCredits(w, r, h.service.ConsumeProfileCredits)
}

func (h *Handler) handleProfileCredits(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.ProfileID, uint64) error) {
	id, ok := profileParam(w, r)
	if !ok {
		return
	}
	req, ok := decode[CreditsRequest](h, w, r)
	if !ok {
		return
	}
	h.respond(w, r, op(r.Context(), id, req.Credits))
}

func (h *Handler) writeProfile(w http.ResponseWriter, p *models.Profile, err error) {
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// respond writes 204 on success.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.logger.WarnContext(r.Context(), "registry request failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"caller", requestcontext.Caller(r.Context()).Hex(),
			"path", r.URL.Path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode[T any](h *Handler, w http.ResponseWriter, r *http.Request) (*T, bool) {
	ctx := r.Context()
	return httputil.DecodeAndPrepare[T](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
}

func addressParam(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		httputil.WriteError(w, err)
		return common.Address{}, false
	}
	return addr, true
}

func profileParam(w http.ResponseWriter, r *http.Request) (domain.ProfileID, bool) {
	id, err := domain.ParseProfileID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ProfileID{}, false
	}
	return id, true
}
