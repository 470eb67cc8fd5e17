package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"seal/internal/certify/models"
	"seal/internal/strategy"
	"seal/pkg/domain"
	"seal/pkg/platform/httputil"
	"seal/pkg/requestcontext"
)

type Service interface {
	Address() common.Address
	Owner() common.Address
	AddToCloneableCourse(ctx context.Context, template strategy.Template) (*strategy.Template, error)
	RemoveFromCloneableCourse(ctx context.Context, template common.Address) error
	ListCloneableCourses(ctx context.Context) ([]strategy.Template, error)
	GetCourse(ctx context.Context, id domain.CourseID) (*models.Course, error)
	ListCoursesByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Course, error)
	ListCertificates(ctx context.Context, id domain.CourseID) ([]models.Certificate, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the course host under /certify.
func (h *Handler) Register(r chi.Router) {
	r.Route("/certify", func(r chi.Router) {
		r.Get("/", h.HandleGetHost)
		r.Get("/templates", h.HandleListTemplates)
		r.Post("/templates", h.HandleAddTemplate)
		r.Delete("/templates/{address}", h.HandleRemoveTemplate)
		r.Get("/courses/{id}", h.HandleGetCourse)
		r.Get("/courses/{id}/certificates", h.HandleListCertificates)
		r.Get("/profiles/{profileID}/courses", h.HandleListCourses)
	})
}

func (h *Handler) HandleGetHost(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HostResponse{
		Address: h.service.Address(),
		Owner:   h.service.Owner(),
	})
}

func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListCloneableCourses(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, templates)
}

func (h *Handler) HandleAddTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TemplateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	added, err := h.service.AddToCloneableCourse(ctx, req.ToTemplate())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, added)
}

func (h *Handler) HandleRemoveTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveFromCloneableCourse(r.Context(), template); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := courseParam(w, r)
	if !ok {
		return
	}
	course, err := h.service.GetCourse(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, course)
}

func (h *Handler) HandleListCertificates(w http.ResponseWriter, r *http.Request) {
	id, ok := courseParam(w, r)
	if !ok {
		return
	}
	certs, err := h.service.ListCertificates(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, certs)
}

func (h *Handler) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	profileID, err := domain.ParseProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courses, err := h.service.ListCoursesByProfile(r.Context(), profileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, courses)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "certify request failed",
		"request_id", requestcontext.RequestID(r.Context()),
		"caller", requestcontext.Caller(r.Context()).Hex(),
		"path", r.URL.Path,
		"error", err,
	)
	httputil.WriteError(w, err)
}

func courseParam(w http.ResponseWriter, r *http.Request) (domain.CourseID, bool) {
	id, err := domain.ParseUint(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return domain.CourseID(id), true
}
