package handler

import (
	"log/slog"
	"net/http"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/service"
)

type OrganizationHandler struct {
	responder
	orgService service.OrganizationService
}

func NewOrganizationHandler(orgService service.OrganizationService, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		responder:  newResponder(logger),
		orgService: orgService,
	}
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := h.parsePagination(w, r)
	if !ok {
		return
	}

	result, err := h.orgService.List(r.Context(), page)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	page = page.Normalize()
	h.respondJSON(w, http.StatusOK, dto.Page[domain.Organization]{
		Data: result.Items,
		Meta: dto.NewPageMeta(page.Page, page.PerPage, result.Total),
	})
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrganizationRequest
	if !h.decode(w, r, &req) {
		return
	}

	org, err := h.orgService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	org, err := h.orgService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	var req dto.UpdateOrganizationRequest
	if !h.decode(w, r, &req) {
		return
	}

	org, err := h.orgService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	if err := h.orgService.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondMessage(w, http.StatusOK, "organization deleted")
}
