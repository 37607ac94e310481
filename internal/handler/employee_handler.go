package handler

import (
	"log/slog"
	"net/http"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/repository"
	"github.com/hr-data-api/internal/service"
)

type EmployeeHandler struct {
	responder
	empService service.EmployeeService
}

func NewEmployeeHandler(empService service.EmployeeService, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		responder:  newResponder(logger),
		empService: empService,
	}
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseListQuery(w, r)
	if !ok {
		return
	}
	if !h.validate(w, &query) {
		return
	}

	employees, total, err := h.empService.List(r.Context(), &query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	page := repository.Pagination{Page: query.Page, PerPage: query.PerPage}.Normalize()
	h.respondJSON(w, http.StatusOK, dto.Page[domain.Employee]{
		Data: employees,
		Meta: dto.NewPageMeta(page.Page, page.PerPage, total),
	})
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	emp, err := h.empService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, emp)
}

func (h *EmployeeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	emp, err := h.empService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, emp)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req dto.UpdateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	emp, err := h.empService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, emp)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	if err := h.empService.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondMessage(w, http.StatusOK, "employee deleted")
}

func (h *EmployeeHandler) parseListQuery(w http.ResponseWriter, r *http.Request) (dto.EmployeeListQuery, bool) {
	var query dto.EmployeeListQuery

	pagination, ok := h.parsePagination(w, r)
	if !ok {
		return query, false
	}
	query.Page = pagination.Page
	query.PerPage = pagination.PerPage

	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		query.StartDate = &startDate
	}

	var err error
	if query.TeamID, err = queryInt64Ptr(r, "team_id"); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "team_id must be an integer")
		return query, false
	}
	if query.OrganizationID, err = queryInt64Ptr(r, "organization_id"); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "organization_id must be an integer")
		return query, false
	}

	return query, true
}
