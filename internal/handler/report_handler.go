package handler

import (
	"log/slog"
	"net/http"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/repository"
	"github.com/hr-data-api/internal/service"
)

type ReportHandler struct {
	responder
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		responder:     newResponder(logger),
		reportService: reportService,
	}
}

func (h *ReportHandler) TeamSalaries(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.TeamSalaries(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) OrganizationHeadcount(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.OrganizationHeadcount(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, rows)
}

// SalaryLogs - журнал изменений зарплат с фильтрами employee_name, team_id, organization_id
func (h *ReportHandler) SalaryLogs(w http.ResponseWriter, r *http.Request) {
	pagination, ok := h.parsePagination(w, r)
	if !ok {
		return
	}

	query := dto.SalaryLogQuery{
		Page:         pagination.Page,
		PerPage:      pagination.PerPage,
		EmployeeName: r.URL.Query().Get("employee_name"),
	}
	var err error
	if query.TeamID, err = queryInt64Ptr(r, "team_id"); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "team_id must be an integer")
		return
	}
	if query.OrganizationID, err = queryInt64Ptr(r, "organization_id"); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "organization_id must be an integer")
		return
	}
	if !h.validate(w, &query) {
		return
	}

	logs, total, err := h.reportService.SalaryLogs(r.Context(), &query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	page := repository.Pagination{Page: query.Page, PerPage: query.PerPage}.Normalize()
	h.respondJSON(w, http.StatusOK, dto.Page[domain.SalaryChangeLog]{
		Data: logs,
		Meta: dto.NewPageMeta(page.Page, page.PerPage, total),
	})
}
