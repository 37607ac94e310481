package handler

import (
	"log/slog"
	"net/http"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/service"
)

type TeamHandler struct {
	responder
	teamService service.TeamService
}

func NewTeamHandler(teamService service.TeamService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{
		responder:   newResponder(logger),
		teamService: teamService,
	}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := h.parsePagination(w, r)
	if !ok {
		return
	}

	teams, total, err := h.teamService.List(r.Context(), page)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	page = page.Normalize()
	h.respondJSON(w, http.StatusOK, dto.Page[domain.Team]{
		Data: teams,
		Meta: dto.NewPageMeta(page.Page, page.PerPage, total),
	})
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTeamRequest
	if !h.decode(w, r, &req) {
		return
	}

	team, err := h.teamService.Create(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	team, err := h.teamService.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	var req dto.UpdateTeamRequest
	if !h.decode(w, r, &req) {
		return
	}

	team, err := h.teamService.Update(r.Context(), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	if err := h.teamService.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondMessage(w, http.StatusOK, "team deleted")
}
