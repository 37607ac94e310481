package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/repository"
)

// responder - общий код ответов, встраивается во все обработчики
type responder struct {
	validator *validator.Validate
	logger    *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{
		validator: validator.New(),
		logger:    logger,
	}
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data any) {
	h.write(w, status, dto.Envelope{Success: true, Data: data})
}

func (h responder) respondMessage(w http.ResponseWriter, status int, message string) {
	h.write(w, status, dto.Envelope{Success: true, Message: message})
}

func (h responder) respondError(w http.ResponseWriter, status int, message string) {
	h.write(w, status, dto.Envelope{Success: false, Message: message})
}

func (h responder) write(w http.ResponseWriter, status int, body dto.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// decode читает JSON тело и валидирует его
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return h.validate(w, dst)
}

func (h responder) validate(w http.ResponseWriter, v any) bool {
	if err := h.validator.Struct(v); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "validation error: "+err.Error())
		return false
	}
	return true
}

func (h responder) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrganizationNotFound),
		errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrEmployeeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrImportJobNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateOrganizationName),
		errors.Is(err, domain.ErrDuplicateTeamName),
		errors.Is(err, domain.ErrDuplicateEmployeeEmail),
		errors.Is(err, domain.ErrDuplicateUserEmail):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNegativeSalary),
		errors.Is(err, domain.ErrInvalidImportFile):
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrImportFileTooLarge):
		h.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h responder) parsePagination(w http.ResponseWriter, r *http.Request) (repository.Pagination, bool) {
	page, err := queryInt(r, "page")
	if err != nil || page < 0 {
		h.respondError(w, http.StatusUnprocessableEntity, "page must be a non-negative integer")
		return repository.Pagination{}, false
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil || perPage < 0 || perPage > repository.MaxPerPage {
		h.respondError(w, http.StatusUnprocessableEntity, "per_page must be between 1 and 100")
		return repository.Pagination{}, false
	}
	return repository.Pagination{Page: page, PerPage: perPage}, true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func queryInt64Ptr(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
