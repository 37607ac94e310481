package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/middleware"
	"github.com/hr-data-api/internal/service"
)

// importFileField - имя поля multipart формы с файлом импорта
const importFileField = "json_file"

type ImportHandler struct {
	responder
	importService service.ImportService
	maxUpload     int64
}

func NewImportHandler(importService service.ImportService, maxUpload int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		responder:     newResponder(logger),
		importService: importService,
		maxUpload:     maxUpload,
	}
}

// Upload принимает файл и ставит задачу импорта в очередь, ответ 202
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.handleServiceError(w, domain.ErrImportFileTooLarge)
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(importFileField)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "json_file is required")
		return
	}
	defer file.Close()

	job, err := h.importService.CreateImportJob(r.Context(), principal.UserID, header.Filename, file)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusAccepted, dto.ImportAcceptedResponse{
		ImportJobID: job.ID,
		JobID:       job.JobToken,
		Status:      string(job.Status),
		ProgressURL: fmt.Sprintf("/api/v1/employees/import/status/%d", job.ID),
	})
}

func (h *ImportHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid import job id")
		return
	}

	job, err := h.importService.GetImportJobStatus(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewImportStatusResponse(job))
}

// Statistics отдаёт сводки импорта всех пользователей
func (h *ImportHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.importService.ListImportStatistics(r.Context(), nil)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// Notifications отдаёт уведомления текущего пользователя
func (h *ImportHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	notifications, err := h.importService.ListNotifications(r.Context(), principal.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, notifications)
}
