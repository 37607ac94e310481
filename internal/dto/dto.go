package dto

import (
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/shopspring/decimal"
)

// RegisterRequest - запрос на регистрацию
type RegisterRequest struct {
	Name     string       `json:"name" validate:"required,max=255"`
	Email    string       `json:"email" validate:"required,email,max=255"`
	Password string       `json:"password" validate:"required,min=6,max=72"`
	RoleID   *domain.Role `json:"role_id" validate:"omitempty,oneof=1 2"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse - выданный токен доступа
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *domain.User `json:"user"`
}

// CreateOrganizationRequest - запрос на создание организации
type CreateOrganizationRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Industry    string  `json:"industry" validate:"required,max=255"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Website     *string `json:"website" validate:"omitempty,url,max=255"`
	FoundedYear *int    `json:"founded_year" validate:"omitempty,min=1800,max=2100"`
}

// UpdateOrganizationRequest - частичное обновление организации
type UpdateOrganizationRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Industry    *string `json:"industry" validate:"omitempty,min=1,max=255"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Website     *string `json:"website" validate:"omitempty,url,max=255"`
	FoundedYear *int    `json:"founded_year" validate:"omitempty,min=1800,max=2100"`
}

// CreateTeamRequest - запрос на создание команды
type CreateTeamRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	OrganizationID int64   `json:"organization_id" validate:"required,min=1"`
	Department     *string `json:"department" validate:"omitempty,max=255"`
}

// UpdateTeamRequest - частичное обновление команды
type UpdateTeamRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=255"`
	OrganizationID *int64  `json:"organization_id" validate:"omitempty,min=1"`
	Department     *string `json:"department" validate:"omitempty,max=255"`
}

// CreateEmployeeRequest - запрос на создание сотрудника
type CreateEmployeeRequest struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Email          string          `json:"email" validate:"required,email,max=255"`
	TeamID         int64           `json:"team_id" validate:"required,min=1"`
	OrganizationID int64           `json:"organization_id" validate:"required,min=1"`
	Salary         decimal.Decimal `json:"salary"`
	StartDate      string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	Position       *string         `json:"position" validate:"omitempty,max=255"`
}

// UpdateEmployeeRequest - частичное обновление сотрудника
type UpdateEmployeeRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Email          *string          `json:"email" validate:"omitempty,email,max=255"`
	TeamID         *int64           `json:"team_id" validate:"omitempty,min=1"`
	OrganizationID *int64           `json:"organization_id" validate:"omitempty,min=1"`
	Salary         *decimal.Decimal `json:"salary"`
	StartDate      *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Position       *string          `json:"position" validate:"omitempty,max=255"`
}

// EmployeeListQuery - фильтры списка сотрудников
type EmployeeListQuery struct {
	Page           int     `validate:"min=0"`
	PerPage        int     `validate:"min=0,max=100"`
	StartDate      *string `validate:"omitempty,datetime=2006-01-02"`
	TeamID         *int64  `validate:"omitempty,min=1"`
	OrganizationID *int64  `validate:"omitempty,min=1"`
}

// SalaryLogQuery - фильтры журнала изменений зарплат
type SalaryLogQuery struct {
	Page           int    `validate:"min=0"`
	PerPage        int    `validate:"min=0,max=100"`
	EmployeeName   string `validate:"max=255"`
	TeamID         *int64 `validate:"omitempty,min=1"`
	OrganizationID *int64 `validate:"omitempty,min=1"`
}

// PageMeta - сведения о странице списка
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// NewPageMeta считает номер последней страницы
func NewPageMeta(page, perPage int, total int64) PageMeta {
	last := 1
	if perPage > 0 && total > 0 {
		last = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return PageMeta{CurrentPage: page, LastPage: last, PerPage: perPage, Total: total}
}

// Page - страница списка
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// ImportAcceptedResponse - ответ на загрузку файла импорта
type ImportAcceptedResponse struct {
	ImportJobID int64  `json:"import_job_id"`
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	ProgressURL string `json:"progress_url"`
}

// ImportStatusResponse - снимок задачи импорта для опроса
type ImportStatusResponse struct {
	ID               int64     `json:"id"`
	JobID            string    `json:"job_id"`
	Status           string    `json:"status"`
	TotalRecords     int64     `json:"total_records"`
	ProcessedRecords int64     `json:"processed_records"`
	FailedRecords    int64     `json:"failed_records"`
	Progress         float64   `json:"progress"`
	Attempts         int       `json:"attempts"`
	ErrorMessage     *string   `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewImportStatusResponse строит ответ из записи журнала
func NewImportStatusResponse(job *domain.ImportJob) ImportStatusResponse {
	var progress float64
	if job.TotalRecords > 0 {
		progress = float64(job.ProcessedRecords*10000/job.TotalRecords) / 100
	}
	return ImportStatusResponse{
		ID:               job.ID,
		JobID:            job.JobToken,
		Status:           string(job.Status),
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		FailedRecords:    job.FailedRecords,
		Progress:         progress,
		Attempts:         job.Attempts,
		ErrorMessage:     job.ErrorMessage,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
	}
}

// SalaryReportResponse - средняя зарплата по командам и общая
type SalaryReportResponse[T any] struct {
	Teams          []T                 `json:"teams"`
	OverallAverage decimal.NullDecimal `json:"overall_average"`
}

// Envelope - общий формат ответа API
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
