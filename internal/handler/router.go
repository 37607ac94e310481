package handler

import (
	"log/slog"
	"net/http"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/metrics"
	"github.com/hr-data-api/internal/middleware"
)

// Handlers - набор обработчиков API
type Handlers struct {
	Auth         *AuthHandler
	Organization *OrganizationHandler
	Team         *TeamHandler
	Employee     *EmployeeHandler
	Import       *ImportHandler
	Report       *ReportHandler
}

// Router настраивает маршруты API
type Router struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	handlers    Handlers
	tokens      middleware.TokenValidator
	metricsPath string
}

// NewRouter создаёт новый роутер; пустой metricsPath отключает /metrics
func NewRouter(handlers Handlers, tokens middleware.TokenValidator, metricsPath string, logger *slog.Logger) *Router {
	return &Router{
		mux:         http.NewServeMux(),
		logger:      logger,
		handlers:    handlers,
		tokens:      tokens,
		metricsPath: metricsPath,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	const api = "/api/v1"

	authn := middleware.Authenticate(r.tokens)
	authed := func(h http.HandlerFunc) http.Handler {
		return authn(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authn(middleware.RequireRole(domain.RoleAdmin)(h))
	}
	staff := func(h http.HandlerFunc) http.Handler {
		return authn(middleware.RequireRole(domain.RoleAdmin, domain.RoleManager)(h))
	}

	h := r.handlers

	// Аутентификация
	r.mux.HandleFunc("POST "+api+"/auth/register", h.Auth.Register)
	r.mux.HandleFunc("POST "+api+"/auth/login", h.Auth.Login)
	r.mux.Handle("GET "+api+"/auth/me", authed(h.Auth.Me))

	// Организации
	r.mux.Handle("GET "+api+"/organizations", admin(h.Organization.List))
	r.mux.Handle("POST "+api+"/organizations", admin(h.Organization.Create))
	r.mux.Handle("GET "+api+"/organizations/{id}", admin(h.Organization.GetByID))
	r.mux.Handle("PATCH "+api+"/organizations/{id}", admin(h.Organization.Update))
	r.mux.Handle("DELETE "+api+"/organizations/{id}", admin(h.Organization.Delete))

	// Команды
	r.mux.Handle("GET "+api+"/teams", staff(h.Team.List))
	r.mux.Handle("POST "+api+"/teams", admin(h.Team.Create))
	r.mux.Handle("GET "+api+"/teams/{id}", staff(h.Team.GetByID))
	r.mux.Handle("PATCH "+api+"/teams/{id}", admin(h.Team.Update))
	r.mux.Handle("DELETE "+api+"/teams/{id}", admin(h.Team.Delete))

	// Сотрудники
	r.mux.Handle("GET "+api+"/employees", staff(h.Employee.List))
	r.mux.Handle("POST "+api+"/employees", staff(h.Employee.Create))
	r.mux.Handle("GET "+api+"/employees/{id}", staff(h.Employee.GetByID))
	r.mux.Handle("PATCH "+api+"/employees/{id}", staff(h.Employee.Update))
	r.mux.Handle("DELETE "+api+"/employees/{id}", staff(h.Employee.Delete))

	// Импорт
	r.mux.Handle("POST "+api+"/employees/import", admin(h.Import.Upload))
	r.mux.Handle("GET "+api+"/employees/import/status/{id}", admin(h.Import.Status))
	r.mux.Handle("GET "+api+"/import-statistics", admin(h.Import.Statistics))
	r.mux.Handle("GET "+api+"/notifications", authed(h.Import.Notifications))

	// Отчёты
	r.mux.Handle("GET "+api+"/salary-logs", admin(h.Report.SalaryLogs))
	r.mux.Handle("GET "+api+"/reports/teams/salary", admin(h.Report.TeamSalaries))
	r.mux.Handle("GET "+api+"/reports/organizations/headcount", admin(h.Report.OrganizationHeadcount))

	// Health check
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if r.metricsPath != "" {
		r.mux.Handle("GET "+r.metricsPath, metrics.Handler())
	}

	// Применяем middleware
	handler := middleware.ContentType(r.mux)
	handler = middleware.Metrics(handler)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}
