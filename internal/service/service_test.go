package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hr-data-api/internal/auth"
	"github.com/hr-data-api/internal/cache"
	"github.com/hr-data-api/internal/config"
	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/repository"
	"github.com/hr-data-api/internal/storage"
	"github.com/hr-data-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	db       *gorm.DB
	orgRepo  repository.OrganizationRepository
	teamRepo repository.TeamRepository
	empRepo  repository.EmployeeRepository
	logRepo  repository.SalaryLogRepository
	bus      *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	return &fixture{
		db:       db,
		orgRepo:  repository.NewOrganizationRepository(db),
		teamRepo: repository.NewTeamRepository(db),
		empRepo:  repository.NewEmployeeRepository(db),
		logRepo:  repository.NewSalaryLogRepository(db),
		bus:      events.NewBus(discardLogger()),
	}
}

func (f *fixture) seedOrgAndTeam(t *testing.T) (*domain.Organization, *domain.Team) {
	t.Helper()
	ctx := context.Background()
	org := &domain.Organization{Name: "Acme", Industry: "Software"}
	require.NoError(t, f.orgRepo.Create(ctx, org))
	team := &domain.Team{Name: "Platform", OrganizationID: org.ID}
	require.NoError(t, f.teamRepo.Create(ctx, team))
	return org, team
}

func TestOrganizationService_CachesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := cache.NewMemory()
	svc := NewOrganizationService(f.orgRepo, c, discardLogger())

	created, err := svc.Create(ctx, &dto.CreateOrganizationRequest{Name: "Acme", Industry: "Software"})
	require.NoError(t, err)

	page, err := svc.List(ctx, repository.Pagination{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// запись в обход сервиса не видна, пока кэш не сброшен
	require.NoError(t, f.orgRepo.Create(ctx, &domain.Organization{Name: "Globex", Industry: "Energy"}))
	page, err = svc.List(ctx, repository.Pagination{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	updated, err := svc.Update(ctx, created.ID, &dto.UpdateOrganizationRequest{Industry: ptr("Fintech")})
	require.NoError(t, err)
	assert.Equal(t, "Fintech", updated.Industry)

	page, err = svc.List(ctx, repository.Pagination{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fintech", got.Industry)
}

func TestOrganizationService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewOrganizationService(f.orgRepo, cache.NewMemory(), discardLogger())

	_, err := svc.Create(ctx, &dto.CreateOrganizationRequest{Name: "Acme", Industry: "Software"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &dto.CreateOrganizationRequest{Name: " Acme ", Industry: "Other"})
	assert.ErrorIs(t, err, domain.ErrDuplicateOrganizationName)

	_, err = svc.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 999), domain.ErrOrganizationNotFound)
}

func TestTeamService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org, _ := f.seedOrgAndTeam(t)
	svc := NewTeamService(f.teamRepo, f.orgRepo)

	_, err := svc.Create(ctx, &dto.CreateTeamRequest{Name: "Platform", OrganizationID: org.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicateTeamName)

	_, err = svc.Create(ctx, &dto.CreateTeamRequest{Name: "Data", OrganizationID: 999})
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	team, err := svc.Create(ctx, &dto.CreateTeamRequest{Name: "Data", OrganizationID: org.ID, Department: ptr("R&D")})
	require.NoError(t, err)
	require.NotNil(t, team.Organization)
	assert.Equal(t, "Acme", team.Organization.Name)

	updated, err := svc.Update(ctx, team.ID, &dto.UpdateTeamRequest{Name: ptr("Analytics")})
	require.NoError(t, err)
	assert.Equal(t, "Analytics", updated.Name)
	assert.Equal(t, "R&D", *updated.Department)

	teams, total, err := svc.List(ctx, repository.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, teams, 2)

	require.NoError(t, svc.Delete(ctx, team.ID))
	_, err = svc.GetByID(ctx, team.ID)
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}

func TestEmployeeService_CreateValidatesReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org, team := f.seedOrgAndTeam(t)
	svc := NewEmployeeService(f.empRepo, f.teamRepo, f.orgRepo, repository.NewTransactor(f.db), f.bus)

	req := &dto.CreateEmployeeRequest{
		Name:           "Ann",
		Email:          "ann@x.com",
		TeamID:         team.ID,
		OrganizationID: org.ID,
		Salary:         decimal.NewFromInt(50000),
		StartDate:      "2024-01-15",
	}
	emp, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", emp.StartDate.Format("2006-01-02"))

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmployeeEmail)

	bad := *req
	bad.Email = "bob@x.com"
	bad.TeamID = 999
	_, err = svc.Create(ctx, &bad)
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)

	bad = *req
	bad.Email = "bob@x.com"
	bad.Salary = decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, &bad)
	assert.ErrorIs(t, err, domain.ErrNegativeSalary)
}

func TestEmployeeService_UpdateSalaryIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org, team := f.seedOrgAndTeam(t)

	events.Subscribe(f.bus, "salary-audit", func(ctx context.Context, e events.SalaryUpdated) error {
		entry := &domain.SalaryChangeLog{EmployeeID: e.Employee.ID, NewSalary: e.NewSalary, ChangedBy: e.ChangedBy}
		entry.OldSalary = decimal.NewNullDecimal(e.OldSalary)
		return f.logRepo.Record(ctx, entry)
	})
	svc := NewEmployeeService(f.empRepo, f.teamRepo, f.orgRepo, repository.NewTransactor(f.db), f.bus)

	emp, err := svc.Create(ctx, &dto.CreateEmployeeRequest{
		Name: "Ann", Email: "ann@x.com", TeamID: team.ID, OrganizationID: org.ID,
		Salary: decimal.NewFromInt(50000), StartDate: "2024-01-15",
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, emp.ID, &dto.UpdateEmployeeRequest{Position: ptr("Lead")})
	require.NoError(t, err)

	newSalary := decimal.NewFromInt(65000)
	updated, err := svc.Update(ctx, emp.ID, &dto.UpdateEmployeeRequest{Salary: &newSalary})
	require.NoError(t, err)
	assert.True(t, newSalary.Equal(updated.Salary))
	assert.Equal(t, "Lead", *updated.Position)

	logs, err := f.logRepo.ListByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].OldSalary.Decimal.Equal(decimal.NewFromInt(50000)))
	assert.True(t, logs[0].NewSalary.Equal(newSalary))
	assert.Equal(t, ManualActor, logs[0].ChangedBy)
}

func TestEmployeeService_UpdateRejectsTakenEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org, team := f.seedOrgAndTeam(t)
	svc := NewEmployeeService(f.empRepo, f.teamRepo, f.orgRepo, repository.NewTransactor(f.db), f.bus)

	for _, email := range []string{"a@x.com", "b@x.com"} {
		_, err := svc.Create(ctx, &dto.CreateEmployeeRequest{
			Name: "E", Email: email, TeamID: team.ID, OrganizationID: org.ID,
			Salary: decimal.NewFromInt(1), StartDate: "2024-01-01",
		})
		require.NoError(t, err)
	}

	_, err := svc.Update(ctx, 2, &dto.UpdateEmployeeRequest{Email: ptr("a@x.com")})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmployeeEmail)

	_, err = svc.Update(ctx, 999, &dto.UpdateEmployeeRequest{Name: ptr("X")})
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

func TestAuthService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jwtSvc := auth.NewJWTService(config.JWTConfig{Secret: strings.Repeat("s", 32), ExpirationHours: 1})
	svc := NewAuthService(repository.NewUserRepository(f.db), jwtSvc, auth.NewPasswordHasher(bcrypt.MinCost))

	user, token, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Admin", Email: "admin@x.com", Password: "secret1", RoleID: ptr(domain.RoleAdmin)})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	_, _, err = svc.Register(ctx, &dto.RegisterRequest{Name: "Again", Email: "admin@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateUserEmail)

	manager, _, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Manager", Email: "m@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, manager.Role)

	_, token, err = svc.Login(ctx, &dto.LoginRequest{Email: "admin@x.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.Login(ctx, &dto.LoginRequest{Email: "admin@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", me.Email)
}

func TestImportService_CreateImportJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := &domain.User{Name: "Admin", Email: "admin@x.com", PasswordHash: "x", Role: domain.RoleAdmin}
	require.NoError(t, repository.NewUserRepository(f.db).Create(ctx, owner))

	var requested []domain.ImportJob
	events.Subscribe(f.bus, "capture", func(_ context.Context, e events.ImportRequested) error {
		requested = append(requested, e.Job)
		return nil
	})

	files := storage.NewLocal(t.TempDir())
	jobs := repository.NewImportJobRepository(f.db)
	svc := NewImportService(jobs, repository.NewImportStatisticRepository(f.db),
		repository.NewNotificationRepository(f.db), files, f.bus, discardLogger())

	_, err := svc.CreateImportJob(ctx, owner.ID, "employees.csv", strings.NewReader("a,b"))
	assert.ErrorIs(t, err, domain.ErrInvalidImportFile)

	payload := `[{"email":"a@x.com","name":"A","salary":50000}]`
	job, err := svc.CreateImportJob(ctx, owner.ID, "employees.JSON", strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusPending, job.Status)
	assert.Len(t, job.JobToken, 36)

	data, err := files.Read(ctx, job.FilePath)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	require.Len(t, requested, 1)
	assert.Equal(t, job.ID, requested[0].ID)

	status, err := svc.GetImportJobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.JobToken, status.JobToken)

	listed, err := svc.ListImportJobs(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.GetImportJobStatus(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrImportJobNotFound)
}

func TestReportService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org, team := f.seedOrgAndTeam(t)

	for i, salary := range []int64{40000, 60000} {
		require.NoError(t, f.empRepo.Create(ctx, &domain.Employee{
			Name: "E", Email: string(rune('a'+i)) + "@x.com",
			TeamID: &team.ID, OrganizationID: &org.ID, Salary: decimal.NewFromInt(salary),
		}))
	}

	svc := NewReportService(repository.NewReportRepository(f.db), f.logRepo)

	report, err := svc.TeamSalaries(ctx)
	require.NoError(t, err)
	require.Len(t, report.Teams, 1)
	assert.True(t, report.OverallAverage.Decimal.Equal(decimal.NewFromInt(50000)))

	headcount, err := svc.OrganizationHeadcount(ctx)
	require.NoError(t, err)
	require.Len(t, headcount, 1)
	assert.Equal(t, int64(2), headcount[0].EmployeeCount)

	logs, total, err := svc.SalaryLogs(ctx, &dto.SalaryLogQuery{EmployeeName: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, logs)
}
