package sample_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/importer"
	"github.com/hr-data-api/internal/repository"
	"github.com/hr-data-api/internal/sample"
	"github.com/hr-data-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func TestGenerate_Deterministic(t *testing.T) {
	a, err := sample.NewGenerator(42, fixedNow).Generate(50, []int64{1, 2}, []int64{7})
	require.NoError(t, err)
	b, err := sample.NewGenerator(42, fixedNow).Generate(50, []int64{1, 2}, []int64{7})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_RecordShape(t *testing.T) {
	records, err := sample.NewGenerator(1, fixedNow).Generate(500, []int64{3, 4}, []int64{9})
	require.NoError(t, err)
	require.Len(t, records, 500)

	oldest := fixedNow().AddDate(0, 0, -1825).Format(time.DateOnly)
	newest := fixedNow().Format(time.DateOnly)
	emails := make(map[string]bool)

	for _, r := range records {
		assert.False(t, emails[r.Email], "duplicate email %s", r.Email)
		emails[r.Email] = true

		assert.Contains(t, []int64{3, 4}, r.TeamID)
		assert.Equal(t, int64(9), r.OrganizationID)
		assert.GreaterOrEqual(t, r.Salary, int64(40000))
		assert.LessOrEqual(t, r.Salary, int64(250000))
		assert.GreaterOrEqual(t, r.StartDate, oldest)
		assert.LessOrEqual(t, r.StartDate, newest)
		assert.NotEmpty(t, r.Position)
	}
}

func TestGenerate_NoReferences(t *testing.T) {
	_, err := sample.NewGenerator(1, nil).Generate(10, nil, []int64{1})
	assert.ErrorIs(t, err, sample.ErrNoReferences)
}

func TestWrite_ProducesImportableFile(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	orgs := repository.NewOrganizationRepository(db)
	teams := repository.NewTeamRepository(db)
	employees := repository.NewEmployeeRepository(db)

	org := &domain.Organization{Name: "Acme", Industry: "Retail"}
	require.NoError(t, orgs.Create(ctx, org))
	require.NoError(t, teams.Create(ctx, &domain.Team{Name: "Core", OrganizationID: org.ID}))

	var buf bytes.Buffer
	n, err := sample.NewGenerator(7, fixedNow).Write(ctx, teams, orgs, 20, &buf)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	var raws []json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raws))
	require.Len(t, raws, 20)

	bus := events.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	engine := importer.NewEngine(employees, repository.NewTransactor(db), bus, nil)
	for _, raw := range raws {
		assert.Nil(t, engine.Apply(ctx, raw))
	}

	_, total, err := employees.List(ctx, repository.EmployeeFilter{}, repository.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(20), total)
}

func TestWrite_EmptyDatabase(t *testing.T) {
	db := testutil.NewDB(t)

	var buf bytes.Buffer
	_, err := sample.NewGenerator(1, nil).Write(context.Background(),
		repository.NewTeamRepository(db), repository.NewOrganizationRepository(db), 5, &buf)
	assert.ErrorIs(t, err, sample.ErrNoReferences)
	assert.Zero(t, buf.Len())
}
