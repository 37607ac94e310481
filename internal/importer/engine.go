package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	// ImportActor - автор изменений зарплаты, сделанных импортом
	ImportActor = "system_import"
	// ImportReason - причина изменения зарплаты при импорте
	ImportReason = "Data import"
)

// EmployeeStore - операции над сотрудниками, нужные для upsert
type EmployeeStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Employee, error)
	Save(ctx context.Context, emp *domain.Employee) error
}

// Engine применяет одну запись импорта в отдельной транзакции
type Engine struct {
	employees EmployeeStore
	tx        repository.Transactor
	bus       events.Publisher
	validate  *validator.Validate
}

// NewEngine создаёт движок upsert
func NewEngine(employees EmployeeStore, tx repository.Transactor, bus events.Publisher, validate *validator.Validate) *Engine {
	if validate == nil {
		validate = validator.New()
	}
	return &Engine{
		employees: employees,
		tx:        tx,
		bus:       bus,
		validate:  validate,
	}
}

// Apply создаёт или обновляет сотрудника по email. Возвращает nil при успехе;
// отклонённая запись откатывает свою транзакцию и не влияет на соседние.
func (e *Engine) Apply(ctx context.Context, raw json.RawMessage) *RecordError {
	rec, err := decodeRecord(raw)
	if err != nil {
		return &RecordError{Err: err}
	}
	if err := rec.validate(e.validate); err != nil {
		return &RecordError{Email: rec.Email, Err: err}
	}

	err = e.tx.InTx(ctx, func(ctx context.Context) error {
		emp, err := e.employees.FindByEmail(ctx, rec.Email)
		isNew := false
		switch {
		case errors.Is(err, domain.ErrEmployeeNotFound):
			emp = &domain.Employee{}
			isNew = true
		case err != nil:
			return fmt.Errorf("find employee: %w", err)
		}

		var oldSalary *decimal.Decimal
		if !isNew {
			s := emp.Salary
			oldSalary = &s
		}

		if err := rec.applyTo(emp, isNew); err != nil {
			return err
		}
		if err := e.employees.Save(ctx, emp); err != nil {
			return fmt.Errorf("save employee: %w", err)
		}

		// аудит пишется в той же транзакции
		if oldSalary != nil && !oldSalary.Equal(emp.Salary) {
			e.bus.Publish(ctx, events.SalaryUpdated{
				Employee:  *emp,
				OldSalary: *oldSalary,
				NewSalary: emp.Salary,
				ChangedBy: ImportActor,
				Reason:    ImportReason,
			})
		}
		return nil
	})
	if err != nil {
		return &RecordError{Email: rec.Email, Err: err}
	}
	return nil
}
