package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hr-data-api/internal/domain"
	"github.com/shopspring/decimal"
)

// record - одна запись файла импорта. Указатели и набор present отличают
// отсутствующий ключ от явного null.
type record struct {
	Name           string           `json:"name" validate:"required,max=255"`
	Email          string           `json:"email" validate:"required,email,max=255"`
	TeamID         *int64           `json:"team_id" validate:"omitempty,min=1"`
	OrganizationID *int64           `json:"organization_id" validate:"omitempty,min=1"`
	Salary         *decimal.Decimal `json:"salary"`
	StartDate      *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Position       *string          `json:"position" validate:"omitempty,max=255"`

	present map[string]bool
}

func decodeRecord(raw json.RawMessage) (*record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrRecordNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	var rec record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	rec.present = make(map[string]bool, len(fields))
	for key := range fields {
		rec.present[key] = true
	}
	return &rec, nil
}

func (r *record) validate(v *validator.Validate) error {
	if err := v.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if r.present["salary"] {
		if r.Salary == nil {
			return fmt.Errorf("%w: salary must not be null", ErrInvalidRecord)
		}
		if r.Salary.IsNegative() {
			return domain.ErrNegativeSalary
		}
	}
	return nil
}

// applyTo переносит в сотрудника только присутствующие в записи поля
func (r *record) applyTo(emp *domain.Employee, isNew bool) error {
	emp.Name = r.Name
	emp.Email = r.Email

	switch {
	case r.present["salary"]:
		emp.Salary = *r.Salary
	case isNew:
		return ErrSalaryRequired
	}

	if r.present["team_id"] {
		emp.TeamID = r.TeamID
	}
	if r.present["organization_id"] {
		emp.OrganizationID = r.OrganizationID
	}
	if r.present["position"] {
		emp.Position = r.Position
	}
	if r.present["start_date"] {
		emp.StartDate = nil
		if r.StartDate != nil {
			day, err := time.Parse(time.DateOnly, *r.StartDate)
			if err != nil {
				return fmt.Errorf("%w: start_date: %v", ErrInvalidRecord, err)
			}
			emp.StartDate = &day
		}
	}
	return nil
}
