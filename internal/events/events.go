// Package events содержит типизированную шину доменных событий
package events

import (
	"github.com/hr-data-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Kind - тип события
type Kind int

const (
	KindImportRequested Kind = iota + 1
	KindSalaryUpdated
	KindImportCompleted
	KindImportFailed
)

func (k Kind) String() string {
	switch k {
	case KindImportRequested:
		return "import_requested"
	case KindSalaryUpdated:
		return "salary_updated"
	case KindImportCompleted:
		return "import_completed"
	case KindImportFailed:
		return "import_failed"
	default:
		return "unknown"
	}
}

// Event - доменное событие
type Event interface {
	Kind() Kind
}

// ImportRequested публикуется после создания задачи импорта
type ImportRequested struct {
	Job domain.ImportJob
}

func (ImportRequested) Kind() Kind { return KindImportRequested }

// SalaryUpdated публикуется, когда зарплата существующего сотрудника изменилась
type SalaryUpdated struct {
	Employee  domain.Employee
	OldSalary decimal.Decimal
	NewSalary decimal.Decimal
	ChangedBy string
	Reason    string
}

func (SalaryUpdated) Kind() Kind { return KindSalaryUpdated }

// ImportCompleted несёт итоговый снимок задачи
type ImportCompleted struct {
	Job domain.ImportJob
}

func (ImportCompleted) Kind() Kind { return KindImportCompleted }

// ImportFailed публикуется, когда попытки задачи исчерпаны
type ImportFailed struct {
	Job domain.ImportJob
}

func (ImportFailed) Kind() Kind { return KindImportFailed }
