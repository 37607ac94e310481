package importer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPayload  = errors.New("import payload must be a JSON array")
	ErrRecordNotObject = errors.New("import record must be a JSON object")
	ErrInvalidRecord   = errors.New("import record is invalid")
	ErrSalaryRequired  = errors.New("salary is required for a new employee")
	ErrQueueFull       = errors.New("import queue is full")
	ErrSchedulerClosed = errors.New("import scheduler is stopped")
)

// RecordError описывает отклонённую запись; конвейер считает её и продолжает работу
type RecordError struct {
	Index int
	Email string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Email != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.Email, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// PermanentError помечает ошибку задачи, после которой повтор бессмыслен
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent оборачивает ошибку в PermanentError
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent сообщает, нужно ли отказаться от повторов
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
