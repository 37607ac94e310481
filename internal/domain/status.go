package domain

// ImportStatus - состояние задачи импорта
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsTerminal сообщает, завершена ли задача
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// CanTransitionTo проверяет допустимость перехода.
// failed -> processing разрешён только для повторной попытки.
func (s ImportStatus) CanTransitionTo(next ImportStatus) bool {
	switch s {
	case ImportStatusPending:
		return next == ImportStatusProcessing || next == ImportStatusFailed
	case ImportStatusProcessing:
		return next == ImportStatusCompleted || next == ImportStatusFailed
	case ImportStatusFailed:
		return next == ImportStatusProcessing
	default:
		return false
	}
}

// Role - роль пользователя
type Role int

const (
	RoleAdmin   Role = 1
	RoleManager Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	default:
		return "unknown"
	}
}

// Valid сообщает, известна ли роль
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager
}
