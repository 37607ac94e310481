package domain

import "errors"

// Определение бизнес-ошибок
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrDuplicateOrganizationName = errors.New("organization with this name already exists")
	ErrTeamNotFound              = errors.New("team not found")
	ErrDuplicateTeamName         = errors.New("team with this name already exists")
	ErrEmployeeNotFound          = errors.New("employee not found")
	ErrDuplicateEmployeeEmail    = errors.New("employee with this email already exists")
	ErrNegativeSalary            = errors.New("salary must not be negative")
	ErrUserNotFound              = errors.New("user not found")
	ErrDuplicateUserEmail        = errors.New("user with this email already exists")
	ErrInvalidCredentials        = errors.New("invalid email or password")
	ErrImportJobNotFound         = errors.New("import job not found")
	ErrInvalidImportFile         = errors.New("import file must be a .json file")
	ErrImportFileTooLarge        = errors.New("import file is too large")
	ErrInvalidTransition         = errors.New("invalid import job status transition")
	ErrAttemptsExhausted         = errors.New("import job has no attempts left")
)
