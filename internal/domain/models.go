package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Organization представляет компанию-работодателя
type Organization struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Industry    string    `json:"industry" gorm:"type:varchar(255);not null"`
	Location    *string   `json:"location" gorm:"type:varchar(255)"`
	Phone       *string   `json:"phone" gorm:"type:varchar(50)"`
	Email       *string   `json:"email" gorm:"type:varchar(255)"`
	Website     *string   `json:"website" gorm:"type:varchar(255)"`
	FoundedYear *int      `json:"founded_year"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	TeamsCount     int64 `json:"teams_count" gorm:"->;-:migration"`
	EmployeesCount int64 `json:"employees_count" gorm:"->;-:migration"`

	Teams []Team `json:"teams,omitempty" gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (Organization) TableName() string {
	return "organizations"
}

// Team представляет команду внутри организации
type Team struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	OrganizationID int64     `json:"organization_id" gorm:"not null;index"`
	Department     *string   `json:"department" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

// TableName задаёт имя таблицы для GORM
func (Team) TableName() string {
	return "teams"
}

// Employee представляет сотрудника; email является естественным ключом импорта
type Employee struct {
	ID             int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string          `json:"name" gorm:"type:varchar(255);not null"`
	Email          string          `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	TeamID         *int64          `json:"team_id" gorm:"index"`
	OrganizationID *int64          `json:"organization_id" gorm:"index"`
	Salary         decimal.Decimal `json:"salary" gorm:"type:decimal(10,2);not null"`
	StartDate      *time.Time      `json:"start_date" gorm:"type:date"`
	Position       *string         `json:"position" gorm:"type:varchar(255)"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Team         *Team         `json:"team,omitempty" gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL"`
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;constraint:OnDelete:SET NULL"`
}

// TableName задаёт имя таблицы для GORM
func (Employee) TableName() string {
	return "employees"
}

// SalaryChangeLog - запись аудита изменения зарплаты
type SalaryChangeLog struct {
	ID           int64               `json:"id" gorm:"primaryKey;autoIncrement"`
	EmployeeID   int64               `json:"employee_id" gorm:"not null;index"`
	OldSalary    decimal.NullDecimal `json:"old_salary" gorm:"type:decimal(10,2)"`
	NewSalary    decimal.Decimal     `json:"new_salary" gorm:"type:decimal(10,2);not null"`
	ChangedBy    string              `json:"changed_by" gorm:"type:varchar(255);not null"`
	ChangeReason *string             `json:"change_reason" gorm:"type:text"`
	CreatedAt    time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time           `json:"updated_at" gorm:"autoUpdateTime"`

	Employee *Employee `json:"employee,omitempty" gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (SalaryChangeLog) TableName() string {
	return "salary_change_logs"
}

// ImportJob - запись журнала задач импорта
type ImportJob struct {
	ID               int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	JobToken         string       `json:"job_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	UserID           int64        `json:"user_id" gorm:"not null;index"`
	FilePath         string       `json:"file_path" gorm:"type:varchar(500);not null"`
	Status           ImportStatus `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	TotalRecords     int64        `json:"total_records" gorm:"not null;default:0"`
	ProcessedRecords int64        `json:"processed_records" gorm:"not null;default:0"`
	FailedRecords    int64        `json:"failed_records" gorm:"not null;default:0"`
	Attempts         int          `json:"attempts" gorm:"not null;default:0"`
	ErrorMessage     *string      `json:"error_message" gorm:"type:text"`
	CreatedAt        time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"autoUpdateTime"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (ImportJob) TableName() string {
	return "import_jobs"
}

// SucceededRecords возвращает количество успешно обработанных записей
func (j ImportJob) SucceededRecords() int64 {
	return j.ProcessedRecords - j.FailedRecords
}

// ImportStatistic - сводка по завершённому импорту
type ImportStatistic struct {
	ID               int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	ImportID         int64           `json:"import_id" gorm:"not null;index"`
	UserID           int64           `json:"user_id" gorm:"not null;index"`
	TotalRecords     int64           `json:"total_records"`
	ProcessedRecords int64           `json:"processed_records"`
	FailedRecords    int64           `json:"failed_records"`
	SuccessRate      decimal.Decimal `json:"success_rate" gorm:"type:decimal(5,2);not null"`
	Duration         int64           `json:"duration"`
	RecordsPerSecond decimal.Decimal `json:"records_per_second" gorm:"type:decimal(12,2);not null"`
	CompletedAt      time.Time       `json:"completed_at"`
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`

	Import *ImportJob `json:"-" gorm:"foreignKey:ImportID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (ImportStatistic) TableName() string {
	return "import_statistics"
}

// User - учётная запись с ролью
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         Role      `json:"role_id" gorm:"column:role_id;not null;default:2"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName задаёт имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// Notification - уведомление, сохранённое в базе
type Notification struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64          `json:"user_id" gorm:"not null;index"`
	Kind      string         `json:"kind" gorm:"type:varchar(50);not null"`
	Payload   datatypes.JSON `json:"payload"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (Notification) TableName() string {
	return "notifications"
}
