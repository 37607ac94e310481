package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles - файлы окружения, которые читаются при старте, если существуют
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config содержит настройки приложения
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Import   ImportConfig
	Mail     MailConfig
	Metrics  MetricsConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"hrdata"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	Path     string `env:"DB_PATH" envDefault:"hrdata.db"`
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig - настройки кэша; пустой адрес включает кэш в памяти
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// JWTConfig - настройки токенов доступа
type JWTConfig struct {
	Secret          string `env:"JWT_SECRET"`
	ExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
}

// PasswordConfig - настройки хэширования паролей
type PasswordConfig struct {
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`
}

// ImportConfig - настройки конвейера импорта
type ImportConfig struct {
	Workers       int           `env:"IMPORT_WORKERS" envDefault:"2"`
	MaxAttempts   int           `env:"IMPORT_MAX_ATTEMPTS" envDefault:"3"`
	Timeout       time.Duration `env:"IMPORT_TIMEOUT" envDefault:"1h"`
	RetryBackoff  time.Duration `env:"IMPORT_RETRY_BACKOFF" envDefault:"10s"`
	QueueSize     int           `env:"IMPORT_QUEUE_SIZE" envDefault:"100"`
	StoragePath   string        `env:"IMPORT_STORAGE_PATH" envDefault:"storage"`
	MaxUploadSize int64         `env:"IMPORT_MAX_UPLOAD_SIZE" envDefault:"10485760"`
}

// MailConfig - настройки SMTP; пустой хост включает запись писем в лог
type MailConfig struct {
	Host         string `env:"MAIL_HOST"`
	Port         int    `env:"MAIL_PORT" envDefault:"587"`
	Username     string `env:"MAIL_USERNAME"`
	Password     string `env:"MAIL_PASSWORD"`
	From         string `env:"MAIL_FROM_ADDRESS" envDefault:"noreply@hrdata.local"`
	AdminAddress string `env:"MAIL_ADMIN_ADDRESS" envDefault:"admin@hrdata.local"`
}

// MetricsConfig - настройки Prometheus
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Load загружает конфигурацию из файлов окружения и переменных окружения
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles читает только существующие файлы; переменные процесса не перезаписываются
func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Validate проверяет корректность настроек
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.JWT.ExpirationHours <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRATION_HOURS must be positive, got %d", c.JWT.ExpirationHours))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be 'postgres' or 'sqlite', got '%s'", c.Database.Driver))
	}
	if c.Import.Workers <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_WORKERS must be positive, got %d", c.Import.Workers))
	}
	if c.Import.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_MAX_ATTEMPTS must be positive, got %d", c.Import.MaxAttempts))
	}
	if c.Import.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_QUEUE_SIZE must be positive, got %d", c.Import.QueueSize))
	}
	if c.Import.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("IMPORT_TIMEOUT must be positive, got %s", c.Import.Timeout))
	}
	return errors.Join(errs...)
}
