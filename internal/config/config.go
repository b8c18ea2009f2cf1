package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Payroll    PayrollConfig
}

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	MaxConns   int32
	MinConns   int32
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string
}

type AttendanceConfig struct {
	// MaxShift is how long a session may stay open before it is auto-closed.
	MaxShift           time.Duration
	StaleCheckInterval time.Duration
}

type PayrollConfig struct {
	StandardHours  decimal.Decimal
	StandardDays   int
	DefaultTaxRate decimal.Decimal
	// RunDay is the day of month the scheduled run computes the previous period. 0 disables it.
	RunDay    int
	RulesFile string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       dbPort,
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", ""),
		Name:       getEnv("DB_NAME", "hris_payroll"),
		SSLMode:    getEnv("DB_SSL_MODE", "disable"),
		MaxConns:   int32(maxConns),
		MinConns:   int32(minConns),
		SQLitePath: getEnv("SQLITE_PATH", "payroll.db"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
	}

	// JWT configuration
	accessExpiration, err := getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour)
	if err != nil {
		return nil, err
	}
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	// Attendance configuration
	maxShift, err := getEnvDuration("ATTENDANCE_MAX_SHIFT", 16*time.Hour)
	if err != nil {
		return nil, err
	}
	staleInterval, err := getEnvDuration("ATTENDANCE_STALE_CHECK_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	config.Attendance = AttendanceConfig{
		MaxShift:           maxShift,
		StaleCheckInterval: staleInterval,
	}

	// Payroll configuration
	standardHours, err := getEnvDecimal("PAYROLL_STANDARD_HOURS", decimal.NewFromInt(160))
	if err != nil {
		return nil, err
	}
	standardDays, err := getEnvInt("PAYROLL_STANDARD_DAYS", 20)
	if err != nil {
		return nil, err
	}
	taxRate, err := getEnvDecimal("PAYROLL_DEFAULT_TAX_RATE", decimal.NewFromInt(15))
	if err != nil {
		return nil, err
	}
	runDay, err := getEnvInt("PAYROLL_RUN_DAY", 1)
	if err != nil {
		return nil, err
	}
	config.Payroll = PayrollConfig{
		StandardHours:  standardHours,
		StandardDays:   standardDays,
		DefaultTaxRate: taxRate,
		RunDay:         runDay,
		RulesFile:      getEnv("PAYROLL_RULES_FILE", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be one of postgres, sqlite, memory")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Attendance.MaxShift <= 0 {
		return fmt.Errorf("ATTENDANCE_MAX_SHIFT must be positive")
	}
	if !c.Payroll.StandardHours.IsPositive() {
		return fmt.Errorf("PAYROLL_STANDARD_HOURS must be positive")
	}
	if c.Payroll.StandardDays <= 0 {
		return fmt.Errorf("PAYROLL_STANDARD_DAYS must be positive")
	}
	if c.Payroll.DefaultTaxRate.IsNegative() || c.Payroll.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("PAYROLL_DEFAULT_TAX_RATE must be between 0 and 100")
	}
	if c.Payroll.RunDay < 0 || c.Payroll.RunDay > 28 {
		return fmt.Errorf("PAYROLL_RUN_DAY must be between 0 and 28")
	}
	return nil
}

// Location returns the company timezone used to date attendance sessions.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
