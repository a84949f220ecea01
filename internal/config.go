package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"http_server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Security    SecurityConfig   `mapstructure:"security"`
	Scheduling  SchedulingConfig `mapstructure:"scheduling"`
	Payment     PaymentConfig    `mapstructure:"payment"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	BaseURL        string        `mapstructure:"base_url"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Source       string `mapstructure:"source"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// SchedulingConfig describes the single working day the slot calculator
// reasons about. WorkStart/WorkEnd are HH:MM in server-local time.
type SchedulingConfig struct {
	WorkStart           string `mapstructure:"work_start"`
	WorkEnd             string `mapstructure:"work_end"`
	SlotMinutes         int    `mapstructure:"slot_minutes"`
	BlockPatientOverlap bool   `mapstructure:"block_patient_overlap"`
}

type PaymentConfig struct {
	Currency      string        `mapstructure:"currency"`
	OtpTTL        time.Duration `mapstructure:"otp_ttl"`
	ExposeDevCode bool          `mapstructure:"expose_dev_code"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true")
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a full config from environment variables. Used for
// container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:           getEnvAsInt("HTTP_PORT", 4000),
			BaseURL:        getEnv("HTTP_BASE_URL", "http://localhost:4000"),
			AllowedOrigins: getEnv("HTTP_ALLOWED_ORIGINS", "*"),
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Source:       getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("JWT_ACCESS_SECRET", ""),
			RefreshTokenSecret:   getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
		},
		Scheduling: SchedulingConfig{
			WorkStart:           getEnv("APPT_WORK_START", "09:00"),
			WorkEnd:             getEnv("APPT_WORK_END", "17:00"),
			SlotMinutes:         getEnvAsInt("APPT_SLOT_MINUTES", 30),
			BlockPatientOverlap: getEnvAsBool("APPT_BLOCK_PATIENT_OVERLAP", true),
		},
		Payment: PaymentConfig{
			Currency:      getEnv("PAYMENT_CURRENCY", "LKR"),
			OtpTTL:        getEnvAsDuration("PAYMENT_OTP_TTL", 5*time.Minute),
			ExposeDevCode: getEnvAsBool("PAYMENT_EXPOSE_DEV_CODE", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}
	if err := c.Scheduling.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("scheduling config: %v", err))
	}
	if err := c.Payment.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payment config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("access and refresh token secrets are required")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	return nil
}

func (c *SchedulingConfig) Validate() error {
	start, err := ParseWorkTime(c.WorkStart)
	if err != nil {
		return fmt.Errorf("work_start: %w", err)
	}
	end, err := ParseWorkTime(c.WorkEnd)
	if err != nil {
		return fmt.Errorf("work_end: %w", err)
	}
	if !end.After(start) {
		return errors.New("work_end must be after work_start")
	}
	if c.SlotMinutes <= 0 || c.SlotMinutes > 240 {
		return errors.New("slot_minutes must be in (0, 240]")
	}
	return nil
}

func (c *PaymentConfig) Validate() error {
	if c.OtpTTL <= 0 {
		return errors.New("otp_ttl must be positive")
	}
	if c.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// ParseWorkTime parses an HH:MM working-hours boundary onto a reference day
// (year 0); callers rebase it onto the requested date.
func ParseWorkTime(hm string) (time.Time, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad HH:MM value %q", hm)
	}
	return t, nil
}
