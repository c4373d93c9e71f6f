package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/money"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	URL      string        `mapstructure:"REDIS_URL"`
	Host     string        `mapstructure:"REDIS_HOST"`
	Port     string        `mapstructure:"REDIS_PORT"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	TTL      time.Duration `mapstructure:"REDIS_SCHEDULE_TTL"`
}

type SchedulerConfig struct {
	// Spec is a standard cron expression for the interest recalculation job.
	Spec     string `mapstructure:"SCHEDULER_SPEC"`
	Timezone string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	CurrencyCode        string `mapstructure:"CURRENCY_CODE"`
	CurrencyDecimals    int32  `mapstructure:"CURRENCY_DECIMALS"`
	CurrencyMultiplesOf int64  `mapstructure:"CURRENCY_IN_MULTIPLES_OF"`
	RoundingMode        string `mapstructure:"ROUNDING_MODE"`
	// NonWorkingDays is a comma-separated list of weekday names, e.g. "SATURDAY,SUNDAY".
	NonWorkingDays     string `mapstructure:"NON_WORKING_DAYS"`
	RescheduleType     string `mapstructure:"RESCHEDULE_TYPE"`
	HolidaysEnabled    bool   `mapstructure:"HOLIDAYS_ENABLED"`
	PrincipalThreshold string `mapstructure:"PRINCIPAL_THRESHOLD_PERCENT"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Export .env into the process environment; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"SERVER_PORT":                 "8080",
		"SERVER_HOST":                 "0.0.0.0",
		"ENV":                         "development",
		"SERVER_READ_TIMEOUT":         "15s",
		"SERVER_WRITE_TIMEOUT":        "15s",
		"DATABASE_URL":                "",
		"DATABASE_HOST":               "localhost",
		"DATABASE_PORT":               "5432",
		"DATABASE_NAME":               "amortization_engine",
		"DATABASE_USER":               "postgres",
		"DATABASE_PASSWORD":           "",
		"DATABASE_SSLMODE":            "disable",
		"DATABASE_MAX_OPEN_CONNS":     25,
		"DATABASE_MAX_IDLE_CONNS":     5,
		"DATABASE_CONN_MAX_LIFETIME":  "5m",
		"REDIS_URL":                   "",
		"REDIS_HOST":                  "localhost",
		"REDIS_PORT":                  "6379",
		"REDIS_PASSWORD":              "",
		"REDIS_DB":                    0,
		"REDIS_SCHEDULE_TTL":          "24h",
		"SCHEDULER_SPEC":              "0 1 * * *",
		"SCHEDULER_TIMEZONE":          "UTC",
		"LOG_LEVEL":                   "info",
		"LOG_FORMAT":                  "json",
		"CURRENCY_CODE":               "USD",
		"CURRENCY_DECIMALS":           2,
		"CURRENCY_IN_MULTIPLES_OF":    0,
		"ROUNDING_MODE":               string(money.HalfEven),
		"NON_WORKING_DAYS":            "SATURDAY,SUNDAY",
		"RESCHEDULE_TYPE":             string(domain.RescheduleNextWorkingDay),
		"HOLIDAYS_ENABLED":            true,
		"PRINCIPAL_THRESHOLD_PERCENT": "0",
		"HEALTH_CHECK_TIMEOUT":        "5s",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
	}

	if _, err := c.Currency(); err != nil {
		return fmt.Errorf("CURRENCY_CODE/CURRENCY_DECIMALS: %w", err)
	}

	if _, err := money.ParseRoundingMode(c.Business.RoundingMode); err != nil {
		return fmt.Errorf("ROUNDING_MODE: %w", err)
	}

	if _, err := c.WorkingDays(); err != nil {
		return fmt.Errorf("NON_WORKING_DAYS/RESCHEDULE_TYPE: %w", err)
	}

	threshold, err := decimal.NewFromString(c.Business.PrincipalThreshold)
	if err != nil {
		return fmt.Errorf("PRINCIPAL_THRESHOLD_PERCENT must be a valid decimal: %w", err)
	}
	if threshold.IsNegative() || threshold.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("PRINCIPAL_THRESHOLD_PERCENT must be between 0 and 100")
	}

	// Validate scheduler spec
	if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
		return fmt.Errorf("SCHEDULER_SPEC must be a valid cron expression: %w", err)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE: %w", err)
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// DSN returns the postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Currency returns the organisation's default currency.
func (c *Config) Currency() (money.Currency, error) {
	return money.NewCurrency(c.Business.CurrencyCode, c.Business.CurrencyDecimals, c.Business.CurrencyMultiplesOf)
}

// GetRoundingMode returns the default rounding mode.
func (c *Config) GetRoundingMode() money.RoundingMode {
	mode, _ := money.ParseRoundingMode(c.Business.RoundingMode)
	return mode
}

// GetPrincipalThreshold returns the default last-installment threshold percentage.
func (c *Config) GetPrincipalThreshold() decimal.Decimal {
	threshold, _ := decimal.NewFromString(c.Business.PrincipalThreshold)
	return threshold
}

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// WorkingDays builds the working-week table from NON_WORKING_DAYS and RESCHEDULE_TYPE.
func (c *Config) WorkingDays() (domain.WorkingDays, error) {
	wd := domain.WorkingDays{RescheduleType: domain.RescheduleType(strings.ToUpper(strings.TrimSpace(c.Business.RescheduleType)))}
	if err := wd.RescheduleType.Validate(); err != nil {
		return domain.WorkingDays{}, err
	}
	for _, name := range strings.Split(c.Business.NonWorkingDays, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		day, ok := weekdays[name]
		if !ok {
			return domain.WorkingDays{}, fmt.Errorf("unknown weekday %q", name)
		}
		wd.NonWorkingDays = append(wd.NonWorkingDays, day)
	}
	if len(wd.NonWorkingDays) == 7 {
		return domain.WorkingDays{}, fmt.Errorf("every weekday is non-working")
	}
	return wd, nil
}

// GetSchedulerLocation returns the scheduler timezone.
func (c *Config) GetSchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
