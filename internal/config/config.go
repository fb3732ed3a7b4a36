package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string        `mapstructure:"env"`       // current application environment (local, dev, production etc)
	TelegramAPIToken string        `mapstructure:"-"`         // Telegram API token loaded from environment
	HTTPAddr         string        `mapstructure:"http_addr"` // address of the HTTP API and SSE server, empty disables it
	DB               DB            `mapstructure:"database"`  // database configuration section
	Storage          Storage       `mapstructure:"storage"`
	Certification    Certification `mapstructure:"certification"`
	Notifications    Notifications `mapstructure:"notifications"`
	Email            Email         `mapstructure:"email"`
	Live             Live          `mapstructure:"live"`
	Objects          Objects       `mapstructure:"objects"`
	Scheduler        Scheduler     `mapstructure:"scheduler"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	Migrate         bool          `mapstructure:"migrate"`           // apply the embedded schema on startup
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Storage selects the persistence backend: "postgres" or "memory".
type Storage struct {
	Driver string `mapstructure:"driver"`
}

type Certification struct {
	MinLevel         int     `mapstructure:"min_level"`         // minimum course level that grants a certificate
	FontPath         string  `mapstructure:"font_path"`         // TTF used for rendering, built-in face when empty
	FontSize         float64 `mapstructure:"font_size"`
	ArtifactCategory string  `mapstructure:"artifact_category"` // object store category holding rendered certificates
}

type Notifications struct {
	MaxConcurrent   int           `mapstructure:"max_concurrent"`   // fan-out bound for batch deliveries
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"` // per-channel timeout of one delivery attempt
	ListLimit       int           `mapstructure:"list_limit"`
}

type Email struct {
	Provider       string `mapstructure:"provider"` // sendgrid or console
	SendGridAPIKey string `mapstructure:"-"`
	FromName       string `mapstructure:"from_name"`
	FromEmail      string `mapstructure:"from_email"`
	SubjectPrefix  string `mapstructure:"subject_prefix"`
}

type Live struct {
	Drivers      []string `mapstructure:"drivers"` // any of hub, redis, telegram; empty means noop
	RedisAddr    string   `mapstructure:"-"`
	RedisChannel string   `mapstructure:"redis_channel"`
}

type Objects struct {
	Driver            string            `mapstructure:"driver"` // gcs or local
	LocalRoot         string            `mapstructure:"local_root"`
	PublicBaseURL     string            `mapstructure:"public_base_url"`
	Buckets           map[string]string `mapstructure:"buckets"`            // category -> GCS bucket name
	ManagedCategories []string          `mapstructure:"managed_categories"` // categories swept for stale files
}

type Scheduler struct {
	Timezone            string        `mapstructure:"timezone"`
	CertificateSpec     string        `mapstructure:"certificate_spec"`
	InactivitySpec      string        `mapstructure:"inactivity_spec"`
	CleanupSpec         string        `mapstructure:"cleanup_spec"`
	InactivityThreshold time.Duration `mapstructure:"inactivity_threshold"`
	FileRetention       time.Duration `mapstructure:"file_retention"`
	MaxConcurrent       int           `mapstructure:"max_concurrent"`
	BatchSize           int           `mapstructure:"batch_size"`
}

// Location resolves the scheduler timezone.
func (s Scheduler) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// A missing .env file is fine: production passes real environment variables.
	_ = godotenv.Load()

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("sendgrid_api_key", "SENDGRID_API_KEY")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.Email.SendGridAPIKey = v.GetString("sendgrid_api_key")
	cfg.Live.RedisAddr = v.GetString("redis_addr")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("database.migrate", true)
	v.SetDefault("storage.driver", "postgres")

	v.SetDefault("certification.min_level", 1)
	v.SetDefault("certification.font_size", 36)
	v.SetDefault("certification.artifact_category", "certificate")

	v.SetDefault("notifications.max_concurrent", 10)
	v.SetDefault("notifications.delivery_timeout", "10s")
	v.SetDefault("notifications.list_limit", 50)

	v.SetDefault("email.provider", "console")
	v.SetDefault("email.from_name", "Course Tracker")
	v.SetDefault("email.from_email", "no-reply@course-tracker.local")
	v.SetDefault("email.subject_prefix", "[Course Tracker] ")

	v.SetDefault("live.drivers", []string{"hub"})
	v.SetDefault("live.redis_channel", "live")

	v.SetDefault("objects.driver", "local")
	v.SetDefault("objects.local_root", "var/objects")
	v.SetDefault("objects.managed_categories", []string{"upload"})

	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.certificate_spec", "0 3 * * *")
	v.SetDefault("scheduler.inactivity_spec", "0 10 * * 1")
	v.SetDefault("scheduler.cleanup_spec", "0 4 1 * *")
	v.SetDefault("scheduler.inactivity_threshold", "168h")
	v.SetDefault("scheduler.file_retention", "720h")
	v.SetDefault("scheduler.max_concurrent", 10)
	v.SetDefault("scheduler.batch_size", 100)
}

// Validate checks the values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.DB.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.Email.Provider {
	case "sendgrid":
		if c.Email.SendGridAPIKey == "" {
			return fmt.Errorf("%w: SENDGRID_API_KEY", ErrMissingEnvironmentVariables)
		}
	case "console":
	default:
		return fmt.Errorf("%w: unknown email provider %q", ErrInvalidConfig, c.Email.Provider)
	}

	for _, d := range c.Live.Drivers {
		switch d {
		case "hub":
		case "redis":
			if c.Live.RedisAddr == "" {
				return fmt.Errorf("%w: REDIS_ADDR", ErrMissingEnvironmentVariables)
			}
		case "telegram":
			if c.TelegramAPIToken == "" {
				return fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
			}
		default:
			return fmt.Errorf("%w: unknown live driver %q", ErrInvalidConfig, d)
		}
	}

	switch c.Objects.Driver {
	case "gcs", "local":
	default:
		return fmt.Errorf("%w: unknown objects driver %q", ErrInvalidConfig, c.Objects.Driver)
	}
	for _, category := range c.Objects.ManagedCategories {
		if category == c.Certification.ArtifactCategory {
			return fmt.Errorf("%w: certificate artifacts must not be swept", ErrInvalidConfig)
		}
	}

	if c.Certification.MinLevel < 0 {
		return fmt.Errorf("%w: certification.min_level must not be negative", ErrInvalidConfig)
	}
	if c.Notifications.MaxConcurrent <= 0 || c.Scheduler.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: max_concurrent must be positive", ErrInvalidConfig)
	}
	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("%w: scheduler.batch_size must be positive", ErrInvalidConfig)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("%w: scheduler.timezone: %v", ErrInvalidConfig, err)
	}

	return nil
}
