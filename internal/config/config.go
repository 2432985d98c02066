package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql" validate:"oneof=mysql postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	DBPort     string `envconfig:"DB_PORT" default:"3306" validate:"required,numeric"`
	DBUser     string `envconfig:"DB_USER" default:"volunteer" validate:"required"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"volunteerpassword"`
	DBName     string `envconfig:"DB_NAME" default:"volunteer_lifecycle" validate:"required"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost" validate:"required"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379" validate:"required,numeric"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	SessionSecret string   `envconfig:"SESSION_SECRET" default:"default-secret-key-change-me" validate:"min=16"`
	GinMode       string   `envconfig:"GIN_MODE" default:"debug" validate:"oneof=debug release test"`
	HTTPAddr      string   `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	Log Log

	Relay Relay

	// ClampCounterUnderflow keeps an unapproval committed when hours_completed
	// would go negative, resetting the counter to zero instead of failing.
	ClampCounterUnderflow bool `envconfig:"CLAMP_COUNTER_UNDERFLOW" default:"false"`
}

type Log struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	FilePath   string `envconfig:"LOG_FILE_PATH"`
	MaxSize    int    `envconfig:"LOG_MAX_SIZE" default:"100" validate:"gt=0"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5" validate:"gte=0"`
	MaxAge     int    `envconfig:"LOG_MAX_AGE" default:"28" validate:"gte=0"`
	Compress   bool   `envconfig:"LOG_COMPRESS" default:"true"`
}

type Relay struct {
	Interval  time.Duration `envconfig:"RELAY_INTERVAL" default:"1s" validate:"gt=0"`
	BatchSize int           `envconfig:"RELAY_BATCH_SIZE" default:"200" validate:"gt=0,lte=1000"`
	Stream    string        `envconfig:"RELAY_STREAM" default:"volunteer-lifecycle-events" validate:"required"`
	// MaxAttempts is how many failed deliveries an event gets before the
	// relay stops retrying it and moves on.
	MaxAttempts int `envconfig:"RELAY_MAX_ATTEMPTS" default:"10" validate:"gt=0"`
}

// Load reads an optional .env file, then the process environment, and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// RedisDBName returns the Redis database index in the string form the
// session store expects.
func (c *Config) RedisDBName() string {
	return strconv.Itoa(c.RedisDB)
}

// RedisAddr returns the host:port pair for the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
