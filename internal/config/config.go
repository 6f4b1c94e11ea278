// Package config loads process settings from the environment and pipeline
// definitions from YAML files.
package config

import (
	stderrors "errors"
	"io/fs"
	"strings"
	"time"

	"tabprep/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. TABPREP_LOG_LEVEL
const EnvPrefix = "TABPREP"

// Config represents the process configuration
type Config struct {
	LogLevel          string       `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat         string       `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	OutputDir         string       `envconfig:"OUTPUT_DIR" default:"output" validate:"required"`
	PipelineFile      string       `envconfig:"PIPELINE_FILE"`
	MaxConcurrentRuns int64        `envconfig:"MAX_CONCURRENT_RUNS" default:"2" validate:"min=1"`
	MaxUploadBytes    int64        `envconfig:"MAX_UPLOAD_BYTES" default:"33554432" validate:"min=1"`
	AllowedOrigins    []string     `envconfig:"ALLOWED_ORIGINS" default:"*"`
	Server            ServerConfig `envconfig:"SERVER"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

var validate = validator.New()

// Load reads .env files (when present) and then TABPREP_* variables.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags on any configuration value and reports the
// failures as one CONFIG_INVALID error
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.ConfigInvalid("invalid configuration: " + strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Namespace() + " is required"
	case "oneof":
		return fe.Namespace() + " must be one of: " + fe.Param()
	case "min", "gte":
		return fe.Namespace() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Namespace() + " must be at most " + fe.Param()
	case "lt":
		return fe.Namespace() + " must be less than " + fe.Param()
	}
	return fe.Namespace() + " failed " + fe.Tag()
}
