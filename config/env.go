package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	HTTPAddr    string `envconfig:"HTTP_ADDR"    default:":8080"`
	GrpcAddr    string `envconfig:"GRPC_ADDR"    default:":50053"`
	LogLevel    string `envconfig:"LOG_LEVEL"    default:"info"`
	RateLimit   string `envconfig:"RATE_LIMIT"   default:"100-M"`

	// Nested structs are prefixed with their field name: REDIS_HOST, JWT_SECRET, ADMIN_EMAIL.
	Redis RedisConfig
	JWT   AuthConfig
	Admin AdminConfig
}

type AuthConfig struct {
	Secret string        `envconfig:"SECRET"`
	TTL    time.Duration `envconfig:"TTL"    default:"24h"`
}

// MinSecretLength is the shortest JWT_SECRET the API accepts.
const MinSecretLength = 16

// Validate refuses to sign tokens with a missing or short secret.
func (c AuthConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength)
	}
	return nil
}

// AdminConfig seeds the first staff account when the users table is empty.
type AdminConfig struct {
	Email    string `envconfig:"EMAIL"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME" default:"Administrador"`
}

func LoadConfig(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else {
			logger.Info("No .env file found, using environment variables")
		}
	} else {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	logger.Infof("Configuration loaded: HTTP=%s, gRPC=%s, LogLevel=%s, Redis enabled=%t",
		cfg.HTTPAddr, cfg.GrpcAddr, cfg.LogLevel, cfg.Redis.Enabled)
	return &cfg, nil
}
