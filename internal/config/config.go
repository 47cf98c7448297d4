package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name           string   `envconfig:"APP_NAME" default:"Claire"`
		Port           int      `envconfig:"PORT" default:"8000"`
		Environment    string   `envconfig:"APP_ENVIRONMENT" default:"development"`
		AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"claire"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		JWKSURL string `envconfig:"CLERK_JWKS_URL"`
	}

	Minio struct {
		Endpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
		AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
		SecretKey string `envconfig:"MINIO_SECRET_KEY"`
		Secure    bool   `envconfig:"MINIO_SECURE" default:"false"`
		Bucket    string `envconfig:"MINIO_BUCKET_NAME" default:"claire-uploads"`
	}

	Gemini struct {
		APIKey string `envconfig:"GEMINI_API_KEY"`
	}

	// Client is used by the TUI to reach a running API.
	Client struct {
		BaseURL string `envconfig:"CLAIRE_API_URL" default:"http://localhost:8000"`
		Token   string `envconfig:"CLAIRE_API_TOKEN"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
