package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/corebank/loanengine/pkg/postgres"
)

type KafkaConfig struct {
	Brokers    []string
	EventTopic string
}

type AuthConfig struct {
	JWTSecret string
	Disabled  bool
}

type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

type JobConfig struct {
	Workers int
}

type Config struct {
	GRPCPort int
	HTTPPort int

	DB    postgres.Config
	Kafka KafkaConfig
	Auth  AuthConfig
	TLS   TLSConfig
	Jobs  JobConfig

	// AllocationStrategy selects the payment allocation order applied to
	// repayments; see service.AllocatorByName for the known names.
	AllocationStrategy string

	LogLevel      string
	LogFormat     string
	OTLPEndpoint  string
	MigrationsDir string
	ServiceName   string
}

func (c Config) Validate() {
	if c.DB.Password == "" {
		panic("DB_PASSWORD environment variable is required")
	}
	if !c.Auth.Disabled && c.Auth.JWTSecret == "" {
		panic("JWT_SECRET environment variable is required unless AUTH_DISABLED=true")
	}
}

func Load() Config {
	return Config{
		GRPCPort: getEnvInt("GRPC_PORT", 9090),
		HTTPPort: getEnvInt("HTTP_PORT", 8090),
		DB: postgres.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "loanengine"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "loanengine"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Kafka: KafkaConfig{
			Brokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			EventTopic: getEnv("KAFKA_EVENT_TOPIC", "loanengine.loan-events"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Disabled:  getEnvBool("AUTH_DISABLED", false),
		},
		TLS: TLSConfig{
			Enabled:  getEnvBool("TLS_ENABLED", false),
			CertFile: getEnv("TLS_CERT_FILE", ""),
			KeyFile:  getEnv("TLS_KEY_FILE", ""),
			CAFile:   getEnv("TLS_CA_FILE", ""),
		},
		Jobs: JobConfig{
			Workers: getEnvInt("JOB_WORKERS", 8),
		},
		AllocationStrategy: getEnv("ALLOCATION_STRATEGY", "penalties-fees-interest-principal"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		OTLPEndpoint:       getEnv("OTLP_ENDPOINT", ""),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "file://internal/infrastructure/postgres/migrations"),
		ServiceName:        "loanengine",
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
