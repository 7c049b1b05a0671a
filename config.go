package main

import (
	"context"
	"fmt"
	"os"
	"time"

	aws_pkg "settlement-service/pkg/aws"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	RedisURL         string
	KafkaBrokers     string
	KafkaTopic       string
	SNSTopicArn      string
	CatalogURL       string
	JWTSecret        string
	SweepInterval    time.Duration
	PaymentWindow    time.Duration
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8086"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Africa/Accra"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:       getEnv("SETTLEMENT_TOPIC", "settlement.events"),
		SNSTopicArn:      os.Getenv("SNS_TOPIC_ARN"),
		CatalogURL:       getEnv("CATALOG_SERVICE_URL", "http://product-service:8082"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		PaymentWindow:    getEnvDuration("PAYMENT_WINDOW", 30*time.Minute),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)

			if creds, err := sm.GetDBCredentials(context.Background()); err == nil {
				if creds.User != "" {
					cfg.PostgresUser = creds.User
				}
				if creds.Password != "" {
					cfg.PostgresPassword = creds.Password
				}
				if creds.Database != "" {
					cfg.PostgresDB = creds.Database
				}
				if creds.Host != "" {
					cfg.PostgresHost = creds.Host
				}
				if creds.Port != "" {
					cfg.PostgresPort = creds.Port
				}
			}
			if key, err := sm.GetJWTSigningKey(context.Background()); err == nil && key != "" {
				cfg.JWTSecret = key
			}
		}
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
