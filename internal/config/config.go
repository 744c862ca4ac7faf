package config

import (
	"fmt"
	"os"
)

type Config struct {
	DBSource      string
	Port          string
	Env           string
	AdminIdentity string
	LogLevel      string
	LogFormat     string
}

func Load() (*Config, error) {
	dbSource := os.Getenv("DB_SOURCE")
	if dbSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required")
	}

	admin := os.Getenv("ADMIN_IDENTITY")
	if admin == "" {
		return nil, fmt.Errorf("ADMIN_IDENTITY environment variable is required")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		DBSource:      dbSource,
		Port:          port,
		Env:           env,
		AdminIdentity: admin,
		LogLevel:      logLevel,
		LogFormat:     logFormat,
	}, nil
}
