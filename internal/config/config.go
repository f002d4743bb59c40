package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix is prepended to every variable, e.g. STOCKPULSE_API_URL
const envPrefix = "stockpulse"

type Config interface {
	EnvConfig
	APIConfig
	LogConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetSessionFile() string
	GetEnv() string
	IsDev() bool
}

type mainConfig struct {
	EnvVars
	API
	Logging
}

// Load reads an optional .env file from the working directory and then the environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the environment only
func FromEnv() (Config, error) {
	c := mainConfig{}
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return nil, fmt.Errorf("envconfig.Process: %w", err)
	}
	return c, nil
}
