// Package config provides centralized configuration management for the
// Pinecone Assistant MCP server.
package config

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	envAPIKey   = "PINECONE_API_KEY"
	envHost     = "PINECONE_ASSISTANT_HOST"
	envLogLevel = "LOG_LEVEL"

	// DefaultHost is the production Pinecone data plane endpoint used when
	// PINECONE_ASSISTANT_HOST is not set.
	DefaultHost = "https://prod-1-data.ke.pinecone.io"
)

// Config holds the complete configuration for the application
type Config struct {
	// Pinecone Assistant configuration
	Pinecone struct {
		APIKey string
		Host   string
	}

	// Log verbosity, one of charmbracelet/log's level names
	LogLevel string
}

var (
	once   sync.Once
	config *Config
)

// Load initializes and loads the configuration from environment variables
func Load() *Config {
	once.Do(func() {
		v := viper.New()

		// Set default values
		v.SetDefault(envHost, DefaultHost)
		v.SetDefault(envLogLevel, "info")

		// Load from environment variables
		v.AutomaticEnv()

		config = &Config{}
		config.Pinecone.APIKey = v.GetString(envAPIKey)
		config.Pinecone.Host = v.GetString(envHost)
		config.LogLevel = v.GetString(envLogLevel)
	})

	return config
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	if c.Pinecone.APIKey == "" {
		return fmt.Errorf("missing environment variable: %s", envAPIKey)
	}

	return nil
}

// ParseLogLevel converts the configured verbosity into a log level,
// falling back to info for unknown values.
func (c *Config) ParseLogLevel() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
