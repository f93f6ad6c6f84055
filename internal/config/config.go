package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	MockConfig
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetRateLimit() float64
	GetRateBurst() int
	GetRotateRefreshTokens() bool
	GetPaths() Paths
}

type SessionConfig interface {
	GetSessionBackend() string
	GetSessionFile() string
	GetSessionKey() string
	GetRedisURL() string
	GetRedisKey() string
	GetSQLitePath() string
}

type MockConfig interface {
	GetMockAddr() string
	GetMockSecret() string
	GetMockAccessTTL() time.Duration
	GetMockRefreshTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Session
	Mock
}

// settings is the document cleanenv fills from the optional YAML file and the environment.
type settings struct {
	Env     EnvVars `yaml:"env"`
	API     API     `yaml:"api"`
	Session Session `yaml:"session"`
	Mock    Mock    `yaml:"mock"`
}

// New loads the configuration. A .env file in the working directory is applied first
// (existing variables win), then the YAML file at path when one is given, then the
// environment. An empty path reads the environment only.
func New(path string) (Config, error) {
	_ = godotenv.Load()

	var s settings
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &s)
	} else {
		err = cleanenv.ReadEnv(&s)
	}
	if err != nil {
		return nil, fmt.Errorf("[config.New] %w", err)
	}
	return mainConfig{
		EnvVars: s.Env,
		API:     s.API,
		Session: s.Session,
		Mock:    s.Mock,
	}, nil
}

// Usage returns the list of supported environment variables for --help output.
func Usage() string {
	var s settings
	text, err := cleanenv.GetDescription(&s, nil)
	if err != nil {
		return ""
	}
	return text
}
