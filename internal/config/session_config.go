package config

import "time"

const (
	SessionBackendMemory = "memory"
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendSQLite = "sqlite"
)

type Session struct {
	Backend    string `yaml:"backend" env:"ATS_SESSION_BACKEND" env-default:"file" env-description:"session storage: memory, file, redis or sqlite"`
	File       string `yaml:"file" env:"ATS_SESSION_FILE" env-default:"~/.ats/session.json" env-description:"session file for the file backend"`
	Key        string `yaml:"key" env:"ATS_SESSION_KEY" env-description:"passphrase sealing the session file (optional)"`
	RedisURL   string `yaml:"redis_url" env:"ATS_REDIS_URL" env-default:"redis://localhost:6379/0" env-description:"redis URL for the redis backend"`
	RedisKey   string `yaml:"redis_key" env:"ATS_REDIS_KEY" env-default:"ats:session:default" env-description:"redis hash holding the session"`
	SQLitePath string `yaml:"sqlite_path" env:"ATS_SQLITE_PATH" env-default:"~/.ats/session.db" env-description:"database for the sqlite backend"`
}

var _ SessionConfig = Session{}

func (s Session) GetSessionBackend() string {
	if s.Backend == "" {
		return SessionBackendFile
	}
	return s.Backend
}

func (s Session) GetSessionFile() string {
	return ExpandHome(s.File)
}

func (s Session) GetSessionKey() string {
	return s.Key
}

func (s Session) GetRedisURL() string {
	return s.RedisURL
}

func (s Session) GetRedisKey() string {
	return s.RedisKey
}

func (s Session) GetSQLitePath() string {
	return ExpandHome(s.SQLitePath)
}

type Mock struct {
	Addr       string        `yaml:"addr" env:"ATS_MOCK_ADDR" env-default:":8000" env-description:"listen address of the mock backend"`
	Secret     string        `yaml:"secret" env:"ATS_MOCK_SECRET" env-default:"ats-mock-secret" env-description:"HMAC secret for mock access tokens"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"ATS_MOCK_ACCESS_TTL" env-default:"5m" env-description:"lifetime of mock access tokens"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"ATS_MOCK_REFRESH_TTL" env-default:"24h" env-description:"lifetime of mock refresh tokens"`
}

var _ MockConfig = Mock{}

func (m Mock) GetMockAddr() string {
	return m.Addr
}

func (m Mock) GetMockSecret() string {
	return m.Secret
}

func (m Mock) GetMockAccessTTL() time.Duration {
	return m.AccessTTL
}

func (m Mock) GetMockRefreshTTL() time.Duration {
	return m.RefreshTTL
}
