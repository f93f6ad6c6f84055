package config

import "strings"

type EnvVars struct {
	Env      string `yaml:"env" env:"ATS_ENV" env-default:"DEV" env-description:"deployment environment"`
	AppName  string `yaml:"app_name" env:"ATS_APP_NAME" env-default:"ATS Client" env-description:"name shown in the CLI banner"`
	LogLevel string `yaml:"log_level" env:"ATS_LOG_LEVEL" env-default:"info" env-description:"zerolog level (debug, info, warn, error)"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
