package config

import (
	"strings"
	"time"
)

// Paths are the backend endpoint paths, relative to the API base URL.
// Paths containing %s take a resource identifier.
type Paths struct {
	Login   string `yaml:"login" env:"ATS_PATH_LOGIN" env-default:"/custom_auth/login/"`
	Profile string `yaml:"profile" env:"ATS_PATH_PROFILE" env-default:"/custom_auth/profile/"`
	Refresh string `yaml:"refresh" env:"ATS_PATH_REFRESH" env-default:"/custom_auth/token/refresh/"`
	Logout  string `yaml:"logout" env:"ATS_PATH_LOGOUT" env-default:"/custom_auth/logout/"`

	UserList   string `yaml:"user_list" env:"ATS_PATH_USER_LIST" env-default:"/custom_auth/list/"`
	UserCreate string `yaml:"user_create" env:"ATS_PATH_USER_CREATE" env-default:"/custom_auth/register/"`
	UserUpdate string `yaml:"user_update" env:"ATS_PATH_USER_UPDATE" env-default:"/custom_auth/update/%s/"`
	UserDelete string `yaml:"user_delete" env:"ATS_PATH_USER_DELETE" env-default:"/custom_auth/delete/%s/"`

	TestList   string `yaml:"test_list" env:"ATS_PATH_TEST_LIST" env-default:"/lab/list/"`
	TestCreate string `yaml:"test_create" env:"ATS_PATH_TEST_CREATE" env-default:"/lab/create/"`
	TestUpdate string `yaml:"test_update" env:"ATS_PATH_TEST_UPDATE" env-default:"/lab/update/%s/"`
	TestDelete string `yaml:"test_delete" env:"ATS_PATH_TEST_DELETE" env-default:"/lab/delete/%s/"`

	AthleteDashboard string `yaml:"athlete_dashboard" env:"ATS_PATH_ATHLETE_DASHBOARD" env-default:"/dashboard/athlete-dashboard/%s/"`
	TestResults      string `yaml:"test_results" env:"ATS_PATH_TEST_RESULTS" env-default:"/dashboard/test-results/%s/"`
}

type API struct {
	BaseURL       string        `yaml:"base_url" env:"ATS_API_BASE_URL" env-default:"http://localhost:8000" env-description:"backend REST API base URL"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"ATS_HTTP_TIMEOUT" env-default:"15s" env-description:"per-request HTTP timeout"`
	RateLimit     float64       `yaml:"rate_limit" env:"ATS_RATE_LIMIT" env-default:"0" env-description:"outbound requests per second, 0 disables"`
	RateBurst     int           `yaml:"rate_burst" env:"ATS_RATE_BURST" env-default:"5" env-description:"outbound request burst"`
	RotateRefresh bool          `yaml:"rotate_refresh" env:"ATS_ROTATE_REFRESH" env-default:"true" env-description:"store rotated refresh tokens returned by the refresh endpoint"`
	EndpointPaths Paths         `yaml:"paths"`
}

var _ APIConfig = API{}

func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.BaseURL, "/")
}

func (a API) GetHTTPTimeout() time.Duration {
	if a.HTTPTimeout <= 0 {
		return 15 * time.Second
	}
	return a.HTTPTimeout
}

func (a API) GetRateLimit() float64 {
	return a.RateLimit
}

func (a API) GetRateBurst() int {
	if a.RateBurst < 1 {
		return 1
	}
	return a.RateBurst
}

func (a API) GetRotateRefreshTokens() bool {
	return a.RotateRefresh
}

func (a API) GetPaths() Paths {
	return a.EndpointPaths
}
