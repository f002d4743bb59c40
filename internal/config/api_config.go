package config

import (
	"time"

	"github.com/jrsteele09/go-auth-client/client"
)

type APIConfig interface {
	GetAPIURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetEndpoints() client.Endpoints
}

// API locates the StockPulse backend. Paths default to the ones the backend serves.
type API struct {
	URL                      string        `envconfig:"API_URL" default:"http://localhost:8000"`
	RequestTimeout           time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RefreshTimeout           time.Duration `envconfig:"REFRESH_TIMEOUT" default:"30s"`
	TokenPath                string        `envconfig:"TOKEN_PATH" default:"/api/token/"`
	RefreshPath              string        `envconfig:"REFRESH_PATH" default:"/api/token/refresh/"`
	RegisterPath             string        `envconfig:"REGISTER_PATH" default:"/users/register/"`
	LogoutPath               string        `envconfig:"LOGOUT_PATH" default:"/users/logout/"`
	PasswordResetRequestPath string        `envconfig:"PASSWORD_RESET_REQUEST_PATH" default:"/users/password-reset/request/"`
	PasswordResetConfirmPath string        `envconfig:"PASSWORD_RESET_CONFIRM_PATH" default:"/users/password-reset/confirm/"`
}

var _ APIConfig = API{}

func (a API) GetAPIURL() string {
	return a.URL
}

func (a API) GetRequestTimeout() time.Duration {
	return a.RequestTimeout
}

func (a API) GetRefreshTimeout() time.Duration {
	return a.RefreshTimeout
}

func (a API) GetEndpoints() client.Endpoints {
	return client.Endpoints{
		Token:                a.TokenPath,
		Refresh:              a.RefreshPath,
		Register:             a.RegisterPath,
		Logout:               a.LogoutPath,
		PasswordResetRequest: a.PasswordResetRequestPath,
		PasswordResetConfirm: a.PasswordResetConfirmPath,
	}
}
