package config

import (
	"path/filepath"
	"strings"
)

const sessionFileName = "session.json"

type EnvVars struct {
	AppName string `envconfig:"APP_NAME" default:"StockPulse"`
	Env     string `envconfig:"ENV" default:"DEV"`
	Folder  string `envconfig:"FOLDER" default:"./data"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDataFolder() string {
	return e.Folder
}

// GetSessionFile returns where the CLI persists its session
func (e EnvVars) GetSessionFile() string {
	return filepath.Join(e.Folder, sessionFileName)
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) IsDev() bool {
	return strings.EqualFold(e.GetEnv(), "DEV")
}
