package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/KyleBrandon/w1-reporter/internal/indicator"
	"github.com/KyleBrandon/w1-reporter/internal/mqtt"
	"github.com/KyleBrandon/w1-reporter/internal/scheduler"
	"github.com/KyleBrandon/w1-reporter/internal/sensor"
	"github.com/KyleBrandon/w1-reporter/internal/transport"
)

const (
	DefaultLogLevel           = slog.LevelInfo
	DefaultConfigFileLocation = "./config/config.json"
	DefaultRetentionDays      = 30
)

type (
	Config struct {
		API            transport.Config      `json:"api" yaml:"api"`
		Schedule       scheduler.Config      `json:"schedule" yaml:"schedule"`
		Bus            sensor.BusConfig      `json:"bus" yaml:"bus"`
		Devices        []sensor.DeviceConfig `json:"devices" yaml:"devices"`
		MQTT           mqtt.Config           `json:"mqtt" yaml:"mqtt"`
		Indicator      indicator.Config      `json:"indicator" yaml:"indicator"`
		History        HistoryConfig         `json:"history" yaml:"history"`
		OriginPatterns []string              `json:"origin_patterns" yaml:"origin_patterns"`
	}

	HistoryConfig struct {
		RetentionDays int `json:"retention_days" yaml:"retention_days"`
	}

	// EnvSettings are read from the environment, after .env has been loaded.
	EnvSettings struct {
		ServerPort         string `env:"PORT"`
		DatabaseURL        string `env:"DATABASE_URL"`
		LogFileLocation    string `env:"LOG_FILE_LOCATION"`
		ConfigFileLocation string `env:"CONFIG_FILE_LOCATION" envDefault:"./config/config.json"`
		APIBasicAuth       string `env:"API_BASIC_AUTH"`
		MQTTPassword       string `env:"MQTT_PASSWORD"`
		AdminApiKey        string `env:"ADMIN_API_KEY"`
	}
)

// LoadEnvSettings loads .env when present and parses the environment.
func LoadEnvSettings() (EnvSettings, error) {
	var settings EnvSettings

	if err := godotenv.Load(); err != nil {
		slog.Warn("could not load .env file", "error", err)
	}

	if err := env.Parse(&settings); err != nil {
		return settings, err
	}

	return settings, nil
}

// LoadConfigSettings reads the config file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadConfigSettings(filename string) (Config, error) {
	var config Config
	file, err := os.Open(filename)
	if err != nil {
		return config, err
	}

	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return config, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &config)
	default:
		err = json.Unmarshal(bytes, &config)
	}
	if err != nil {
		return config, err
	}

	if config.History.RetentionDays == 0 {
		config.History.RetentionDays = DefaultRetentionDays
	}

	return config, nil
}

// ApplyEnv lets secrets from the environment override the file.
func (config *Config) ApplyEnv(settings EnvSettings) {
	if settings.APIBasicAuth != "" {
		config.API.Credential = settings.APIBasicAuth
	}
	if settings.MQTTPassword != "" {
		config.MQTT.Password = settings.MQTTPassword
	}
}
