package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// MongoConfig holds the merge store connection settings.
type MongoConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// ScraperConfig holds the shared fetch-layer settings.
type ScraperConfig struct {
	Workers           string `yaml:"workers"`
	Headless          bool   `yaml:"headless"`
	Retries           int    `yaml:"retries"`
	RetryDelayMS      int    `yaml:"retry_delay_ms"`
	HTTPTimeoutSec    int    `yaml:"http_timeout_sec"`
	BrowserTimeoutSec int    `yaml:"browser_timeout_sec"`
}

// HotlineConfig holds settings specific to hotline.ua.
type HotlineConfig struct {
	CityID int `yaml:"city_id"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Scraper ScraperConfig `yaml:"scraper"`
	Hotline HotlineConfig `yaml:"hotline"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Mongo: MongoConfig{
			URL:      "mongodb://localhost:27017",
			Database: "parser_db",
		},
		Scraper: ScraperConfig{
			Workers:           "auto",
			Headless:          true,
			Retries:           3,
			RetryDelayMS:      300,
			HTTPTimeoutSec:    10,
			BrowserTimeoutSec: 5,
		},
		Hotline: HotlineConfig{CityID: 187},
	}
}

// LoadConfig reads the YAML file at filepath over the defaults and then
// applies environment overrides. A missing file just means defaults; a
// malformed one is fatal.
func LoadConfig(filepath string) *Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath)
	switch {
	case os.IsNotExist(err):
		log.Printf("Config file %s not found, using defaults", filepath)
	case err != nil:
		log.Fatalf("Error reading config file: %v", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error unmarshalling config YAML: %v", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MONGODB_URL"); v != "" {
		cfg.Mongo.URL = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
}
