package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
	Auth struct {
		SigningKey string `yaml:"signing_key"`
	} `yaml:"auth"`
	Matching struct {
		CommissionPercentage  float64 `yaml:"commission_percentage"`
		NotifyLimit           int     `yaml:"notify_limit"`
		PresenceWindowMinutes int     `yaml:"presence_window_minutes"`
		ExpireAfterHours      int     `yaml:"expire_after_hours"`
	} `yaml:"matching"`
}

func LoadConfig() Config {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to unmarshal config data: %v", err)
	}

	// Environment wins over the file so deployments can override secrets.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("FIREBASE_CREDENTIALS"); v != "" {
		cfg.Firebase.CredentialsFile = v
	}
	if v := os.Getenv("COMMISSION_PERCENTAGE"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.CommissionPercentage = p
		}
	}

	if cfg.Matching.CommissionPercentage <= 0 {
		cfg.Matching.CommissionPercentage = 10
	}
	if cfg.Matching.NotifyLimit <= 0 {
		cfg.Matching.NotifyLimit = 10
	}
	if cfg.Matching.PresenceWindowMinutes <= 0 {
		cfg.Matching.PresenceWindowMinutes = 30
	}
	if cfg.Matching.ExpireAfterHours <= 0 {
		cfg.Matching.ExpireAfterHours = 14 * 24
	}
	return cfg
}
