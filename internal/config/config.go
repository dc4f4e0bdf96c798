package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Local struct {
		Dir string `yaml:"dir"`
	} `yaml:"local"`
	Questions struct {
		TTL string `yaml:"ttl"`
	} `yaml:"questions"`
	Auth struct {
		Secret     string `yaml:"secret"`
		TokenTTL   string `yaml:"tokenTtl"`
		Organizers []struct {
			Username     string `yaml:"username"`
			PasswordHash string `yaml:"passwordHash"`
		} `yaml:"organizers"`
		StageCodes map[string]string `yaml:"stageCodes"`
	} `yaml:"auth"`
	Match struct {
		BallsPerInnings int `yaml:"ballsPerInnings"`
		BallsPerOver    int `yaml:"ballsPerOver"`
		PoolSize        int `yaml:"poolSize"`
		Timer           struct {
			Single string `yaml:"single"`
			Two    string `yaml:"two"`
			Four   string `yaml:"four"`
			Six    string `yaml:"six"`
		} `yaml:"timer"`
	} `yaml:"match"`
}

// Load reads YAML config from path. A .env file next to the process, if
// present, is folded into the environment first; ${VAR} style expansion
// applies to the raw file so secrets can stay out of the yaml.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
