package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string     `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string     `yaml:"http-port" env:"HTTP_PORT" env-default:""`
	Redis      Redis      `yaml:"redis"`
	Agent      Agent      `yaml:"agent"`
	Training   Training   `yaml:"training"`
	Evaluation Evaluation `yaml:"evaluation"`
	Play       Play       `yaml:"play"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Agent struct {
	Name    string  `yaml:"name" env-default:"default"`
	Mark    string  `yaml:"mark" env-default:"X"`
	Alpha   float64 `yaml:"alpha" env-default:"0.1"`
	Gamma   float64 `yaml:"gamma" env-default:"0.9"`
	Epsilon float64 `yaml:"epsilon" env-default:"0.1"`
}

// Training - a zero Seed picks one from the clock, a zero LogEvery turns progress logs off.
type Training struct {
	Episodes int    `yaml:"episodes" env:"TRAINING_EPISODES" env-default:"50000"`
	Seed     uint64 `yaml:"seed" env:"TRAINING_SEED" env-default:"0"`
	LogEvery int    `yaml:"log-every" env:"TRAINING_LOG_EVERY"`
}

type Evaluation struct {
	Games int `yaml:"games" env:"EVALUATION_GAMES"`
}

type Play struct {
	Enabled bool `yaml:"enabled" env:"PLAY_ENABLED"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads path, then the environment on top of it.
func Load(path string) (*Config, error) {
	config := newDefault()

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// newDefault - fields whose zero value means something are preset here, env-default would override them.
func newDefault() *Config {
	return &Config{
		Training: Training{
			LogEvery: 10000,
		},
		Evaluation: Evaluation{
			Games: 1000,
		},
		Play: Play{
			Enabled: true,
		},
	}
}

// GetRedisAddr - host:port, empty when either part is missing.
func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
