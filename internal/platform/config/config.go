// Package config loads server settings from the environment and the
// balance tuning from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Server holds everything the server binary reads from the environment.
type Server struct {
	Addr      string `env:"VEILLE_ADDR" envDefault:":8080"`
	SessionID string `env:"VEILLE_SESSION_ID" envDefault:"SESSION_1"`

	StorageDriver string `env:"VEILLE_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"VEILLE_SQLITE_PATH" envDefault:"data/veille.db"`
	PostgresDSN   string `env:"VEILLE_POSTGRES_DSN"`

	TuningPath  string  `env:"VEILLE_TUNING_PATH" envDefault:"config/tuning.yaml"`
	NightLength float64 `env:"VEILLE_NIGHT_LENGTH" envDefault:"360"`
	Profile     string  `env:"VEILLE_PROFILE" envDefault:"default"` // default, stress, low

	FrameRate       int           `env:"VEILLE_FRAME_RATE" envDefault:"30"`
	BroadcastEvery  time.Duration `env:"VEILLE_BROADCAST_EVERY" envDefault:"100ms"`
	AdviseEvery     time.Duration `env:"VEILLE_ADVISE_EVERY" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"VEILLE_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	AllowedOrigins  []string      `env:"VEILLE_ALLOWED_ORIGINS" envSeparator:","`

	Debug     bool   `env:"VEILLE_DEBUG" envDefault:"false"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// FrameInterval converts the frame rate into a ticker period.
func (s Server) FrameInterval() time.Duration {
	if s.FrameRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(s.FrameRate)
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are fine; variables already set are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer reads .env and then the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
