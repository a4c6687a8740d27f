// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. TIDES_PORT.
const Prefix = "TIDES"

// Config holds the server settings.
type Config struct {
	Port               string   `default:"8080" desc:"HTTP listen port"`
	DataDir            string   `envconfig:"DATA_DIR" default:"./data" desc:"Directory of CSV and JSON station files"`
	FESDir             string   `envconfig:"FES_DIR" default:"./data/fes" desc:"Directory of FES NetCDF grids"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" desc:"Comma-separated allowed origins (default: all)"`
	DefaultStation     string   `envconfig:"DEFAULT_STATION" default:"raglan" desc:"Station used when a request names none"`
	StationRadiusKm    float64  `envconfig:"STATION_RADIUS_KM" default:"40" desc:"Lat/lon requests within this distance of a station use the station"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info" desc:"debug, info, warn or error"`
	LogFormat          string   `envconfig:"LOG_FORMAT" default:"json" desc:"json or text"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the settings that envconfig cannot.
func (c Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	if c.StationRadiusKm < 0 {
		return fmt.Errorf("station radius must not be negative")
	}
	return nil
}

// Logger builds the process logger described by the configuration.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Usage prints the recognised environment variables.
func Usage() error {
	var c Config
	return envconfig.Usagef(Prefix, &c, os.Stdout, envconfig.DefaultTableFormat)
}
