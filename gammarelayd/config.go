package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pgaskin/gammahook"
	"github.com/pgaskin/gammahook/coordinator"
	"github.com/pgaskin/gammahook/redshift"
)

// Server is the address the coordinator listens on, and the address hooks
// relay to.
type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Display controls the color ramp computed by the coordinator.
type Display struct {
	BlackFlash     bool    `toml:"black_flash"`
	BlackSmoke     bool    `toml:"black_smoke"`
	MonitorGamma   float64 `toml:"monitor_gamma"`
	MonitorGammaTV bool    `toml:"monitor_gamma_tv"`
	Temperature    int     `toml:"temperature"`
}

// Solar requests a color temperature based on the sun's elevation.
type Solar struct {
	Enabled          bool    `toml:"enabled"`
	Latitude         float64 `toml:"latitude"`
	Longitude        float64 `toml:"longitude"`
	ElevationDay     float64 `toml:"elevation_day"`   // solar elevation in degrees for transition to daytime
	ElevationNight   float64 `toml:"elevation_night"` // solar elevation in degrees for transition to night
	TemperatureDay   int     `toml:"temperature_day"`
	TemperatureNight int     `toml:"temperature_night"`
}

// Hook controls the hook used by the relay command.
type Hook struct {
	Mode         string `toml:"mode"`
	WaitResponse bool   `toml:"wait_response"`
	TimeoutMS    int    `toml:"timeout_ms"`
}

// Logging controls log output.
type Logging struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // auto, text, json
}

// Config is the gammarelayd configuration file.
type Config struct {
	Server  Server  `toml:"server"`
	Display Display `toml:"display"`
	Solar   Solar   `toml:"solar"`
	Hook    Hook    `toml:"hook"`
	Logging Logging `toml:"logging"`
}

// Default returns the configuration used for missing values.
func Default() Config {
	return Config{
		Server: Server{
			Host: "localhost",
			Port: 3000,
		},
		Display: Display{
			BlackFlash:   coordinator.DefaultSettings.BlackFlash,
			BlackSmoke:   coordinator.DefaultSettings.BlackSmoke,
			MonitorGamma: coordinator.DefaultSettings.MonitorGamma,
			Temperature:  int(redshift.NeutralTemperature),
		},
		Solar: Solar{
			ElevationDay:     3,
			ElevationNight:   -6,
			TemperatureDay:   6500,
			TemperatureNight: 4500,
		},
		Hook: Hook{
			Mode:         gammahook.FastBypass.String(),
			WaitResponse: true,
			TimeoutMS:    1000,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}

// DefaultConfigPath returns the default location of the configuration file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "gammarelay", "config.toml"), nil
}

// Load parses and validates the configuration file at path, or the default
// path if empty. A missing file is not an error. It returns the resolved path
// and whether it exists.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
		path = p
	}

	exists := true
	buf, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		exists = false
	}
	if exists {
		if err := toml.Unmarshal(buf, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, path, exists, nil
}

func (c *Config) normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Hook.Mode = strings.ToLower(strings.TrimSpace(c.Hook.Mode))
	if c.Hook.Mode == "" {
		c.Hook.Mode = gammahook.FastBypass.String()
	}
	if c.Hook.TimeoutMS == 0 {
		c.Hook.TimeoutMS = Default().Hook.TimeoutMS
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if err := (gammahook.SessionConfig{Host: c.Server.Host, Port: 1}).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server.host: %w", err))
	}
	if !(c.Display.MonitorGamma > 0) {
		errs = append(errs, fmt.Errorf("display.monitor_gamma: must be positive"))
	}
	if err := validTemperature(c.Display.Temperature); err != nil {
		errs = append(errs, fmt.Errorf("display.temperature: %w", err))
	}
	if c.Solar.Enabled {
		if c.Solar.ElevationNight >= c.Solar.ElevationDay {
			errs = append(errs, fmt.Errorf("solar.elevation_night: must be smaller than elevation_day"))
		}
		if c.Solar.Latitude < -90 || c.Solar.Latitude > 90 {
			errs = append(errs, fmt.Errorf("solar.latitude: %v out of range", c.Solar.Latitude))
		}
		if c.Solar.Longitude < -180 || c.Solar.Longitude > 180 {
			errs = append(errs, fmt.Errorf("solar.longitude: %v out of range", c.Solar.Longitude))
		}
		if err := validTemperature(c.Solar.TemperatureDay); err != nil {
			errs = append(errs, fmt.Errorf("solar.temperature_day: %w", err))
		}
		if err := validTemperature(c.Solar.TemperatureNight); err != nil {
			errs = append(errs, fmt.Errorf("solar.temperature_night: %w", err))
		}
	}
	if _, err := gammahook.ParseMode(c.Hook.Mode); err != nil {
		errs = append(errs, fmt.Errorf("hook.mode: %w", err))
	}
	if c.Hook.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("hook.timeout_ms: must not be negative"))
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func validTemperature(t int) error {
	if _, ok := redshift.GetWhitePoint(redshift.Temperature(t)); !ok {
		return fmt.Errorf("%dK outside %d-%dK", t, redshift.MinTemperature, redshift.MaxTemperature)
	}
	return nil
}

// Session returns the coordinator address for a hook session.
func (c *Config) Session() gammahook.SessionConfig {
	return gammahook.SessionConfig{
		Host: c.Server.Host,
		Port: uint16(c.Server.Port),
	}
}

// Settings returns the coordinator settings.
func (c *Config) Settings() coordinator.Settings {
	return coordinator.Settings{
		BlackFlash:     c.Display.BlackFlash,
		BlackSmoke:     c.Display.BlackSmoke,
		MonitorGamma:   c.Display.MonitorGamma,
		MonitorGammaTV: c.Display.MonitorGammaTV,
		Temperature:    redshift.Temperature(c.Display.Temperature),
	}
}

// Timeouts returns the hook transport timeouts. Each phase gets the full
// timeout.
func (c *Config) Timeouts() gammahook.Timeouts {
	d := time.Duration(c.Hook.TimeoutMS) * time.Millisecond
	return gammahook.Timeouts{
		Resolve: d,
		Connect: d,
		Send:    d,
		Receive: d,
	}
}

// SolarTemperature returns the scheduled temperature at now.
func (c *Config) SolarTemperature(now time.Time) redshift.Temperature {
	return redshift.Solar(now,
		c.Solar.Latitude, c.Solar.Longitude,
		c.Solar.ElevationNight, c.Solar.ElevationDay,
		redshift.Temperature(c.Solar.TemperatureNight), redshift.Temperature(c.Solar.TemperatureDay),
	)
}
