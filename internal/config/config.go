// Package config loads the composer's TOML configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/naoina/toml"

	"qcomposer/internal/codegen"
)

// Simulation modes.
const (
	SimLocal  = "local"
	SimRemote = "remote"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Config is the full configuration.
type Config struct {
	Qubits  int    // initial wire count
	Dialect string // openqasm, qiskit or quil
	User    string // signed-in user; empty means signed out

	Sim    SimConfig
	Log    LogConfig
	Server ServerConfig
}

type SimConfig struct {
	Mode      string // local or remote
	URL       string // endpoint for remote mode
	Shots     int
	MaxQubits int
}

type LogConfig struct {
	File       string // empty disables logging in the editor
	Level      string
	MaxSizeMB  int
	MaxBackups int
}

type ServerConfig struct {
	Addr          string
	CORSOrigins   []string
	MaxConcurrent int // simultaneous simulations
	MaxShots      int // per request; zero means no limit
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Qubits:  3,
		Dialect: string(codegen.OpenQASM),
		Sim: SimConfig{
			Mode:      SimLocal,
			URL:       "http://127.0.0.1:5000/api/",
			Shots:     1000,
			MaxQubits: 16,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:5000",
			CORSOrigins:   []string{"*"},
			MaxConcurrent: 4,
			MaxShots:      100000,
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are errors.
func Load(file string) (Config, error) {
	cfg := Defaults()
	f, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Marshal renders the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return tomlSettings.Marshal(&c)
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Qubits < 1 {
		return fmt.Errorf("config: Qubits must be at least 1, got %d", c.Qubits)
	}
	if _, err := codegen.Parse(c.Dialect); err != nil {
		return fmt.Errorf("config: Dialect: %w", err)
	}
	switch c.Sim.Mode {
	case SimLocal:
	case SimRemote:
		if c.Sim.URL == "" {
			return errors.New("config: Sim.URL is required in remote mode")
		}
	default:
		return fmt.Errorf("config: Sim.Mode must be %q or %q, got %q", SimLocal, SimRemote, c.Sim.Mode)
	}
	if c.Sim.Shots < 1 {
		return fmt.Errorf("config: Sim.Shots must be positive, got %d", c.Sim.Shots)
	}
	if c.Sim.MaxQubits < 0 {
		return fmt.Errorf("config: Sim.MaxQubits must not be negative, got %d", c.Sim.MaxQubits)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: Log.Level: %w", err)
	}
	if c.Server.MaxConcurrent < 1 {
		return fmt.Errorf("config: Server.MaxConcurrent must be positive, got %d", c.Server.MaxConcurrent)
	}
	if c.Server.MaxShots < 0 {
		return fmt.Errorf("config: Server.MaxShots must not be negative, got %d", c.Server.MaxShots)
	}
	return nil
}

// ParseLevel parses a slog level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.TrimSpace(s)))
	return l, err
}
