package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configurable freeterm settings.
type Config struct {
	Prompt     string      `json:"prompt"`
	Foreground string      `json:"foreground"` // console text color
	Background string      `json:"background"`
	LogFile    string      `json:"log_file"`  // empty disables logging
	LogLevel   string      `json:"log_level"` // "debug" | "info" | "warn" | "error"
	Alarm      AlarmConfig `json:"alarm"`
}

// AlarmConfig shapes the repeating countdown alarm. Zero fields fall back.
type AlarmConfig struct {
	BeepGapMS   int `json:"beep_gap_ms"`
	BlinkHalfMS int `json:"blink_half_ms"`
	PauseMS     int `json:"pause_ms"`
}

// BeepGap returns the pause after each beep.
func (a AlarmConfig) BeepGap() time.Duration { return time.Duration(a.BeepGapMS) * time.Millisecond }

// BlinkHalf returns the on (and off) time of one blink.
func (a AlarmConfig) BlinkHalf() time.Duration {
	return time.Duration(a.BlinkHalfMS) * time.Millisecond
}

// Pause returns the rest between alarm cycles.
func (a AlarmConfig) Pause() time.Duration { return time.Duration(a.PauseMS) * time.Millisecond }

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Prompt:     "> ",
		Foreground: "#00ff00",
		Background: "#000000",
		LogLevel:   "info",
		Alarm: AlarmConfig{
			BeepGapMS:   120,
			BlinkHalfMS: 150,
			PauseMS:     1500,
		},
	}
}

// GlobalPath returns ~/.config/freeterm/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "freeterm", "config.json"), nil
}

// ProjectFile is the per-directory config file name.
const ProjectFile = ".freeterm.json"

// LoadGlobal reads ~/.config/freeterm/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .freeterm.json in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// SaveGlobal writes cfg to ~/.config/freeterm/config.json, creating the
// config directory if needed. A running Watch on that path sees the write.
func SaveGlobal(cfg *Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// UpdateGlobal loads the global file (defaults if absent), lets fn change it
// and saves the result.
func UpdateGlobal(fn func(*Config)) (*Config, error) {
	cfg, err := LoadGlobal()
	if err != nil {
		return nil, err
	}
	fn(cfg)
	if err := SaveGlobal(cfg); err != nil {
		return nil, fmt.Errorf("saving global config: %w", err)
	}
	return cfg, nil
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	overlay(&result, global)
	overlay(&result, project)
	return result
}

// overlay copies every set field of src onto dst.
func overlay(dst, src *Config) {
	if src == nil {
		return
	}
	setString(&dst.Prompt, src.Prompt)
	setString(&dst.Foreground, src.Foreground)
	setString(&dst.Background, src.Background)
	setString(&dst.LogFile, src.LogFile)
	setString(&dst.LogLevel, src.LogLevel)
	setInt(&dst.Alarm.BeepGapMS, src.Alarm.BeepGapMS)
	setInt(&dst.Alarm.BlinkHalfMS, src.Alarm.BlinkHalfMS)
	setInt(&dst.Alarm.PauseMS, src.Alarm.PauseMS)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
