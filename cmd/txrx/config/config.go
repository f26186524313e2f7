package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AcousticTxRx/internel/logging"
	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/history"
	"AcousticTxRx/pkg/modem"
	"AcousticTxRx/pkg/session"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration of txrx. Flags bind directly to its fields.
type Config struct {
	Backend      string
	DeviceName   string
	SampleRate   float64
	BufferSize   int
	Noise        float64
	CaptureDepth int

	SymbolDuration time.Duration
	Freq0          float64
	Freq1          float64
	Power          float64
	Threshold      float64
	Ratio          float64
	MaxPayload     int
	Hop            int

	ReceiveTimeout time.Duration

	HistoryDir string
	NoHistory  bool

	LogLevel string
	LogFile  string
	LogJSON  bool
}

func Default() Config {
	m := modem.DefaultConfig()
	return Config{
		Backend:        "portaudio",
		SampleRate:     m.SampleRate,
		BufferSize:     device.BufferSize,
		CaptureDepth:   256,
		SymbolDuration: m.SymbolDuration,
		Freq0:          m.Freqs[0],
		Freq1:          m.Freqs[1],
		Power:          m.Power,
		Threshold:      m.Threshold,
		Ratio:          m.Ratio,
		MaxPayload:     m.MaxPayload,
		ReceiveTimeout: session.DefaultReceiveTimeout,
		HistoryDir:     DefaultHistoryDir(),
		LogLevel:       "info",
	}
}

func DefaultHistoryDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".txrx", "history")
	}
	return "history"
}

// fileConfig mirrors Config as it is written in a file. Durations are strings.
type fileConfig struct {
	Device struct {
		Backend      string  `yaml:"backend" toml:"backend"`
		DeviceName   string  `yaml:"device_name" toml:"device_name"`
		SampleRate   float64 `yaml:"sample_rate" toml:"sample_rate"`
		BufferSize   int     `yaml:"buffer_size" toml:"buffer_size"`
		Noise        float64 `yaml:"noise" toml:"noise"`
		CaptureDepth int     `yaml:"capture_depth" toml:"capture_depth"`
	} `yaml:"device" toml:"device"`

	Modem struct {
		SymbolDuration string  `yaml:"symbol_duration" toml:"symbol_duration"`
		Freq0          float64 `yaml:"freq0" toml:"freq0"`
		Freq1          float64 `yaml:"freq1" toml:"freq1"`
		Power          float64 `yaml:"power" toml:"power"`
		Threshold      float64 `yaml:"threshold" toml:"threshold"`
		Ratio          float64 `yaml:"ratio" toml:"ratio"`
		MaxPayload     int     `yaml:"max_payload" toml:"max_payload"`
		Hop            int     `yaml:"hop" toml:"hop"`
	} `yaml:"modem" toml:"modem"`

	Receive struct {
		Timeout string `yaml:"timeout" toml:"timeout"`
	} `yaml:"receive" toml:"receive"`

	History struct {
		Dir      string `yaml:"dir" toml:"dir"`
		Disabled *bool  `yaml:"disabled" toml:"disabled"`
	} `yaml:"history" toml:"history"`

	Log struct {
		Level string `yaml:"level" toml:"level"`
		File  string `yaml:"file" toml:"file"`
		JSON  *bool  `yaml:"json" toml:"json"`
	} `yaml:"log" toml:"log"`
}

// LoadConfig reads filename as TOML when it ends in .toml, YAML otherwise, and applies
// it to cfg. Fields whose flag is in changed keep their flag value.
func LoadConfig(filename string, cfg *Config, changed map[string]bool) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = yaml.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return applyFileConfig(cfg, fc, changed)
}

func applyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	s := configSetter{changed: changed}

	s.setString("backend", fc.Device.Backend, &cfg.Backend)
	s.setString("device", fc.Device.DeviceName, &cfg.DeviceName)
	s.setFloat("sample-rate", fc.Device.SampleRate, &cfg.SampleRate)
	s.setInt("buffer-size", fc.Device.BufferSize, &cfg.BufferSize)
	s.setFloat("noise", fc.Device.Noise, &cfg.Noise)
	s.setInt("capture-depth", fc.Device.CaptureDepth, &cfg.CaptureDepth)

	if err := s.setDuration("symbol", fc.Modem.SymbolDuration, &cfg.SymbolDuration); err != nil {
		return err
	}
	s.setFloat("freq0", fc.Modem.Freq0, &cfg.Freq0)
	s.setFloat("freq1", fc.Modem.Freq1, &cfg.Freq1)
	s.setFloat("power", fc.Modem.Power, &cfg.Power)
	s.setFloat("threshold", fc.Modem.Threshold, &cfg.Threshold)
	s.setFloat("ratio", fc.Modem.Ratio, &cfg.Ratio)
	s.setInt("max-payload", fc.Modem.MaxPayload, &cfg.MaxPayload)
	s.setInt("hop", fc.Modem.Hop, &cfg.Hop)

	if err := s.setDuration("timeout", fc.Receive.Timeout, &cfg.ReceiveTimeout); err != nil {
		return err
	}

	s.setString("history-dir", fc.History.Dir, &cfg.HistoryDir)
	s.setBool("no-history", fc.History.Disabled, &cfg.NoHistory)

	s.setString("log-level", fc.Log.Level, &cfg.LogLevel)
	s.setString("log-file", fc.Log.File, &cfg.LogFile)
	s.setBool("log-json", fc.Log.JSON, &cfg.LogJSON)
	return nil
}

type configSetter struct {
	changed map[string]bool
}

func (s configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (c *Config) Modem() (modem.Config, error) {
	m := modem.Config{
		SampleRate:     c.SampleRate,
		SymbolDuration: c.SymbolDuration,
		Freqs:          [2]float64{c.Freq0, c.Freq1},
		Power:          c.Power,
		Threshold:      c.Threshold,
		Ratio:          c.Ratio,
		MaxPayload:     c.MaxPayload,
	}
	return m, m.Validate()
}

func (c *Config) Logging() logging.Options {
	return logging.Options{
		Level:      c.LogLevel,
		File:       c.LogFile,
		JSON:       c.LogJSON,
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

func CreateDevice(cfg *Config) (device.Device, error) {
	return device.New(cfg.Backend, device.Options{
		DeviceName: cfg.DeviceName,
		SampleRate: cfg.SampleRate,
		BufferSize: cfg.BufferSize,
		Noise:      cfg.Noise,
	})
}

func CreateDuplex(cfg *Config, logger zerolog.Logger) (*device.Duplex, error) {
	dev, err := CreateDevice(cfg)
	if err != nil {
		return nil, err
	}
	return &device.Duplex{
		Device: dev,
		Depth:  cfg.CaptureDepth,
		Logger: logger.With().Str("component", "Device").Logger(),
	}, nil
}

// CreateHistory opens the outcome log, or returns nil when it is disabled.
func CreateHistory(cfg *Config, logger zerolog.Logger) (*history.Store, error) {
	if cfg.NoHistory {
		return nil, nil
	}
	return history.Open(history.Config{Dir: cfg.HistoryDir}, logger.With().Str("component", "History").Logger())
}

func CreateController(cfg *Config, out device.Output, in device.Capture, sink session.Sink, logger zerolog.Logger) (*session.Controller, error) {
	m, err := cfg.Modem()
	if err != nil {
		return nil, err
	}
	c, err := session.New(m, out, in, sink, logger)
	if err != nil {
		return nil, err
	}
	c.Listener.Hop = cfg.Hop
	return c, nil
}
