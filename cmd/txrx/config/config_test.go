package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"AcousticTxRx/pkg/device"
	"AcousticTxRx/pkg/modem"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yml", `
device:
  backend: loopback
  sample_rate: 48000
  noise: 0.05
modem:
  symbol_duration: 20ms
  freq0: 1500
  freq1: 2500
  max_payload: 256
receive:
  timeout: 15s
history:
  disabled: true
log:
  level: debug
`)
	cfg := Default()
	require.NoError(t, LoadConfig(path, &cfg, nil))

	assert.Equal(t, "loopback", cfg.Backend)
	assert.Equal(t, 48000.0, cfg.SampleRate)
	assert.Equal(t, 0.05, cfg.Noise)
	assert.Equal(t, 20*time.Millisecond, cfg.SymbolDuration)
	assert.Equal(t, 1500.0, cfg.Freq0)
	assert.Equal(t, 2500.0, cfg.Freq1)
	assert.Equal(t, 256, cfg.MaxPayload)
	assert.Equal(t, 15*time.Second, cfg.ReceiveTimeout)
	assert.True(t, cfg.NoHistory)
	assert.Equal(t, "debug", cfg.LogLevel)

	// untouched keys keep their defaults
	assert.Equal(t, 0.02, cfg.Threshold)
	assert.Equal(t, device.BufferSize, cfg.BufferSize)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[device]
backend = "loopback"
buffer_size = 1024

[modem]
symbol_duration = "50ms"
ratio = 3.0

[log]
json = true
`)
	cfg := Default()
	require.NoError(t, LoadConfig(path, &cfg, nil))

	assert.Equal(t, "loopback", cfg.Backend)
	assert.Equal(t, 1024, cfg.BufferSize)
	assert.Equal(t, 50*time.Millisecond, cfg.SymbolDuration)
	assert.Equal(t, 3.0, cfg.Ratio)
	assert.True(t, cfg.LogJSON)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "config.yml", `
device:
  backend: loopback
modem:
  symbol_duration: 20ms
receive:
  timeout: 15s
`)
	cfg := Default()
	cfg.Backend = "portaudio"
	cfg.ReceiveTimeout = 5 * time.Second
	changed := map[string]bool{"backend": true, "timeout": true}
	require.NoError(t, LoadConfig(path, &cfg, changed))

	assert.Equal(t, "portaudio", cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.ReceiveTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.SymbolDuration)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeFile(t, "config.yml", "modem:\n  symbol_duration: soon\n")
	cfg := Default()
	assert.Error(t, LoadConfig(path, &cfg, nil))
}

func TestLoadMissingFile(t *testing.T) {
	cfg := Default()
	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "absent.yml"), &cfg, nil))
}

func TestDefaultModem(t *testing.T) {
	cfg := Default()
	m, err := cfg.Modem()
	require.NoError(t, err)
	assert.Equal(t, modem.DefaultConfig(), m)

	cfg.Freq1 = cfg.Freq0
	_, err = cfg.Modem()
	assert.ErrorIs(t, err, modem.ErrInvalidConfig)
}

func TestCreateController(t *testing.T) {
	cfg := Default()
	cfg.Backend = "loopback"
	cfg.Hop = 100

	d, err := CreateDuplex(&cfg, zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	c, err := CreateController(&cfg, d, d, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 100, c.Listener.Hop)
	assert.False(t, c.Busy())

	cfg.Backend = "tin-can"
	_, err = CreateDuplex(&cfg, zerolog.Nop())
	assert.ErrorIs(t, err, device.ErrUnknownBackend)
}

func TestCreateHistoryDisabled(t *testing.T) {
	cfg := Default()
	cfg.NoHistory = true
	s, err := CreateHistory(&cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.NoHistory = false
	cfg.HistoryDir = t.TempDir()
	s, err = CreateHistory(&cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())
}
