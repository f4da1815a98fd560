package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/hasensors/internal/hass"
	"github.com/luki/hasensors/internal/sensor"
)

const sampleYAML = `
title: Upstairs
host: 192.168.1.10/
port: 8123
https: true
token: abc
updateInterval: 60000
prettyName: false
rejectUnauthorized: false
values:
  - sensor: sensor.living_room_temperature
    name: Living Room
    precision: 1
    alertThreshold: 26
    icons:
      default: thermometer
  - sensor: binary_sensor.front_door
    icons:
      state_open: door-open
      state_closed: door-closed
`

func TestParseMergesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "Upstairs", cfg.Title)
	assert.Equal(t, "8123", cfg.Port, "numeric port is read as text")
	assert.True(t, cfg.HTTPS)
	assert.False(t, cfg.PrettyName)
	assert.True(t, cfg.StripName, "default kept")
	assert.True(t, cfg.ShowUnit, "default kept")
	assert.True(t, cfg.DisplaySymbol, "default kept")
	assert.False(t, cfg.DebugLogging)
	assert.Equal(t, time.Minute, cfg.Interval())
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	require.Len(t, cfg.Values, 2)
	assert.Equal(t, sensor.NewNumber(1), cfg.Values[0].Precision)

	ep := cfg.Endpoint()
	assert.Equal(t, "https://192.168.1.10:8123/api/states", ep.URL())
	require.NotNil(t, ep.RejectUnauthorized)
	assert.False(t, *ep.RejectUnauthorized)

	assert.Equal(t, sensor.DisplaySettings{StripName: true, ShowUnit: true, DisplaySymbol: true}, cfg.Settings())
	assert.Equal(t, map[string]sensor.Number{"sensor.living_room_temperature": sensor.NewNumber(26)}, cfg.Thresholds())
}

func TestEmptyDocumentIsDefault(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 5*time.Minute, cfg.Interval())
	assert.Nil(t, cfg.Endpoint().RejectUnauthorized)
}

func TestNonPositiveIntervalsFallBack(t *testing.T) {
	cfg, err := Parse([]byte("updateInterval: 0\ntimeout: -5\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Interval())
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
}

func TestValidateToken(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, hass.ErrMissingToken))

	cfg.Token = "   "
	assert.Error(t, cfg.Validate())

	cfg.Token = "abc"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")
	cfg := Default()
	cfg.Token = "from-file"
	cfg.ApplyEnv()
	assert.Equal(t, "from-env", cfg.Token)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Token)

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"token": "j", "port": "443", "values": [{"sensor": "sensor.a", "precision": 2}]}`), 0644))
	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "j", cfg.Token)
	assert.Equal(t, "443", cfg.Port)
	assert.Equal(t, sensor.NewNumber(2), cfg.Values[0].Precision)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("values: [unclosed"), 0644))
	_, err = Load(badPath)
	assert.Error(t, err)
}
