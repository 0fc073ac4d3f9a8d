package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ema-link.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, env := range []string{EnvConfigFile, EnvServerURL, EnvAPIKey, EnvDeviceID, EnvOutput, EnvWorkMode, EnvRecordDir, EnvDebug} {
		t.Setenv(env, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}
	if cfg.Output != OutputMiniaudio || cfg.Player.BufferSize != 128*1024 || cfg.Player.StallTimeout != 5*time.Second {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileKeepsDefaultsForMissingFields(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server_url: https://agent.example.com
output: portaudio
player:
  stall_timeout: 2s
alerts:
  network_connected: sounds/connected.mp3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.ServerURL != "https://agent.example.com" {
		t.Fatalf("expected server url from file, got %q", cfg.ServerURL)
	}
	if cfg.Output != OutputPortaudio {
		t.Fatalf("expected portaudio output, got %q", cfg.Output)
	}
	if cfg.Player.StallTimeout != 2*time.Second {
		t.Fatalf("expected stall timeout 2s, got %s", cfg.Player.StallTimeout)
	}
	if cfg.Player.BufferSize != 128*1024 {
		t.Fatalf("expected default buffer size to survive, got %d", cfg.Player.BufferSize)
	}
	if cfg.WorkMode != "manual_single_talk" {
		t.Fatalf("expected default work mode to survive, got %q", cfg.WorkMode)
	}
	if cfg.Alerts["network_connected"] != "sounds/connected.mp3" {
		t.Fatalf("expected alert sound from file, got %v", cfg.Alerts)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_key: from-file\n")
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvDebug, "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Fatalf("expected api key from env, got %q", cfg.APIKey)
	}
	if !cfg.Debug {
		t.Fatalf("expected debug from env")
	}
}

func TestConfigFileFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, writeConfig(t, "device_id: dev-1\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.DeviceID != "dev-1" {
		t.Fatalf("expected device id from file, got %q", cfg.DeviceID)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)

	if _, err := Load(writeConfig(t, "output: speakers\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown output, got %v", err)
	}
	if _, err := Load(writeConfig(t, "server_url: ftp://x\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad url, got %v", err)
	}
	if _, err := Load(writeConfig(t, "player: [")); err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected a missing explicit file to fail")
	}
	t.Setenv(EnvDebug, "maybe")
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad debug flag, got %v", err)
	}
}
