// Package config loads the demo's settings from defaults, an optional YAML
// file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile = "EMA_LINK_CONFIG_FILE"
	EnvServerURL  = "EMA_LINK_SERVER_URL"
	EnvAPIKey     = "EMA_LINK_API_KEY"
	EnvDeviceID   = "EMA_LINK_DEVICE_ID"
	EnvOutput     = "EMA_LINK_OUTPUT"
	EnvWorkMode   = "EMA_LINK_WORK_MODE"
	EnvRecordDir  = "EMA_LINK_RECORD_DIR"
	EnvDebug      = "EMA_LINK_DEBUG"

	defaultConfigFileName = "ema-link.yaml"
)

const (
	OutputMiniaudio = "miniaudio"
	OutputPortaudio = "portaudio"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ServerURL string `yaml:"server_url"`
	APIKey    string `yaml:"api_key"`
	DeviceID  string `yaml:"device_id"`
	// Output selects the audio backend, miniaudio or portaudio.
	Output   string `yaml:"output"`
	WorkMode string `yaml:"work_mode"`
	// RecordDir receives a WAV copy of every upload. Empty disables it.
	RecordDir string `yaml:"record_dir"`
	Debug     bool   `yaml:"debug"`

	Player PlayerConfig `yaml:"player"`
	// Alerts maps alert names to mp3 files.
	Alerts map[string]string `yaml:"alerts"`
}

type PlayerConfig struct {
	BufferSize   int           `yaml:"buffer_size"`
	StallTimeout time.Duration `yaml:"stall_timeout"`
	// FramesPerBuffer is only used by the portaudio output.
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

func Default() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Output:    OutputMiniaudio,
		WorkMode:  "manual_single_talk",
		Player: PlayerConfig{
			BufferSize:      128 * 1024,
			StallTimeout:    5 * time.Second,
			FramesPerBuffer: 576,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// EMA_LINK_CONFIG_FILE or ./ema-link.yaml is used when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	fileCfg, err := loadFile(resolvePath(path))
	if err != nil {
		return Config{}, err
	}
	if err := copier.CopyWithOption(&cfg, &fileCfg, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return Config{}, fmt.Errorf("failed to merge config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolvePath(path string) string {
	if path != "" {
		return path
	}
	if fromEnv := os.Getenv(EnvConfigFile); fromEnv != "" {
		return fromEnv
	}
	if _, err := os.Stat(defaultConfigFileName); err == nil {
		return defaultConfigFileName
	}
	return ""
}

func loadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	for env, field := range map[string]*string{
		EnvServerURL: &cfg.ServerURL,
		EnvAPIKey:    &cfg.APIKey,
		EnvDeviceID:  &cfg.DeviceID,
		EnvOutput:    &cfg.Output,
		EnvWorkMode:  &cfg.WorkMode,
		EnvRecordDir: &cfg.RecordDir,
	} {
		if value, ok := os.LookupEnv(env); ok && value != "" {
			*field = value
		}
	}

	if value, ok := os.LookupEnv(EnvDebug); ok && value != "" {
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvDebug, err)
		}
		cfg.Debug = debug
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: server_url %q must be an http(s) url", ErrInvalidConfig, c.ServerURL))
	}
	if c.Output != OutputMiniaudio && c.Output != OutputPortaudio {
		errs = append(errs, fmt.Errorf("%w: unknown output %q", ErrInvalidConfig, c.Output))
	}
	if c.Player.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: player.buffer_size must be positive", ErrInvalidConfig))
	}
	if c.Player.StallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: player.stall_timeout must be positive", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
