package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// Tools names the external executables the pipeline drives.
type Tools struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	WhisperBinary string `toml:"whisper_binary"`
}

// Transcription contains speech-to-text settings passed to whisper.
type Transcription struct {
	// Language is a whisper language name ("French") or ISO code ("fr").
	// Empty or "auto" lets whisper detect the spoken language.
	Language string `toml:"language"`
	Task     string `toml:"task"`
	Model    string `toml:"model"`
	// OutputDir is where whisper writes its artifacts. Empty keeps whisper's
	// default of the current working directory.
	OutputDir string `toml:"output_dir"`
}

// Burn contains encoder settings for the subtitle burn stage.
type Burn struct {
	VideoCodec string `toml:"video_codec"`
	AudioCodec string `toml:"audio_codec"`
}

// Cleanup controls removal of intermediate artifacts after a successful burn.
type Cleanup struct {
	Enabled    bool     `toml:"enabled"`
	Extensions []string `toml:"extensions"`
}

// Run contains per-run execution settings.
type Run struct {
	Quiet              bool `toml:"quiet"`
	StepTimeoutSeconds int  `toml:"step_timeout_seconds"`
}

// History controls the SQLite run history.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Events configures run status publishing to NATS.
type Events struct {
	NATSURL       string `toml:"nats_url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// Telemetry configures OpenTelemetry tracing of pipeline stages.
type Telemetry struct {
	Enabled      bool   `toml:"enabled"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subburn.
//
// Configuration sections by subsystem:
//   - Paths: state directory (history database, locks, logs, traces)
//   - Tools: ffmpeg and whisper executables
//   - Transcription: whisper language, task, model, output directory
//   - Burn: video/audio codecs for the burned output
//   - Cleanup: intermediate artifact removal
//   - Run: quiet mode and per-step timeout
//   - History: SQLite run history
//   - Events: NATS status events
//   - Telemetry: OpenTelemetry tracing
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Transcription Transcription `toml:"transcription"`
	Burn          Burn          `toml:"burn"`
	Cleanup       Cleanup       `toml:"cleanup"`
	Run           Run           `toml:"run"`
	History       History       `toml:"history"`
	Events        Events        `toml:"events"`
	Telemetry     Telemetry     `toml:"telemetry"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subburn.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory tree used for history, locks,
// logs, and traces.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LogDir(), c.LockDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir returns the directory that receives the persistent log file.
func (c *Config) LogDir() string {
	return filepath.Join(c.Paths.StateDir, "logs")
}

// LockDir returns the directory holding per-input run locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// HistoryPath returns the SQLite history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// TracePath returns the file the stdout trace exporter appends to.
func (c *Config) TracePath() string {
	return filepath.Join(c.Paths.StateDir, "traces.jsonl")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subburn")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/subburn"
	}
	return filepath.Join(home, ".local", "state", "subburn")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	encoder := toml.NewEncoder(&b)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}
