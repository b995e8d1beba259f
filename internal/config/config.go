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
	CacheDir  string `toml:"cache_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Model contains speech-to-text model selection.
type Model struct {
	// Name selects the whisper model (tiny, base, small, medium, large,
	// plus .en variants).
	Name string `toml:"name"`
	// Language passed to the transcriber (ISO 639-1).
	Language string `toml:"language"`
	// Binary is the whisper.cpp executable name or path.
	Binary string `toml:"binary"`
}

// Tracks selects which audio tracks to process (1-based indexing).
type Tracks struct {
	AudioTracks []int `toml:"audio_tracks"`
}

// Keyword configures one keyword rule. Lead and trail fall back to the
// [clips] defaults when zero.
type Keyword struct {
	Keyword      string  `toml:"keyword"`
	LeadSeconds  float64 `toml:"lead_seconds"`
	TrailSeconds float64 `toml:"trail_seconds"`
}

// Clips contains window derivation defaults.
type Clips struct {
	LeadSeconds  float64 `toml:"lead_seconds"`
	TrailSeconds float64 `toml:"trail_seconds"`
	// MergeGapSeconds merges clips whose gap is at most this value. Zero
	// means only true overlaps and exact adjacency merge.
	MergeGapSeconds float64 `toml:"merge_gap_seconds"`
}

// Workflow contains parallelism and subprocess timeout settings.
type Workflow struct {
	// Parallelism bounds concurrent extraction and cutting subprocesses.
	// Zero means the number of available CPUs.
	Parallelism        int `toml:"parallelism"`
	ExtractTimeout     int `toml:"extract_timeout"`
	TranscribeTimeout  int `toml:"transcribe_timeout"`
	CutTimeout         int `toml:"cut_timeout"`
	DownloadTimeout    int `toml:"download_timeout"`
	DownloadRetries    int `toml:"download_retries"`
	DownloadBackoffSec int `toml:"download_backoff"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clive.
type Config struct {
	Paths    Paths     `toml:"paths"`
	Model    Model     `toml:"model"`
	Tracks   Tracks    `toml:"tracks"`
	Keywords []Keyword `toml:"keyword"`
	Clips    Clips     `toml:"clips"`
	Workflow Workflow  `toml:"workflow"`
	Logging  Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clive/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. The
// returned config has all path fields expanded.
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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clive.toml")
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

// EnsureDirectories creates the directories clive writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
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

// Rule resolves the effective lead/trail for a configured keyword, applying
// the [clips] defaults when the keyword carries no override.
func (c *Config) Rule(k Keyword) Keyword {
	if k.LeadSeconds == 0 {
		k.LeadSeconds = c.Clips.LeadSeconds
	}
	if k.TrailSeconds == 0 {
		k.TrailSeconds = c.Clips.TrailSeconds
	}
	return k
}
