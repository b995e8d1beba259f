package config

const (
	defaultCacheDir           = "~/.cache/clive"
	defaultOutputDir          = "output"
	defaultLogDir             = "~/.local/share/clive/logs"
	defaultModelName          = "base"
	defaultModelLanguage      = "en"
	defaultWhisperBinary      = "whisper-cli"
	defaultLeadSeconds        = 30
	defaultTrailSeconds       = 30
	defaultExtractTimeout     = 300
	defaultTranscribeTimeout  = 3600
	defaultCutTimeout         = 300
	defaultDownloadTimeout    = 600
	defaultDownloadRetries    = 3
	defaultDownloadBackoffSec = 2
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultCacheDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Model: Model{
			Name:     defaultModelName,
			Language: defaultModelLanguage,
			Binary:   defaultWhisperBinary,
		},
		Tracks: Tracks{
			AudioTracks: []int{1},
		},
		Clips: Clips{
			LeadSeconds:  defaultLeadSeconds,
			TrailSeconds: defaultTrailSeconds,
		},
		Workflow: Workflow{
			ExtractTimeout:     defaultExtractTimeout,
			TranscribeTimeout:  defaultTranscribeTimeout,
			CutTimeout:         defaultCutTimeout,
			DownloadTimeout:    defaultDownloadTimeout,
			DownloadRetries:    defaultDownloadRetries,
			DownloadBackoffSec: defaultDownloadBackoffSec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
