package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"clive/internal/clips"
	"clive/internal/config"
	"clive/internal/logging"
	"clive/internal/media/ffprobe"
	"clive/internal/runlog"
	"clive/internal/services"
	"clive/internal/services/whispercli"
	"clive/internal/stage"
	"clive/internal/stagecache"
	"clive/internal/transcript"
)

// ModelProvider ensures a whisper model is present on disk.
type ModelProvider interface {
	Ensure(ctx context.Context, model, destination string) error
}

// Extractor produces whisper-ready WAV files from source audio tracks.
type Extractor interface {
	ExtractTrack(ctx context.Context, source string, track int, destination string) error
}

// Transcriber converts extracted audio into transcript tokens.
type Transcriber interface {
	Transcribe(ctx context.Context, req whispercli.Request) ([]transcript.Token, error)
}

// Cutter materializes one clip interval from the source file.
type Cutter interface {
	Cut(ctx context.Context, source string, start, end float64, destination string) error
}

// ProbeFunc inspects a media container.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Pipeline wires the stages together around one configuration.
type Pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *runlog.Store
	cache       *stagecache.Manager
	models      ModelProvider
	extractor   Extractor
	transcriber Transcriber
	cutter      Cutter
	probe       ProbeFunc
}

// Option customizes pipeline wiring, primarily for tests.
type Option func(*Pipeline)

// WithModelProvider overrides the model acquisition service.
func WithModelProvider(p ModelProvider) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.models = p
		}
	}
}

// WithExtractor overrides the audio extraction service.
func WithExtractor(e Extractor) Option {
	return func(pl *Pipeline) {
		if e != nil {
			pl.extractor = e
		}
	}
}

// WithTranscriber overrides the transcription service.
func WithTranscriber(t Transcriber) Option {
	return func(pl *Pipeline) {
		if t != nil {
			pl.transcriber = t
		}
	}
}

// WithCutter overrides the clip cutting service.
func WithCutter(c Cutter) Option {
	return func(pl *Pipeline) {
		if c != nil {
			pl.cutter = c
		}
	}
}

// WithProbe overrides container inspection.
func WithProbe(p ProbeFunc) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.probe = p
		}
	}
}

// New constructs a pipeline. Callers wire the default services in cmd; tests
// inject fakes through options.
func New(cfg *config.Config, logger *slog.Logger, store *runlog.Store, cache *stagecache.Manager, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: run store is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("pipeline: stage cache is required")
	}
	logger = logging.NewComponentLogger(logger, "pipeline")
	pl := &Pipeline{
		cfg:    cfg,
		logger: logger,
		store:  store,
		cache:  cache,
		probe:  ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(pl)
	}
	if pl.models == nil || pl.extractor == nil || pl.transcriber == nil || pl.cutter == nil {
		return nil, fmt.Errorf("pipeline: model, extractor, transcriber, and cutter services are required")
	}
	return pl, nil
}

func (p *Pipeline) parallelism() int {
	if p.cfg.Workflow.Parallelism > 0 {
		return p.cfg.Workflow.Parallelism
	}
	return runtime.NumCPU()
}

// stageTimeout converts a configured timeout in seconds into a context
// deadline. Zero disables the deadline.
func stageTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}

// rules resolves the configured keyword rules with [clips] defaults applied.
func (p *Pipeline) rules() ([]clips.Rule, error) {
	raw := make([]clips.Rule, 0, len(p.cfg.Keywords))
	for _, keyword := range p.cfg.Keywords {
		resolved := p.cfg.Rule(keyword)
		raw = append(raw, clips.Rule{
			Keyword: resolved.Keyword,
			Lead:    resolved.LeadSeconds,
			Trail:   resolved.TrailSeconds,
		})
	}
	normalized, err := clips.NormalizeRules(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "derive", "normalize rules", "", err)
	}
	if len(normalized) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "derive", "normalize rules",
			"At least one keyword is required", nil)
	}
	return normalized, nil
}

var _ stage.Handler = (*modelStage)(nil)
