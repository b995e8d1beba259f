package pipeline

import (
	"context"
	"fmt"

	"clive/internal/logging"
	"clive/internal/runlog"
	"clive/internal/services"
	"clive/internal/stage"
	"clive/internal/stagecache"
)

// RunOptions tunes one pipeline invocation.
type RunOptions struct {
	// NoCleanup keeps derived cache artifacts after the run. By default the
	// cache keeps only models; audio, transcripts, and manifests are
	// removed once the clips are on disk.
	NoCleanup bool
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Outputs  []string
	Failures []ClipFailure
	Clips    int
}

// Partial reports whether some, but not all, clips were produced.
func (r Result) Partial() bool {
	return len(r.Failures) > 0 && len(r.Outputs) > 0
}

type stagePlan struct {
	name       string
	processing runlog.Status
	done       runlog.Status
	handler    stage.Handler
}

// Execute runs the full pipeline for one input file.
func (p *Pipeline) Execute(ctx context.Context, input string, opts RunOptions) (Result, error) {
	rules, err := p.rules()
	if err != nil {
		return Result{}, err
	}
	sourceFP, err := stagecache.SourceFingerprint(input)
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "run", "fingerprint input", "", err)
	}

	state := &runState{
		source:   input,
		sourceFP: sourceFP,
		tracks:   p.cfg.Tracks.AudioTracks,
		rules:    rules,
	}

	run, err := p.store.NewRun(ctx, input, p.cfg.Model.Name)
	if err != nil {
		return Result{}, fmt.Errorf("record run: %w", err)
	}
	logger := p.logger.With(logging.String(logging.FieldRunID, run.RunID))
	logger.InfoContext(ctx, "run started",
		logging.String("source", input),
		logging.String("model", p.cfg.Model.Name),
		logging.Int("keywords", len(rules)))

	plans := []stagePlan{
		{"fetch_model", runlog.StatusFetchingModel, runlog.StatusModelReady, &modelStage{p: p, state: state}},
		{"extract", runlog.StatusExtracting, runlog.StatusAudioExtracted, &extractStage{p: p, state: state}},
		{"transcribe", runlog.StatusTranscribing, runlog.StatusTranscribed, &transcribeStage{p: p, state: state}},
		{"derive", runlog.StatusDeriving, runlog.StatusWindowsMerged, &deriveStage{p: p, state: state}},
		{"cut", runlog.StatusCutting, runlog.StatusClipsMaterialized, &cutStage{p: p, state: state}},
	}
	for _, plan := range plans {
		err := stage.Run(ctx, stage.Options{
			Logger:     logger,
			Store:      p.store,
			Handler:    plan.handler,
			StageName:  plan.name,
			Processing: plan.processing,
			Done:       plan.done,
			Run:        run,
		})
		if err != nil {
			return Result{RunID: run.RunID}, err
		}
	}

	result := Result{
		RunID:    run.RunID,
		Outputs:  state.outputs,
		Failures: state.failures,
		Clips:    len(state.manifest.Clips),
	}

	run.SetStage(runlog.StatusCompleted,
		fmt.Sprintf("%d of %d clips produced", len(result.Outputs), result.Clips))
	if err := p.store.Update(ctx, run); err != nil {
		logger.WarnContext(ctx, "failed to persist completion", logging.Error(err))
	}

	manifest := stagecache.RunManifest{
		RunID:        run.RunID,
		Source:       input,
		SourceFP:     state.sourceFP,
		AudioFP:      state.audioFP,
		TranscriptFP: state.transcriptFP,
		ManifestFP:   state.manifestFP,
		Tracks:       state.tracks,
		Model:        p.cfg.Model.Name,
	}
	if err := p.cache.WriteRunManifest(manifest); err != nil {
		logger.WarnContext(ctx, "failed to write run manifest", logging.Error(err))
	}

	if !opts.NoCleanup {
		// Only this run's artifacts go; concurrent runs over other inputs
		// keep theirs.
		if err := p.cache.PurgeRun(manifest); err != nil {
			logger.WarnContext(ctx, "cache cleanup incomplete", logging.Error(err))
		}
	}

	logger.InfoContext(ctx, "run finished",
		logging.Int("clips", result.Clips),
		logging.Int("produced", len(result.Outputs)),
		logging.Int("failed", len(result.Failures)))
	return result, nil
}

// HealthChecks reports stage readiness for `clive status`.
func (p *Pipeline) HealthChecks(ctx context.Context) []stage.Health {
	state := &runState{}
	handlers := []stage.Handler{
		&modelStage{p: p, state: state},
		&extractStage{p: p, state: state},
		&transcribeStage{p: p, state: state},
		&deriveStage{p: p, state: state},
		&cutStage{p: p, state: state},
	}
	checks := make([]stage.Health, 0, len(handlers))
	for _, handler := range handlers {
		checks = append(checks, handler.HealthCheck(ctx))
	}
	return checks
}
