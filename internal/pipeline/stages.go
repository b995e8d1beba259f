package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"clive/internal/clips"
	"clive/internal/logging"
	"clive/internal/runlog"
	"clive/internal/services"
	"clive/internal/services/whispercli"
	"clive/internal/stage"
	"clive/internal/stagecache"
	"clive/internal/transcript"
)

// runState carries artifacts between stages of one run.
type runState struct {
	source       string
	sourceFP     string
	audioFP      string
	transcriptFP string
	manifestFP   string
	duration     float64
	tracks       []int
	rules        []clips.Rule
	audioPaths   map[int]string
	tokens       []transcript.Token
	manifest     clips.Manifest

	mu       sync.Mutex
	outputs  []string
	failures []ClipFailure
}

// ClipFailure records one clip that could not be materialized.
type ClipFailure struct {
	Index int
	Name  string
	Err   error
}

// modelStage downloads the configured whisper model if absent.
type modelStage struct {
	p     *Pipeline
	state *runState
}

func (s *modelStage) Prepare(context.Context, *runlog.Run) error { return nil }

func (s *modelStage) Execute(ctx context.Context, run *runlog.Run) error {
	ctx, cancel := stageTimeout(ctx, s.p.cfg.Workflow.DownloadTimeout)
	defer cancel()
	return s.p.models.Ensure(ctx, s.p.cfg.Model.Name, s.p.cache.ModelPath(s.p.cfg.Model.Name))
}

func (s *modelStage) HealthCheck(ctx context.Context) stage.Health {
	if err := os.MkdirAll(filepath.Dir(s.p.cache.ModelPath(s.p.cfg.Model.Name)), 0o755); err != nil {
		return stage.Unhealthy("fetch_model", err.Error())
	}
	return stage.Healthy("fetch_model")
}

// extractStage produces one WAV per selected track, in parallel.
type extractStage struct {
	p     *Pipeline
	state *runState
}

func (s *extractStage) Prepare(ctx context.Context, run *runlog.Run) error {
	result, err := s.p.probe(ctx, s.p.cfg.FFprobeBinary(), s.state.source)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "probe container", "", err)
	}
	if err := result.ValidateTracks(s.state.tracks); err != nil {
		return services.Wrap(services.ErrConfiguration, "extract", "validate tracks", "", err)
	}
	s.state.duration = result.DurationSeconds()
	s.state.audioFP = stagecache.AudioFingerprint(s.state.sourceFP, s.state.tracks)
	return nil
}

func (s *extractStage) Execute(ctx context.Context, run *runlog.Run) error {
	s.state.audioPaths = make(map[int]string, len(s.state.tracks))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.p.parallelism())
	var mu sync.Mutex
	for _, track := range s.state.tracks {
		group.Go(func() error {
			destination := s.p.cache.AudioPath(s.state.audioFP, track)
			if s.p.cache.Resolve(destination) {
				s.p.logger.InfoContext(groupCtx, "audio cache hit",
					logging.Int(logging.FieldTrack, track),
					logging.String(logging.FieldFingerprint, stagecache.ShortFingerprint(s.state.audioFP)))
			} else {
				tmp, err := s.p.cache.TempPath(destination)
				if err != nil {
					return err
				}
				trackCtx, cancel := stageTimeout(groupCtx, s.p.cfg.Workflow.ExtractTimeout)
				err = s.p.extractor.ExtractTrack(trackCtx, s.state.source, track, tmp)
				cancel()
				if err != nil {
					_ = os.Remove(tmp)
					return err
				}
				if err := s.p.cache.CommitFile(tmp, destination); err != nil {
					return err
				}
			}
			mu.Lock()
			s.state.audioPaths[track] = destination
			mu.Unlock()
			return nil
		})
	}
	return group.Wait()
}

func (s *extractStage) HealthCheck(ctx context.Context) stage.Health {
	if _, err := exec.LookPath(s.p.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy("extract", err.Error())
	}
	return stage.Healthy("extract")
}

// transcribeStage runs whisper over each track sequentially. The model is
// memory-hungry enough that parallel transcription loses more to swapping
// than it gains.
type transcribeStage struct {
	p     *Pipeline
	state *runState
}

func (s *transcribeStage) Prepare(ctx context.Context, run *runlog.Run) error {
	s.state.transcriptFP = stagecache.TranscriptFingerprint(
		s.state.audioFP, s.p.cfg.Model.Name, s.p.cfg.Model.Language)
	return nil
}

func (s *transcribeStage) Execute(ctx context.Context, run *runlog.Run) error {
	cached := s.p.cache.TranscriptPath(s.state.transcriptFP)
	if s.p.cache.Resolve(cached) {
		doc, err := s.loadCached(cached)
		if err == nil {
			s.p.logger.InfoContext(ctx, "transcript cache hit",
				logging.String(logging.FieldFingerprint, stagecache.ShortFingerprint(s.state.transcriptFP)),
				logging.Int("tokens", len(doc.Tokens)))
			s.state.tokens = doc.Tokens
			return nil
		}
		// Unreadable cache entries count as misses and are recomputed.
		s.p.logger.WarnContext(ctx, "cached transcript unreadable",
			logging.String(logging.FieldFingerprint, stagecache.ShortFingerprint(s.state.transcriptFP)),
			logging.Error(err))
	}

	perTrack := make([][]transcript.Token, 0, len(s.state.tracks))
	for _, track := range s.state.tracks {
		trackCtx, cancel := stageTimeout(ctx, s.p.cfg.Workflow.TranscribeTimeout)
		tokens, err := s.p.transcriber.Transcribe(trackCtx, whispercli.Request{
			ModelPath: s.p.cache.ModelPath(s.p.cfg.Model.Name),
			AudioPath: s.state.audioPaths[track],
			Language:  s.p.cfg.Model.Language,
			Track:     track,
		})
		cancel()
		if err != nil {
			return err
		}
		s.p.logger.InfoContext(ctx, "track transcribed",
			logging.Int(logging.FieldTrack, track),
			logging.Int("tokens", len(tokens)))
		perTrack = append(perTrack, tokens)
	}
	s.state.tokens = transcript.Combine(perTrack...)

	payload, err := transcript.Encode(transcript.Document{
		Model:    s.p.cfg.Model.Name,
		Language: s.p.cfg.Model.Language,
		Tokens:   s.state.tokens,
	})
	if err != nil {
		return services.Wrap(services.ErrCache, "transcribe", "encode transcript", "", err)
	}
	if err := s.p.cache.Commit(cached, payload); err != nil {
		return services.Wrap(services.ErrCache, "transcribe", "cache transcript", "", err)
	}
	return nil
}

func (s *transcribeStage) loadCached(path string) (transcript.Document, error) {
	payload, err := s.p.cache.Read(path)
	if err != nil {
		return transcript.Document{}, err
	}
	return transcript.Decode(payload)
}

func (s *transcribeStage) HealthCheck(ctx context.Context) stage.Health {
	if _, err := exec.LookPath(s.p.cfg.Model.Binary); err != nil {
		return stage.Unhealthy("transcribe", err.Error())
	}
	return stage.Healthy("transcribe")
}

// deriveStage turns the transcript into a merged clip manifest.
type deriveStage struct {
	p     *Pipeline
	state *runState
}

func (s *deriveStage) Prepare(ctx context.Context, run *runlog.Run) error {
	s.state.manifestFP = stagecache.ManifestFingerprint(
		s.state.transcriptFP, s.state.rules, s.p.cfg.Clips.MergeGapSeconds, s.state.duration)
	return nil
}

func (s *deriveStage) Execute(ctx context.Context, run *runlog.Run) error {
	cached := s.p.cache.ManifestPath(s.state.manifestFP)
	if s.p.cache.Resolve(cached) {
		manifest, err := s.loadCached(cached)
		if err == nil {
			s.p.logger.InfoContext(ctx, "clip manifest cache hit",
				logging.String(logging.FieldFingerprint, stagecache.ShortFingerprint(s.state.manifestFP)),
				logging.Int("clips", len(manifest.Clips)))
			s.state.manifest = manifest
			return nil
		}
		s.p.logger.WarnContext(ctx, "cached manifest unreadable",
			logging.String(logging.FieldFingerprint, stagecache.ShortFingerprint(s.state.manifestFP)),
			logging.Error(err))
	}

	windows := clips.Derive(s.state.tokens, s.state.rules, s.state.duration)
	matched := make(map[string]int, len(s.state.rules))
	for _, window := range windows {
		matched[window.Keyword]++
	}
	for _, rule := range s.state.rules {
		if matched[rule.Keyword] == 0 {
			logging.WarnWithContext(s.p.logger, "keyword matched nothing", "keyword_no_match",
				logging.String(logging.FieldKeyword, rule.Keyword))
		}
	}

	merged := clips.Merge(windows, s.p.cfg.Clips.MergeGapSeconds)
	s.state.manifest = clips.Manifest{
		Source:   s.state.source,
		MergeGap: s.p.cfg.Clips.MergeGapSeconds,
		Clips:    merged,
	}
	s.p.logger.InfoContext(ctx, "windows merged",
		logging.Int("windows", len(windows)),
		logging.Int("clips", len(merged)))

	payload, err := clips.EncodeManifest(s.state.manifest)
	if err != nil {
		return services.Wrap(services.ErrCache, "derive", "encode manifest", "", err)
	}
	if err := s.p.cache.Commit(cached, payload); err != nil {
		return services.Wrap(services.ErrCache, "derive", "cache manifest", "", err)
	}
	return nil
}

func (s *deriveStage) loadCached(path string) (clips.Manifest, error) {
	payload, err := s.p.cache.Read(path)
	if err != nil {
		return clips.Manifest{}, err
	}
	return clips.DecodeManifest(payload)
}

func (s *deriveStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("derive")
}

// cutStage materializes output clips in parallel. A single failed cut does
// not abort the rest; failures are collected for the run summary.
type cutStage struct {
	p     *Pipeline
	state *runState
}

func (s *cutStage) Prepare(ctx context.Context, run *runlog.Run) error {
	run.ClipsTotal = len(s.state.manifest.Clips)
	run.ClipsDone = 0
	return os.MkdirAll(s.p.cfg.Paths.OutputDir, 0o755)
}

func (s *cutStage) Execute(ctx context.Context, run *runlog.Run) error {
	// Cuts finish out of order; produced is indexed by clip so the final
	// output list follows manifest order.
	produced := make([]string, len(s.state.manifest.Clips))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.p.parallelism())
	for index, clip := range s.state.manifest.Clips {
		name := s.state.manifest.OutputName(index)
		destination := filepath.Join(s.p.cfg.Paths.OutputDir, name)
		group.Go(func() error {
			tmp, err := s.p.cache.TempPath(destination)
			if err != nil {
				s.recordFailure(index, name, err)
				return nil
			}
			clipCtx, cancel := stageTimeout(groupCtx, s.p.cfg.Workflow.CutTimeout)
			err = s.p.cutter.Cut(clipCtx, s.state.source, clip.Start, clip.End, tmp)
			cancel()
			if err == nil {
				err = s.p.cache.CommitFile(tmp, destination)
			}
			if err != nil {
				_ = os.Remove(tmp)
				s.p.logger.ErrorContext(groupCtx, "clip failed",
					logging.String("clip", name),
					logging.Error(err))
				s.recordFailure(index, name, err)
				return nil
			}
			s.recordOutput(groupCtx, run, produced, index, destination)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	for _, destination := range produced {
		if destination != "" {
			s.state.outputs = append(s.state.outputs, destination)
		}
	}
	sort.Slice(s.state.failures, func(i, j int) bool {
		return s.state.failures[i].Index < s.state.failures[j].Index
	})

	if len(s.state.manifest.Clips) > 0 && len(s.state.outputs) == 0 {
		first := s.state.failures[0]
		return services.Wrap(services.ErrExternalTool, "cut", "materialize clips",
			fmt.Sprintf("All %d clips failed", len(s.state.failures)), first.Err)
	}
	return nil
}

func (s *cutStage) recordFailure(index int, name string, err error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.failures = append(s.state.failures, ClipFailure{Index: index, Name: name, Err: err})
}

func (s *cutStage) recordOutput(ctx context.Context, run *runlog.Run, produced []string, index int, destination string) {
	s.state.mu.Lock()
	produced[index] = destination
	run.ClipsDone++
	s.state.mu.Unlock()
	if err := s.p.store.Update(ctx, run); err != nil {
		s.p.logger.WarnContext(ctx, "failed to persist clip progress", logging.Error(err))
	}
}

func (s *cutStage) HealthCheck(ctx context.Context) stage.Health {
	if _, err := exec.LookPath(s.p.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy("cut", err.Error())
	}
	return stage.Healthy("cut")
}
