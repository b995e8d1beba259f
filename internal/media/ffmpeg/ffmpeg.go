package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"clive/internal/logging"
	"clive/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
		}
		if detail == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, detail)
	}
	return nil
}

// Service invokes ffmpeg for extraction and cutting.
type Service struct {
	binary string
	logger *slog.Logger
	run    commandRunner
}

// Option customizes a Service.
type Option func(*Service)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r commandRunner) Option {
	return func(s *Service) {
		if r != nil {
			s.run = r
		}
	}
}

// NewService builds an ffmpeg service around the given binary.
func NewService(binary string, logger *slog.Logger, opts ...Option) *Service {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	svc := &Service{binary: binary, logger: logging.NewComponentLogger(logger, "ffmpeg"), run: runCommand}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ExtractTrack writes one audio track as 16 kHz mono signed 16-bit PCM WAV,
// the input format whisper.cpp expects. Track ids are 1-based.
func (s *Service) ExtractTrack(ctx context.Context, source string, track int, destination string) error {
	if track < 1 {
		return services.Wrap(services.ErrConfiguration, "extract", "select track",
			fmt.Sprintf("Audio track ids are 1-based, got %d", track), nil)
	}
	args := []string{
		"-hide_banner", "-nostdin", "-v", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:a:%d", track-1),
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y", destination,
	}
	s.logger.DebugContext(ctx, "extracting audio track",
		logging.String("source", source),
		logging.Int("track", track),
		logging.String("destination", destination))
	if err := s.run(ctx, s.binary, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "extract", "run ffmpeg",
				fmt.Sprintf("Extraction of track %d timed out", track), err)
		}
		return services.Wrap(services.ErrExternalTool, "extract", "run ffmpeg",
			fmt.Sprintf("Failed to extract audio track %d", track), err)
	}
	return nil
}

// Cut copies the [start, end] interval of source into destination without
// re-encoding. Cut points snap to the nearest preceding keyframe, which is
// acceptable for keyword clips and keeps cutting fast.
func (s *Service) Cut(ctx context.Context, source string, start, end float64, destination string) error {
	if end <= start {
		return services.Wrap(services.ErrConfiguration, "cut", "validate interval",
			fmt.Sprintf("Clip interval %s-%s is empty", formatSeconds(start), formatSeconds(end)), nil)
	}
	args := []string{
		"-hide_banner", "-nostdin", "-v", "error",
		"-ss", formatSeconds(start),
		"-i", source,
		"-t", formatSeconds(end - start),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y", destination,
	}
	s.logger.DebugContext(ctx, "cutting clip",
		logging.String("source", source),
		logging.String("start", formatSeconds(start)),
		logging.String("end", formatSeconds(end)),
		logging.String("destination", destination))
	if err := s.run(ctx, s.binary, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "cut", "run ffmpeg",
				fmt.Sprintf("Cut %s-%s timed out", formatSeconds(start), formatSeconds(end)), err)
		}
		return services.Wrap(services.ErrExternalTool, "cut", "run ffmpeg",
			fmt.Sprintf("Failed to cut clip %s-%s", formatSeconds(start), formatSeconds(end)), err)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
