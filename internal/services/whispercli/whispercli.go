package whispercli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clive/internal/logging"
	"clive/internal/services"
	"clive/internal/transcript"
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

// Service wraps one whisper.cpp binary.
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

// NewService builds a transcription service around the given binary.
func NewService(binary string, logger *slog.Logger, opts ...Option) *Service {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "whisper-cli"
	}
	svc := &Service{binary: binary, logger: logging.NewComponentLogger(logger, "whisper"), run: runCommand}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Request describes one transcription invocation.
type Request struct {
	ModelPath string
	AudioPath string
	Language  string
	Track     int
}

// Transcribe runs whisper.cpp over one extracted track and returns the
// recognized tokens ordered by start time. Segments are split per word so
// keyword windows anchor on individual word timings.
func (s *Service) Transcribe(ctx context.Context, req Request) ([]transcript.Token, error) {
	if strings.TrimSpace(req.ModelPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "resolve model",
			"Model path is empty", nil)
	}
	if strings.TrimSpace(req.AudioPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "resolve audio",
			"Audio path is empty", nil)
	}

	outputPrefix := strings.TrimSuffix(req.AudioPath, filepath.Ext(req.AudioPath))
	outputPath := outputPrefix + ".json"
	defer os.Remove(outputPath)

	args := []string{
		"-m", req.ModelPath,
		"-f", req.AudioPath,
		"-ojf",
		"-of", outputPrefix,
		"-ml", "1",
		"-sow",
		"-np",
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		args = append(args, "-l", lang)
	}

	s.logger.DebugContext(ctx, "running whisper",
		logging.String("model", filepath.Base(req.ModelPath)),
		logging.String("audio", req.AudioPath),
		logging.Int("track", req.Track))
	if err := s.run(ctx, s.binary, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "transcribe", "run whisper",
				fmt.Sprintf("Transcription of track %d timed out", req.Track), err)
		}
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "run whisper",
			fmt.Sprintf("Transcription of track %d failed", req.Track), err)
	}

	payload, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "read output",
			"Whisper produced no JSON output", err)
	}
	tokens, err := parseOutput(payload, req.Track)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "parse output", "", err)
	}
	return tokens, nil
}

// whisper.cpp -ojf format: one transcription entry per emitted segment,
// with millisecond offsets from the start of the audio and the model tokens
// the segment was decoded from, each carrying its probability.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text   string `json:"text"`
		Tokens []struct {
			P float32 `json:"p"`
		} `json:"tokens"`
	} `json:"transcription"`
}

func parseOutput(payload []byte, track int) ([]transcript.Token, error) {
	var out whisperOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode whisper output: %w", err)
	}
	tokens := make([]transcript.Token, 0, len(out.Transcription))
	for _, segment := range out.Transcription {
		var confidence float32
		if len(segment.Tokens) > 0 {
			for _, tok := range segment.Tokens {
				confidence += tok.P
			}
			confidence /= float32(len(segment.Tokens))
		}
		tokens = append(tokens, transcript.Token{
			Text:       segment.Text,
			Start:      float64(segment.Offsets.From) / 1000,
			End:        float64(segment.Offsets.To) / 1000,
			Confidence: confidence,
			Track:      track,
		})
	}
	return transcript.Clean(tokens), nil
}
