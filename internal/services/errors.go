package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying failures across pipeline stages. Stage code
// wraps underlying causes with one of these so the orchestrator can decide
// whether a failure is fatal to the run, fatal to one unit of work, or
// recoverable by recomputation.
var (
	// ErrConfiguration marks invalid user configuration (bad track id, empty
	// keyword list). Surfaced before any stage runs; always fatal.
	ErrConfiguration = errors.New("configuration error")
	// ErrAcquisition marks model download/availability failures after retry.
	ErrAcquisition = errors.New("acquisition error")
	// ErrExternalTool marks a subprocess failure (ffmpeg, whisper).
	ErrExternalTool = errors.New("external tool error")
	// ErrTranscription marks a failed or timed-out transcription; fatal for
	// the affected track since partial transcripts are never accepted.
	ErrTranscription = errors.New("transcription error")
	// ErrCache marks cache I/O failures. Fatal for writes; reads treat it as
	// a miss and recompute.
	ErrCache = errors.New("cache error")
	// ErrTimeout marks an external call exceeding its deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err should abort the whole run rather than just the
// unit of work that produced it.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrAcquisition), errors.Is(err, ErrTranscription):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
