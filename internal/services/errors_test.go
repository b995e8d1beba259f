package services_test

import (
	"errors"
	"strings"
	"testing"

	"clive/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "cutting", "clip 3", "ffmpeg exited 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"cutting", "clip 3", "ffmpeg exited 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToExternalTool(t *testing.T) {
	err := services.Wrap(nil, "extraction", "track 2", "", errors.New("io"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"configuration", services.Wrap(services.ErrConfiguration, "preflight", "tracks", "track 9 not found", nil), true},
		{"acquisition", services.Wrap(services.ErrAcquisition, "model", "fetch", "download failed", nil), true},
		{"transcription", services.Wrap(services.ErrTranscription, "transcribe", "track 1", "whisper timed out", nil), true},
		{"external tool", services.Wrap(services.ErrExternalTool, "cutting", "clip 1", "exit 1", nil), false},
		{"cache", services.Wrap(services.ErrCache, "cache", "commit", "disk full", nil), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := services.Fatal(tc.err); got != tc.fatal {
			t.Fatalf("%s: Fatal = %v, want %v", tc.name, got, tc.fatal)
		}
	}
}
