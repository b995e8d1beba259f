package ffprobe

import (
	"context"
	"errors"
	"testing"
)

const sampleInspectJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2, "tags": {"language": "eng"}},
    {"index": 2, "codec_name": "opus", "codec_type": "audio", "channels": 2, "tags": {"language": "jpn"}}
  ],
  "format": {"filename": "input.mkv", "nb_streams": 3, "duration": "1832.405000", "format_name": "matroska,webm"}
}`

func withRunner(t *testing.T, fn commandRunner) {
	t.Helper()
	prev := run
	run = fn
	t.Cleanup(func() { run = prev })
}

func TestInspectParsesStreams(t *testing.T) {
	withRunner(t, func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("binary = %q", binary)
		}
		if args[len(args)-1] != "input.mkv" {
			t.Fatalf("path arg = %q", args[len(args)-1])
		}
		return []byte(sampleInspectJSON), nil
	})

	result, err := Inspect(context.Background(), "", "input.mkv")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	audio := result.AudioStreams()
	if len(audio) != 2 {
		t.Fatalf("audio streams = %d, want 2", len(audio))
	}
	if audio[1].Tags.Language != "jpn" {
		t.Fatalf("second audio language = %q", audio[1].Tags.Language)
	}
	if got := result.DurationSeconds(); got != 1832.405 {
		t.Fatalf("duration = %v", got)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInspectWrapsCommandFailure(t *testing.T) {
	withRunner(t, func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: No such file or directory")
	})
	if _, err := Inspect(context.Background(), "ffprobe", "missing.mkv"); err == nil {
		t.Fatal("expected inspect failure")
	}
}

func TestValidateTracks(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "video"},
		{CodecType: "audio"},
		{CodecType: "audio"},
	}}
	if err := result.ValidateTracks([]int{1, 2}); err != nil {
		t.Fatalf("valid tracks rejected: %v", err)
	}
	if err := result.ValidateTracks([]int{3}); err == nil {
		t.Fatal("out-of-range track accepted")
	}
	if err := result.ValidateTracks([]int{0}); err == nil {
		t.Fatal("zero track accepted")
	}
	empty := Result{Streams: []Stream{{CodecType: "video"}}}
	if err := empty.ValidateTracks([]int{1}); err == nil {
		t.Fatal("track accepted for audio-less container")
	}
}

func TestDurationSecondsHandlesMissing(t *testing.T) {
	if got := (Result{}).DurationSeconds(); got != 0 {
		t.Fatalf("empty duration = %v, want 0", got)
	}
	bad := Result{Format: Format{Duration: "N/A"}}
	if got := bad.DurationSeconds(); got != 0 {
		t.Fatalf("unparseable duration = %v, want 0", got)
	}
}
