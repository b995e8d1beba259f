package whispercli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clive/internal/services"
)

const sampleWhisperJSON = `{
  "transcription": [
    {"offsets": {"from": 0, "to": 420}, "text": " Hello", "tokens": [{"p": 0.75}, {"p": 0.25}]},
    {"offsets": {"from": 500, "to": 980}, "text": " world", "tokens": [{"p": 0.5}]},
    {"offsets": {"from": 1200, "to": 1200}, "text": " "}
  ]
}`

func TestTranscribeParsesTokens(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "fp_track1.wav")
	if err := os.WriteFile(audio, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	svc := NewService("whisper-cli", nil, WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		// The real binary writes <prefix>.json next to the audio.
		return os.WriteFile(filepath.Join(dir, "fp_track1.json"), []byte(sampleWhisperJSON), 0o644)
	}))

	tokens, err := svc.Transcribe(context.Background(), Request{
		ModelPath: "/cache/models/ggml-base.en.bin",
		AudioPath: audio,
		Language:  "en",
		Track:     1,
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("tokens = %+v, want 2 after cleaning", tokens)
	}
	if tokens[0].Text != "Hello" || tokens[0].Start != 0 || tokens[0].End != 0.42 {
		t.Fatalf("first token = %+v", tokens[0])
	}
	if tokens[0].Confidence != 0.5 {
		t.Fatalf("confidence = %v, want mean token probability 0.5", tokens[0].Confidence)
	}
	if tokens[1].Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", tokens[1].Confidence)
	}
	if tokens[1].Track != 1 {
		t.Fatalf("track not recorded: %+v", tokens[1])
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-m /cache/models/ggml-base.en.bin", "-ojf", "-ml 1", "-sow", "-l en"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "fp_track1.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("intermediate JSON not removed")
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "a.wav")
	svc := NewService("whisper-cli", nil, WithCommandRunner(func(context.Context, string, ...string) error {
		return nil
	}))
	_, err := svc.Transcribe(context.Background(), Request{ModelPath: "m.bin", AudioPath: audio})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("err = %v, want transcription error", err)
	}
}

func TestTranscribeCommandFailure(t *testing.T) {
	svc := NewService("whisper-cli", nil, WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 3")
	}))
	_, err := svc.Transcribe(context.Background(), Request{ModelPath: "m.bin", AudioPath: "a.wav", Track: 2})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("err = %v, want transcription error", err)
	}
	if !strings.Contains(err.Error(), "track 2") {
		t.Fatalf("err missing track context: %v", err)
	}
}

func TestTranscribeRejectsEmptyInputs(t *testing.T) {
	svc := NewService("", nil)
	if _, err := svc.Transcribe(context.Background(), Request{AudioPath: "a.wav"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing model err = %v", err)
	}
	if _, err := svc.Transcribe(context.Background(), Request{ModelPath: "m.bin"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing audio err = %v", err)
	}
}
