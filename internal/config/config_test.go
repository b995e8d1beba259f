package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clive/internal/config"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".cache", "clive")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if cfg.Model.Name != "base" {
		t.Fatalf("unexpected default model: %q", cfg.Model.Name)
	}
	if got := cfg.Tracks.AudioTracks; len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected default tracks: %v", got)
	}
	if cfg.Clips.LeadSeconds != 30 || cfg.Clips.TrailSeconds != 30 {
		t.Fatalf("unexpected clip defaults: %+v", cfg.Clips)
	}
}

func TestLoadParsesKeywordOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clive.toml")
	content := strings.Join([]string{
		`[model]`,
		`name = "small.en"`,
		``,
		`[tracks]`,
		`audio_tracks = [1, 2]`,
		``,
		`[clips]`,
		`lead_seconds = 15`,
		`trail_seconds = 15`,
		``,
		`[[keyword]]`,
		`keyword = "magic"`,
		`lead_seconds = 10`,
		`trail_seconds = 10`,
		``,
		`[[keyword]]`,
		`keyword = "word"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Model.Name != "small.en" {
		t.Fatalf("unexpected model: %q", cfg.Model.Name)
	}
	if len(cfg.Keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %d", len(cfg.Keywords))
	}

	magic := cfg.Rule(cfg.Keywords[0])
	if magic.LeadSeconds != 10 || magic.TrailSeconds != 10 {
		t.Fatalf("keyword override not honored: %+v", magic)
	}
	word := cfg.Rule(cfg.Keywords[1])
	if word.LeadSeconds != 15 || word.TrailSeconds != 15 {
		t.Fatalf("clips defaults not applied: %+v", word)
	}
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clive.toml")
	if err := os.WriteFile(path, []byte("[model]\nname = \"gigantic\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown model name")
	}
}

func TestLoadRejectsInvalidTracks(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero track", "[tracks]\naudio_tracks = [0]\n"},
		{"empty tracks", "[tracks]\naudio_tracks = []\n"},
		{"duplicate tracks", "[tracks]\naudio_tracks = [1, 1]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "clive.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRequireKeywords(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireKeywords(); err == nil {
		t.Fatal("expected error for empty keyword list")
	}
	cfg.Keywords = append(cfg.Keywords, config.Keyword{Keyword: "goal"})
	if err := cfg.RequireKeywords(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}
