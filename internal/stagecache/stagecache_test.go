package stagecache_test

import (
	"os"
	"path/filepath"
	"testing"

	"clive/internal/clips"
	"clive/internal/stagecache"
	"clive/internal/testsupport"
)

func newManager(t *testing.T) *stagecache.Manager {
	t.Helper()
	manager, err := stagecache.NewManager(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager
}

func TestCommitAndResolve(t *testing.T) {
	t.Parallel()
	manager := newManager(t)
	path := manager.TranscriptPath("abc123")

	if manager.Resolve(path) {
		t.Fatal("resolved artifact before commit")
	}
	if err := manager.Commit(path, []byte(`{"tokens":[]}`)); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !manager.Resolve(path) {
		t.Fatal("committed artifact not resolved")
	}
	payload, err := manager.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(payload) != `{"tokens":[]}` {
		t.Fatalf("payload = %q", payload)
	}
}

func TestCommitLeavesNoTempOnSuccess(t *testing.T) {
	t.Parallel()
	manager := newManager(t)
	path := manager.ManifestPath("deadbeef")
	if err := manager.Commit(path, []byte("{}")); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestPurgeKeepsModels(t *testing.T) {
	t.Parallel()
	manager := newManager(t)
	modelPath := manager.ModelPath("base.en")
	audioPath := manager.AudioPath("fp", 1)
	if err := manager.Commit(modelPath, []byte("model")); err != nil {
		t.Fatal(err)
	}
	if err := manager.Commit(audioPath, []byte("wav")); err != nil {
		t.Fatal(err)
	}

	if err := manager.Purge(); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if !manager.Resolve(modelPath) {
		t.Fatal("purge removed the model")
	}
	if manager.Resolve(audioPath) {
		t.Fatal("purge left derived audio behind")
	}

	if err := manager.PurgeAll(); err != nil {
		t.Fatalf("PurgeAll: %v", err)
	}
	if manager.Resolve(modelPath) {
		t.Fatal("PurgeAll left the model behind")
	}
}

func TestPurgeRunLeavesOtherRunsAlone(t *testing.T) {
	t.Parallel()
	manager := newManager(t)
	modelPath := manager.ModelPath("base.en")
	if err := manager.Commit(modelPath, []byte("model")); err != nil {
		t.Fatal(err)
	}
	commitRun := func(prefix string) (audio, transcript, manifest string) {
		audio = manager.AudioPath(prefix+"audio", 1)
		transcript = manager.TranscriptPath(prefix + "transcript")
		manifest = manager.ManifestPath(prefix + "clips")
		for _, path := range []string{audio, transcript, manifest} {
			if err := manager.Commit(path, []byte("artifact")); err != nil {
				t.Fatal(err)
			}
		}
		return audio, transcript, manifest
	}
	audioA, transcriptA, manifestA := commitRun("a")
	audioB, transcriptB, manifestB := commitRun("b")

	err := manager.PurgeRun(stagecache.RunManifest{
		RunID:        "run-a",
		AudioFP:      "aaudio",
		TranscriptFP: "atranscript",
		ManifestFP:   "aclips",
		Tracks:       []int{1},
	})
	if err != nil {
		t.Fatalf("PurgeRun: %v", err)
	}
	for _, path := range []string{audioA, transcriptA, manifestA} {
		if manager.Resolve(path) {
			t.Fatalf("purged run artifact survived: %s", path)
		}
	}
	for _, path := range []string{audioB, transcriptB, manifestB} {
		if !manager.Resolve(path) {
			t.Fatalf("other run's artifact removed: %s", path)
		}
	}
	if !manager.Resolve(modelPath) {
		t.Fatal("PurgeRun removed the model")
	}
}

func TestTempPathsDoNotCollide(t *testing.T) {
	t.Parallel()
	manager := newManager(t)
	destination := manager.AudioPath("fp", 1)
	first, err := manager.TempPath(destination)
	if err != nil {
		t.Fatalf("TempPath: %v", err)
	}
	second, err := manager.TempPath(destination)
	if err != nil {
		t.Fatalf("TempPath: %v", err)
	}
	if first == second {
		t.Fatalf("temp paths collide: %s", first)
	}
	if err := manager.CommitFile(first, destination); err != nil {
		t.Fatalf("CommitFile: %v", err)
	}
}

func TestSourceFingerprintTracksFileIdentity(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.mkv")
	if err := os.WriteFile(path, []byte("aaaa"), 0o644); err != nil {
		t.Fatal(err)
	}
	first, err := stagecache.SourceFingerprint(path)
	if err != nil {
		t.Fatalf("SourceFingerprint: %v", err)
	}
	second, err := stagecache.SourceFingerprint(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("fingerprint not stable for unchanged file")
	}
	if err := os.WriteFile(path, []byte("aaaa-changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := stagecache.SourceFingerprint(path)
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Fatal("fingerprint unchanged after file rewrite")
	}
}

func TestFingerprintChainSensitivity(t *testing.T) {
	t.Parallel()
	rules := []clips.Rule{{Keyword: "magic", Lead: 10, Trail: 10}}

	audio := stagecache.AudioFingerprint("src", []int{1})
	transcriptFP := stagecache.TranscriptFingerprint(audio, "base.en", "en")
	manifest := stagecache.ManifestFingerprint(transcriptFP, rules, 0, 120)

	// Changing a rule's lead moves only the manifest fingerprint.
	changedRules := []clips.Rule{{Keyword: "magic", Lead: 15, Trail: 10}}
	if got := stagecache.AudioFingerprint("src", []int{1}); got != audio {
		t.Fatal("audio fingerprint depends on rules")
	}
	if got := stagecache.TranscriptFingerprint(audio, "base.en", "en"); got != transcriptFP {
		t.Fatal("transcript fingerprint depends on rules")
	}
	if got := stagecache.ManifestFingerprint(transcriptFP, changedRules, 0, 120); got == manifest {
		t.Fatal("manifest fingerprint ignores rule lead change")
	}

	// Changing the model invalidates the transcript and the manifest.
	otherTranscript := stagecache.TranscriptFingerprint(audio, "small", "en")
	if otherTranscript == transcriptFP {
		t.Fatal("transcript fingerprint ignores model change")
	}
	if got := stagecache.ManifestFingerprint(otherTranscript, rules, 0, 120); got == manifest {
		t.Fatal("manifest fingerprint ignores model change")
	}

	// Track selection invalidates from the audio stage down.
	if got := stagecache.AudioFingerprint("src", []int{1, 2}); got == audio {
		t.Fatal("audio fingerprint ignores track change")
	}
}

func TestRunManifestRoundTrip(t *testing.T) {
	t.Parallel()
	manager := newManager(t)
	manifest := stagecache.RunManifest{
		RunID:        "run-1",
		Source:       "/videos/input.mkv",
		SourceFP:     "srcfp",
		AudioFP:      "audiofp",
		TranscriptFP: "transcriptfp",
		ManifestFP:   "clipsfp",
		Model:        "base.en",
	}
	if err := manager.WriteRunManifest(manifest); err != nil {
		t.Fatalf("WriteRunManifest: %v", err)
	}
	loaded, ok, err := manager.LoadRunManifest("run-1")
	if err != nil {
		t.Fatalf("LoadRunManifest: %v", err)
	}
	if !ok {
		t.Fatal("expected manifest to exist")
	}
	if loaded.TranscriptFP != manifest.TranscriptFP || loaded.Model != manifest.Model {
		t.Fatalf("manifest mismatch: %+v", loaded)
	}
	if loaded.CreatedAt.IsZero() {
		t.Fatal("created_at not populated")
	}

	if _, ok, err := manager.LoadRunManifest("missing"); err != nil || ok {
		t.Fatalf("missing manifest: ok=%v err=%v", ok, err)
	}
}

func TestStatsCountsPerStage(t *testing.T) {
	manager := newManager(t)

	testsupport.WriteFile(t, manager.ModelPath("base"), 2048)
	testsupport.WriteFile(t, manager.AudioPath("fp", 1), 512)
	testsupport.WriteFile(t, manager.AudioPath("fp", 2), 512)

	stats, err := manager.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	byDir := make(map[string]stagecache.Usage, len(stats))
	for _, usage := range stats {
		byDir[usage.Dir] = usage
	}
	if models := byDir["models"]; models.Files != 1 || models.Bytes != 2048 {
		t.Fatalf("models usage = %+v", models)
	}
	if audio := byDir["audio"]; audio.Files != 2 || audio.Bytes != 1024 {
		t.Fatalf("audio usage = %+v", audio)
	}
	if clipsUsage := byDir["clips"]; clipsUsage.Files != 0 {
		t.Fatalf("clips usage = %+v", clipsUsage)
	}
}
