package stagecache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clive/internal/logging"
)

const (
	dirModels      = "models"
	dirAudio       = "audio"
	dirTranscripts = "transcripts"
	dirClips       = "clips"
	dirRuns        = "runs"
)

var stageDirs = []string{dirModels, dirAudio, dirTranscripts, dirClips, dirRuns}

// Manager is the handle to one on-disk cache root. It is safe for
// concurrent use; all writes go through temp-file + rename so readers never
// observe partial artifacts.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates the cache layout under root if needed.
func NewManager(root string, logger *slog.Logger) (*Manager, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("stagecache: cache root is empty")
	}
	for _, dir := range stageDirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("stagecache: ensure %s dir: %w", dir, err)
		}
	}
	return &Manager{root: root, logger: logging.NewComponentLogger(logger, "stagecache")}, nil
}

// Root returns the cache root directory.
func (m *Manager) Root() string { return m.root }

// ModelPath returns the cache location for a named whisper model.
func (m *Manager) ModelPath(model string) string {
	return filepath.Join(m.root, dirModels, fmt.Sprintf("ggml-%s.bin", model))
}

// AudioPath returns the cache location for one extracted track.
func (m *Manager) AudioPath(audioFP string, track int) string {
	return filepath.Join(m.root, dirAudio, fmt.Sprintf("%s_track%d.wav", audioFP, track))
}

// TranscriptPath returns the cache location for a transcript document.
func (m *Manager) TranscriptPath(transcriptFP string) string {
	return filepath.Join(m.root, dirTranscripts, transcriptFP+".json")
}

// ManifestPath returns the cache location for a clip manifest.
func (m *Manager) ManifestPath(manifestFP string) string {
	return filepath.Join(m.root, dirClips, manifestFP+".json")
}

// RunManifestPath returns the location of the per-run fingerprint record.
func (m *Manager) RunManifestPath(runID string) string {
	return filepath.Join(m.root, dirRuns, runID+".json")
}

// Resolve reports whether a cached artifact exists at path.
func (m *Manager) Resolve(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Commit writes payload to path atomically.
func (m *Manager) Commit(path string, payload []byte) error {
	tmp, err := m.TempPath(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("stagecache: write temp: %w", err)
	}
	return m.CommitFile(tmp, path)
}

// TempPath creates a temp file next to path and returns its name, suitable
// for handing to a subprocess that writes its own output. Commit the result
// with CommitFile.
func (m *Manager) TempPath(path string) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("stagecache: ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".clive-*"+filepath.Ext(path)+".tmp")
	if err != nil {
		return "", fmt.Errorf("stagecache: create temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("stagecache: close temp: %w", err)
	}
	return tmp.Name(), nil
}

// CommitFile moves a fully written temp file into its final cache location.
func (m *Manager) CommitFile(tmp, path string) error {
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("stagecache: commit %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Read returns a cached artifact payload.
func (m *Manager) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stagecache: read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// PurgeRun removes the derived artifacts recorded by one run manifest.
// Artifacts of other fingerprints are left alone, so concurrent runs over
// different inputs can share the cache root. Models and run manifests are
// kept. Removal is best-effort; the first error is reported after the
// sweep completes.
func (m *Manager) PurgeRun(manifest RunManifest) error {
	var paths []string
	if manifest.AudioFP != "" {
		for _, track := range manifest.Tracks {
			paths = append(paths, m.AudioPath(manifest.AudioFP, track))
		}
	}
	if manifest.TranscriptFP != "" {
		paths = append(paths, m.TranscriptPath(manifest.TranscriptFP))
	}
	if manifest.ManifestFP != "" {
		paths = append(paths, m.ManifestPath(manifest.ManifestFP))
	}
	var firstErr error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("stagecache: purge run %s: %w", manifest.RunID, firstErr)
	}
	m.logger.Debug("purged run artifacts",
		logging.String(logging.FieldRunID, manifest.RunID),
		logging.Int("artifacts", len(paths)))
	return nil
}

// Purge removes all derived artifacts regardless of run, keeping downloaded
// models, which are expensive to refetch and valid across inputs, and run
// manifests, which the run journal refers to.
func (m *Manager) Purge() error {
	var firstErr error
	for _, dir := range []string{dirAudio, dirTranscripts, dirClips} {
		if err := clearDir(filepath.Join(m.root, dir)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("stagecache: purge: %w", firstErr)
	}
	return nil
}

// PurgeAll removes every cached artifact including models and run
// manifests.
func (m *Manager) PurgeAll() error {
	for _, dir := range []string{dirModels, dirRuns} {
		if err := clearDir(filepath.Join(m.root, dir)); err != nil {
			return fmt.Errorf("stagecache: purge %s: %w", dir, err)
		}
	}
	return m.Purge()
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var firstErr error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Usage summarizes cache disk consumption per stage directory.
type Usage struct {
	Dir   string
	Files int
	Bytes int64
}

// Stats walks the cache layout and reports usage per stage directory.
func (m *Manager) Stats() ([]Usage, error) {
	stats := make([]Usage, 0, len(stageDirs))
	for _, dir := range stageDirs {
		usage := Usage{Dir: dir}
		err := filepath.WalkDir(filepath.Join(m.root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			usage.Files++
			usage.Bytes += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stagecache: stats %s: %w", dir, err)
		}
		stats = append(stats, usage)
	}
	return stats, nil
}
