package stagecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const runManifestVersion = 1

// RunManifest records the fingerprints one run resolved, so later runs and
// `clive cache show` can trace which artifacts belong to which invocation.
type RunManifest struct {
	Version      int       `json:"version"`
	RunID        string    `json:"run_id"`
	Source       string    `json:"source"`
	SourceFP     string    `json:"source_fingerprint"`
	AudioFP      string    `json:"audio_fingerprint,omitempty"`
	TranscriptFP string    `json:"transcript_fingerprint,omitempty"`
	ManifestFP   string    `json:"clips_fingerprint,omitempty"`
	Tracks       []int     `json:"tracks,omitempty"`
	Model        string    `json:"model,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WriteRunManifest persists the manifest for a run atomically.
func (m *Manager) WriteRunManifest(manifest RunManifest) error {
	if manifest.RunID == "" {
		return errors.New("stagecache: run manifest missing run id")
	}
	manifest.Version = runManifestVersion
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = time.Now().UTC()
	}
	payload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("stagecache: encode run manifest: %w", err)
	}
	return m.Commit(m.RunManifestPath(manifest.RunID), append(payload, '\n'))
}

// LoadRunManifest reads a previously written run manifest. The second
// return value reports whether the manifest exists.
func (m *Manager) LoadRunManifest(runID string) (RunManifest, bool, error) {
	payload, err := os.ReadFile(m.RunManifestPath(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RunManifest{}, false, nil
		}
		return RunManifest{}, false, fmt.Errorf("stagecache: read run manifest: %w", err)
	}
	var manifest RunManifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return RunManifest{}, true, fmt.Errorf("stagecache: decode run manifest: %w", err)
	}
	if manifest.Version != runManifestVersion {
		return RunManifest{}, true, fmt.Errorf("stagecache: unsupported run manifest version %d", manifest.Version)
	}
	return manifest, true, nil
}
