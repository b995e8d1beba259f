package clips

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Manifest is the persisted cut list for one source file. Entry order
// matches clip order, so output numbering is stable across reruns.
type Manifest struct {
	Source   string  `json:"source"`
	MergeGap float64 `json:"merge_gap"`
	Clips    []Clip  `json:"clips"`
}

// OutputName returns the file name for the clip at the given zero-based
// index. Numbering starts at one.
func (m Manifest) OutputName(index int) string {
	stem := strings.TrimSuffix(filepath.Base(m.Source), filepath.Ext(m.Source))
	return fmt.Sprintf("clip_%d_%s.mp4", index+1, stem)
}

// EncodeManifest serializes the manifest as indented JSON.
func EncodeManifest(m Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode clip manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeManifest parses a manifest produced by EncodeManifest.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode clip manifest: %w", err)
	}
	return m, nil
}
