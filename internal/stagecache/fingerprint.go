package stagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"clive/internal/clips"
)

// SourceFingerprint identifies an input file by absolute path, size, and
// modification time. Hashing identity rather than content keeps the probe
// cheap for multi-gigabyte recordings; a touched or replaced file changes
// the fingerprint either way.
func SourceFingerprint(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat input: %w", err)
	}
	return digest("source", abs, strconv.FormatInt(info.Size(), 10), strconv.FormatInt(info.ModTime().UnixNano(), 10)), nil
}

// AudioFingerprint covers the extraction stage: the source identity plus the
// selected track ids.
func AudioFingerprint(sourceFP string, tracks []int) string {
	parts := make([]string, 0, len(tracks)+2)
	parts = append(parts, "audio", sourceFP)
	for _, track := range tracks {
		parts = append(parts, strconv.Itoa(track))
	}
	return digest(parts...)
}

// TranscriptFingerprint covers the transcription stage: the audio
// fingerprint plus the model and language that interpret it.
func TranscriptFingerprint(audioFP, model, language string) string {
	return digest("transcript", audioFP, model, language)
}

// ManifestFingerprint covers the derivation stage: the transcript
// fingerprint plus every rule parameter, the merge gap, and the media
// duration used for clamping.
func ManifestFingerprint(transcriptFP string, rules []clips.Rule, mergeGap, duration float64) string {
	parts := make([]string, 0, len(rules)+4)
	parts = append(parts, "clips", transcriptFP,
		strconv.FormatFloat(mergeGap, 'g', -1, 64),
		strconv.FormatFloat(duration, 'g', -1, 64))
	for _, rule := range rules {
		parts = append(parts, fmt.Sprintf("%s|%s|%s", rule.Keyword,
			strconv.FormatFloat(rule.Lead, 'g', -1, 64),
			strconv.FormatFloat(rule.Trail, 'g', -1, 64)))
	}
	return digest(parts...)
}

func digest(parts ...string) string {
	h := sha256.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ShortFingerprint abbreviates a fingerprint for log output.
func ShortFingerprint(fp string) string {
	if len(fp) <= 8 {
		return fp
	}
	return fp[:8]
}
