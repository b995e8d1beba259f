package config

import (
	"errors"
	"fmt"
)

var validModelNames = map[string]struct{}{
	"tiny": {}, "tiny.en": {},
	"base": {}, "base.en": {},
	"small": {}, "small.en": {},
	"medium": {}, "medium.en": {},
	"large": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateTracks(); err != nil {
		return err
	}
	if err := c.validateClips(); err != nil {
		return err
	}
	return c.validateKeywords()
}

func (c *Config) validateModel() error {
	if _, ok := validModelNames[c.Model.Name]; !ok {
		return fmt.Errorf("model.name %q is not a known whisper model", c.Model.Name)
	}
	return nil
}

func (c *Config) validateTracks() error {
	if len(c.Tracks.AudioTracks) == 0 {
		return errors.New("tracks.audio_tracks must select at least one track")
	}
	seen := make(map[int]struct{}, len(c.Tracks.AudioTracks))
	for _, track := range c.Tracks.AudioTracks {
		if track < 1 {
			return fmt.Errorf("tracks.audio_tracks: track ids are 1-based, got %d", track)
		}
		if _, dup := seen[track]; dup {
			return fmt.Errorf("tracks.audio_tracks: track %d listed twice", track)
		}
		seen[track] = struct{}{}
	}
	return nil
}

func (c *Config) validateClips() error {
	if c.Clips.LeadSeconds < 0 {
		return errors.New("clips.lead_seconds must not be negative")
	}
	if c.Clips.TrailSeconds < 0 {
		return errors.New("clips.trail_seconds must not be negative")
	}
	if c.Clips.MergeGapSeconds < 0 {
		return errors.New("clips.merge_gap_seconds must not be negative")
	}
	if c.Workflow.Parallelism < 0 {
		return errors.New("workflow.parallelism must not be negative")
	}
	return nil
}

func (c *Config) validateKeywords() error {
	for _, kw := range c.Keywords {
		if kw.LeadSeconds < 0 || kw.TrailSeconds < 0 {
			return fmt.Errorf("keyword %q: lead/trail overrides must not be negative", kw.Keyword)
		}
	}
	return nil
}

// RequireKeywords rejects configurations without any keyword rules. This is
// separate from Validate so inspection commands (cache, runs) work without a
// keyword list.
func (c *Config) RequireKeywords() error {
	if len(c.Keywords) == 0 {
		return errors.New("no keywords configured; add [[keyword]] entries or pass --clips")
	}
	return nil
}
