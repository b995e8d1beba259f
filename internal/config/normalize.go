package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeModel()
	c.normalizeClips()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeKeywords()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeModel() {
	c.Model.Name = strings.ToLower(strings.TrimSpace(c.Model.Name))
	if c.Model.Name == "" {
		c.Model.Name = defaultModelName
	}
	c.Model.Language = strings.ToLower(strings.TrimSpace(c.Model.Language))
	if c.Model.Language == "" {
		c.Model.Language = defaultModelLanguage
	}
	c.Model.Binary = strings.TrimSpace(c.Model.Binary)
	if c.Model.Binary == "" {
		c.Model.Binary = defaultWhisperBinary
	}
}

func (c *Config) normalizeClips() {
	if c.Clips.LeadSeconds == 0 {
		c.Clips.LeadSeconds = defaultLeadSeconds
	}
	if c.Clips.TrailSeconds == 0 {
		c.Clips.TrailSeconds = defaultTrailSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.ExtractTimeout <= 0 {
		c.Workflow.ExtractTimeout = defaultExtractTimeout
	}
	if c.Workflow.TranscribeTimeout <= 0 {
		c.Workflow.TranscribeTimeout = defaultTranscribeTimeout
	}
	if c.Workflow.CutTimeout <= 0 {
		c.Workflow.CutTimeout = defaultCutTimeout
	}
	if c.Workflow.DownloadTimeout <= 0 {
		c.Workflow.DownloadTimeout = defaultDownloadTimeout
	}
	if c.Workflow.DownloadRetries <= 0 {
		c.Workflow.DownloadRetries = defaultDownloadRetries
	}
	if c.Workflow.DownloadBackoffSec <= 0 {
		c.Workflow.DownloadBackoffSec = defaultDownloadBackoffSec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeKeywords() {
	cleaned := c.Keywords[:0]
	for _, kw := range c.Keywords {
		kw.Keyword = strings.TrimSpace(kw.Keyword)
		if kw.Keyword == "" {
			continue
		}
		cleaned = append(cleaned, kw)
	}
	c.Keywords = cleaned
}
