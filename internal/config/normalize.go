package config

import (
	"fmt"
	"strings"

	langpkg "subburn/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeBurn()
	c.normalizeCleanup()
	c.normalizeEvents()
	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary == "" {
		c.Tools.FFmpegBinary = defaultFFmpegBinary
	}
	c.Tools.WhisperBinary = strings.TrimSpace(c.Tools.WhisperBinary)
	if c.Tools.WhisperBinary == "" {
		c.Tools.WhisperBinary = defaultWhisperBinary
	}
}

func (c *Config) normalizeTranscription() error {
	lang, err := langpkg.Normalize(c.Transcription.Language)
	if err != nil {
		return fmt.Errorf("transcription.language: %w", err)
	}
	c.Transcription.Language = lang
	c.Transcription.Task = strings.ToLower(strings.TrimSpace(c.Transcription.Task))
	if c.Transcription.Task == "" {
		c.Transcription.Task = defaultTask
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if strings.TrimSpace(c.Transcription.OutputDir) != "" {
		if c.Transcription.OutputDir, err = expandPath(c.Transcription.OutputDir); err != nil {
			return fmt.Errorf("transcription.output_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeBurn() {
	c.Burn.VideoCodec = strings.TrimSpace(c.Burn.VideoCodec)
	if c.Burn.VideoCodec == "" {
		c.Burn.VideoCodec = defaultVideoCodec
	}
	c.Burn.AudioCodec = strings.TrimSpace(c.Burn.AudioCodec)
	if c.Burn.AudioCodec == "" {
		c.Burn.AudioCodec = defaultAudioCodec
	}
}

func (c *Config) normalizeCleanup() {
	if len(c.Cleanup.Extensions) == 0 {
		c.Cleanup.Extensions = DefaultCleanupExtensions()
		return
	}
	exts := make([]string, 0, len(c.Cleanup.Extensions))
	seen := make(map[string]struct{}, len(c.Cleanup.Extensions))
	for _, ext := range c.Cleanup.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = DefaultCleanupExtensions()
	}
	c.Cleanup.Extensions = exts
}

func (c *Config) normalizeEvents() {
	c.Events.NATSURL = strings.TrimSpace(c.Events.NATSURL)
	c.Events.SubjectPrefix = strings.Trim(strings.TrimSpace(c.Events.SubjectPrefix), ".")
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = defaultEventsSubjectPrefix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
