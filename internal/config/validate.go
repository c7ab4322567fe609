package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpegBinary == "" {
		return errors.New("tools.ffmpeg_binary must be set")
	}
	if c.Tools.WhisperBinary == "" {
		return errors.New("tools.whisper_binary must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Task {
	case "transcribe", "translate":
	default:
		return fmt.Errorf("transcription.task must be transcribe or translate (got %q)", c.Transcription.Task)
	}
	return nil
}

func (c *Config) validateCleanup() error {
	for _, ext := range c.Cleanup.Extensions {
		if strings.ContainsAny(ext, `/\`) || filepath.Ext(ext) != ext {
			return fmt.Errorf("cleanup.extensions: %q is not a file extension", ext)
		}
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.StepTimeoutSeconds < 0 {
		return errors.New("run.step_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
}
