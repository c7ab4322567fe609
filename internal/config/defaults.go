package config

const (
	defaultConfigPath          = "~/.config/subburn/config.toml"
	defaultFFmpegBinary        = "ffmpeg"
	defaultWhisperBinary       = "whisper"
	defaultLanguage            = "French"
	defaultTask                = "transcribe"
	defaultVideoCodec          = "libx264"
	defaultAudioCodec          = "copy"
	defaultEventsSubjectPrefix = "subburn.runs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// DefaultCleanupExtensions lists the artifact suffixes removed after a
// successful burn.
func DefaultCleanupExtensions() []string {
	return []string{".mp3", ".wav", ".txt", ".vtt", ".tsv", ".json"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir(),
		},
		Tools: Tools{
			FFmpegBinary:  defaultFFmpegBinary,
			WhisperBinary: defaultWhisperBinary,
		},
		Transcription: Transcription{
			Language: defaultLanguage,
			Task:     defaultTask,
		},
		Burn: Burn{
			VideoCodec: defaultVideoCodec,
			AudioCodec: defaultAudioCodec,
		},
		Cleanup: Cleanup{
			Enabled:    true,
			Extensions: DefaultCleanupExtensions(),
		},
		Run: Run{
			Quiet: true,
		},
		History: History{
			Enabled: true,
		},
		Events: Events{
			SubjectPrefix: defaultEventsSubjectPrefix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
