package ffmpeg

import (
	"strings"

	"subburn/internal/procexec"
)

// Audio parameters whisper expects.
const (
	AudioCodec      = "pcm_s16le"
	AudioSampleRate = "16000"
	AudioChannels   = "1"
)

// BurnOptions controls the encoder settings of the burn stage.
type BurnOptions struct {
	VideoCodec string
	AudioCodec string
	Quiet      bool
}

// ExtractAudioArgs returns the arguments that write source's audio to dest as
// mono, 16 kHz, 16-bit PCM.
func ExtractAudioArgs(source, dest string, quiet bool) []string {
	args := baseArgs(quiet)
	return append(args,
		"-i", procexec.PathArg(source),
		"-vn",
		"-acodec", AudioCodec,
		"-ar", AudioSampleRate,
		"-ac", AudioChannels,
		procexec.PathArg(dest),
	)
}

// BurnSubtitlesArgs returns the arguments that re-encode source with the
// subtitle file composited into the video and the audio stream copied.
func BurnSubtitlesArgs(source, subtitle, dest string, opts BurnOptions) []string {
	videoCodec := strings.TrimSpace(opts.VideoCodec)
	if videoCodec == "" {
		videoCodec = "libx264"
	}
	audioCodec := strings.TrimSpace(opts.AudioCodec)
	if audioCodec == "" {
		audioCodec = "copy"
	}
	args := baseArgs(opts.Quiet)
	return append(args,
		"-i", procexec.PathArg(source),
		"-vf", SubtitlesFilter(subtitle),
		"-c:v", videoCodec,
		"-c:a", audioCodec,
		procexec.PathArg(dest),
	)
}

// SubtitlesFilter renders the subtitles filter for path. The path is escaped
// twice: once as a filter option value and once for the filtergraph parser.
func SubtitlesFilter(path string) string {
	return "subtitles=" + escapeFiltergraph(escapeOptionValue(path))
}

func baseArgs(quiet bool) []string {
	args := []string{"-y", "-hide_banner"}
	if quiet {
		args = append(args, "-loglevel", "error")
	}
	return args
}

var (
	optionValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	filtergraphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

func escapeOptionValue(value string) string {
	return optionValueEscaper.Replace(value)
}

func escapeFiltergraph(value string) string {
	return filtergraphEscaper.Replace(value)
}
