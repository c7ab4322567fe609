// Package ffmpeg builds and runs the ffmpeg invocations subburn needs:
// extracting a mono 16 kHz PCM WAV for speech recognition, and re-encoding a
// video with a subtitle file burned into the frames.
package ffmpeg
