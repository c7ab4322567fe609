// Package main hosts the subburn CLI.
//
// `subburn <video>` extracts the audio track with ffmpeg, transcribes it with
// whisper, and burns the resulting subtitles into `<base>_with_subs.mp4`.
// The config, deps, and history subcommands manage configuration, check the
// external tools, and inspect the SQLite run history.
package main
