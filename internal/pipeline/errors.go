package pipeline

import "errors"

var (
	// ErrInputNotFound reports that the input video does not exist.
	ErrInputNotFound = errors.New("input video not found")
	// ErrSubtitleNotFound reports that transcription produced no .srt file.
	ErrSubtitleNotFound = errors.New("no .srt file found after transcription")
)
