// Package whisper drives the openai-whisper command line tool, which turns a
// WAV file into subtitle and transcript files named after the audio file.
package whisper
