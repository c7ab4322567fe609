// Package pipeline burns machine-transcribed subtitles into a video.
//
// A run walks a fixed sequence of stages, each a precondition for the next:
//
//  1. validate the input path exists
//  2. extract a mono 16 kHz PCM WAV next to the input (<base>.wav)
//  3. transcribe the WAV with whisper
//  4. locate the first <base>*.srt in lexical order
//  5. burn the subtitles into <base>_with_subs.mp4 with ffmpeg
//  6. remove <base>.mp3/.wav/.txt/.vtt/.tsv/.json
//
// Every failure is returned as an error tagged with a services marker so the
// caller can classify it; nothing is printed or retried here. Stage
// transitions are recorded in history, published as events, and traced.
package pipeline
