// Package language normalizes the transcription language handed to whisper.
//
// Whisper accepts either ISO 639-1 codes ("fr") or title-cased English
// language names ("French"). Codes are canonicalized through
// golang.org/x/text/language so three-letter forms collapse to their two-letter
// equivalent; names are title-cased with golang.org/x/text/cases.
package language
