// Package services defines shared utilities consumed by the pipeline stages
// and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging and
//     tracing.
//   - Structured error markers plus the Wrap helper, and Kind, which turns a
//     marked error into the classification stored in run history.
//
// Subpackages hold the argument templates for the external tools (ffmpeg,
// whisper) so the pipeline never builds command lines by hand.
package services
