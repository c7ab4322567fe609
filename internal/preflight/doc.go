// Package preflight provides readiness checks for the directories and
// optional services subburn depends on.
//
// The pipeline runs the directory checks before touching any file so that a
// read-only state directory is reported up front rather than halfway through
// a long transcription. The "subburn deps" command runs every check and
// renders the results.
//
// Each service check is gated by its config toggle; disabled features are
// skipped.
package preflight
