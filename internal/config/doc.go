// Package config loads, normalizes, and validates subburn configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from --config, ~/.config/subburn/config.toml,
// or ./subburn.toml. The Config type centralizes every knob the pipeline and
// CLI need: tool binaries, whisper language/task/model, encoder codecs, the
// cleanup list, and the state directory that holds history, locks, and logs.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, a whisper-ready language value, and clear validation errors.
package config
