// Package config loads, normalizes, and validates timedtext configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the TIMEDTEXT_DATA_DIR environment
// fallback. The Config type centralizes every knob the CLI and the transcript
// core need: storage and log directories, the unknown-speaker label, alignment
// tolerance, caption segmentation limits, and rich-document styling.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
