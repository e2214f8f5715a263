// Package config loads, normalizes, and validates rafcdn configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RAFCDN_BASE_URL. The Config type centralizes every knob the CLI and the
// dashboard need, so the backend endpoints, upload limits and local state
// directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
