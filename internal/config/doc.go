// Package config loads, normalizes, and validates voicepipe configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment overrides: the named
// credentials (OPENAI_API_KEY, NOTION_TOKEN, ...) plus a generic
// DOTTED_KEY -> DOTTED_KEY_UPPER pass over every `toml`-tagged field. The
// Config type centralizes every knob the orchestrator and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
