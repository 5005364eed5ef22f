// Package config loads, normalizes, and validates dutchlearn configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ASSEMBLYAI_API_KEY and OPENAI_API_KEY. The Config type centralizes every
// knob the CLI needs: storage directories, transcription and explanation
// service credentials, pipeline tuning, and sync endpoints.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
