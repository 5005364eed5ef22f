// Package logs tails the pipeline log file for the CLI.
//
// It reads the last N lines with bounded memory and supports follow mode,
// polling for appended lines until the context is cancelled.
package logs
