// Package logging constructs the slog loggers used across dutchlearn.
//
// It supports console and JSON output, file fan-out under the configured log
// directory, typed attribute constructors, and context-derived fields so the
// pipeline and sync engine can annotate log lines with project and stage
// information without threading loggers manually.
package logging
