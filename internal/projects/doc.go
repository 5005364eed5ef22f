// Package projects manages persistence for projects and their transcribed
// sentences, keywords, and speakers, backed by SQLite.
//
// The store applies an explicit, versioned, idempotent migration list at open
// time and exposes typed mutation methods per pipeline stage transition rather
// than a generic field updater, so every legitimate status change is visible
// in the API surface.
package projects
