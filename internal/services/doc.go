// Package services defines the error taxonomy and context annotations shared
// by the external collaborators (audio extraction, transcription, explanation,
// speaker identification, remote snapshot store) and the pipeline that drives
// them.
//
// Errors carry sentinel markers so the pipeline and sync engine can classify
// failures with errors.Is without inspecting message text.
package services
