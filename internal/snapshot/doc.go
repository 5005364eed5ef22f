// Package snapshot defines the canonical export document for a project and
// the pure merge function that reconciles two snapshots of the same project.
//
// The document shape is stable across devices: project fields, speakers,
// sentences with embedded keyword lists, a flat keyword list, and a computed
// progress block. Export produces it from local storage, Import applies it
// back as an upsert, and Merge combines a local and remote document without
// touching storage at all.
package snapshot
