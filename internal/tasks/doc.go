// Package tasks implements background maintenance for the upload pipeline.
//
// The [Sweeper] periodically discards previewed batches that were never
// confirmed and removes orphaned staging directories left behind by crashes
// or restarts. Run drives the loop off a ticker until its context is
// cancelled; RunOnce performs a single pass and reports what it removed.
package tasks
