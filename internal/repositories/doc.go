// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Deletes are hard deletes: removing an artist cascades to its tracks through the
// foreign key constraint, keeping the artist -> track ownership invariant intact.
//
// Key Implementations:
//   - [ArtistRepository] : Artist persistence with case-insensitive name lookups
//   - [TrackRepository] : Track persistence with usage counters and ranking queries
//
// Sequence numbers provide stable, human-readable ordering (e.g., artist #42, track #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
