// Package models defines the persistent data model for the catalog.
//
// Transfer types (plain structs, no identity):
//   - [Artist] : Artist profile fields (name, bio, genre, country)
//   - [Track] : Extracted audio metadata for a single track
//
// Persisted types (implement [Model]):
//   - [PersistedArtist] : Catalog artist with identity and timestamps
//   - [PersistedTrack] : Catalog track with identity, owning artist, and usage counters
//
// Persisted models are created through their constructors and mutated through
// setters so repositories control identity and timestamp handling.
package models
