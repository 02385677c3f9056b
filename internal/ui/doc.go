// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view catalog browser:
//  1. [ArtistListView] : Browse catalog artists
//  2. [TrackListView] : Browse an artist's tracks
//  3. [TrackDetailView] : Track metadata, counters, and related tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Catalog reads run as [tea.Cmd] functions so the interface never blocks on the database.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p/l, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
