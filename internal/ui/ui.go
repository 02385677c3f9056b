package ui

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/recommend"
	"github.com/calliope-fm/calliope/internal/repositories"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ArtistListView ViewState = iota
	TrackListView
	TrackDetailView
)

// Model represents the TUI application state.
type Model struct {
	view    ViewState
	width   int
	height  int
	artists *repositories.ArtistRepository
	tracks  *repositories.TrackRepository
	related *recommend.Service

	artistList     list.Model
	trackList      list.Model
	selectedArtist *models.PersistedArtist
	selectedTrack  *models.PersistedTrack
	relatedTracks  []*models.PersistedTrack

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model reading from the given database.
func NewModel(db *sql.DB) *Model {
	return &Model{
		view:    ArtistListView,
		artists: repositories.NewArtistRepository(db),
		tracks:  repositories.NewTrackRepository(db),
		related: recommend.NewService(db, nil),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading the artist catalog.
func (m *Model) Init() tea.Cmd {
	return m.loadArtists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.artistList.Width() == 0 {
			m.artistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ArtistListView:
			return m.handleArtistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case TrackDetailView:
			return m.handleDetailKeys(msg)
		}

	case artistsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.artists))
		for i, artist := range msg.artists {
			items[i] = artistItem{artist: artist}
		}
		m.artistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.artistList.Title = "Artists"
		m.artistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tracksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ArtistListView
			return m, nil
		}
		m.selectedArtist = msg.artist
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks by %s", msg.artist.Name())
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case detailLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = TrackListView
			return m, nil
		}
		m.selectedTrack = msg.track
		m.relatedTracks = msg.related
		m.view = TrackDetailView
		return m, nil

	case counterBumpedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selectedTrack = msg.track
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ArtistListView:
		return m.renderArtistList()
	case TrackListView:
		return m.renderTrackList()
	case TrackDetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleArtistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.artistList.SelectedItem(); selected != nil {
			if item, ok := selected.(artistItem); ok {
				return m, m.loadTracks(item.artist)
			}
		}
	}

	var cmd tea.Cmd
	m.artistList, cmd = m.artistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ArtistListView
		return m, nil
	case "enter":
		if selected := m.trackList.SelectedItem(); selected != nil {
			if item, ok := selected.(trackItem); ok {
				return m, m.loadDetail(item.track.ID())
			}
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		// Reload so counters and orderings reflect plays and likes.
		return m, m.loadTracks(m.selectedArtist)
	case "p":
		return m, m.bumpCounter(m.selectedTrack.ID(), m.tracks.IncrementPlayCount)
	case "l":
		return m, m.bumpCounter(m.selectedTrack.ID(), m.tracks.AddLike)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ArtistListView:
		m.artistList, cmd = m.artistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadArtists() tea.Cmd {
	return func() tea.Msg {
		artists, err := m.artists.List(nil)
		return artistsLoadedMsg{artists: artists, err: err}
	}
}

func (m *Model) loadTracks(artist *models.PersistedArtist) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.tracks.List(map[string]any{"artist_id": artist.ID()})
		return tracksLoadedMsg{artist: artist, tracks: tracks, err: err}
	}
}

func (m *Model) loadDetail(trackID string) tea.Cmd {
	return func() tea.Msg {
		track, err := m.tracks.Get(trackID)
		if err != nil {
			return detailLoadedMsg{err: err}
		}
		related, err := m.related.ForTrack(trackID)
		return detailLoadedMsg{track: track, related: related, err: err}
	}
}

func (m *Model) bumpCounter(trackID string, bump func(string) error) tea.Cmd {
	return func() tea.Msg {
		if err := bump(trackID); err != nil {
			return counterBumpedMsg{err: err}
		}
		track, err := m.tracks.Get(trackID)
		return counterBumpedMsg{track: track, err: err}
	}
}

func (m *Model) renderArtistList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.artistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderDetail() string {
	track := m.selectedTrack
	title := styles.title.Render(track.Title())

	info := fmt.Sprintf("Artist: %s\nDuration: %s\nPlays: %d  Likes: %d  Dislikes: %d",
		m.selectedArtist.Name(), track.FormatDuration(),
		track.PlayCount(), track.LikeCount(), track.DislikeCount())
	if track.Album() != "" {
		info = fmt.Sprintf("Album: %s\n%s", track.Album(), info)
	}
	if track.Genre() != "" {
		info = fmt.Sprintf("Genre: %s\n%s", track.Genre(), info)
	}

	related := ""
	if len(m.relatedTracks) > 0 {
		related = "\n\n" + styles.ok.Render("Related tracks")
		for _, rec := range m.relatedTracks {
			related += fmt.Sprintf("\n  • %s [%s]", rec.Title(), rec.FormatDuration())
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.play, m.keys.like, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, related, helpView)
}
