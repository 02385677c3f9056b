package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calliope-fm/calliope/internal/batch"
	"github.com/calliope-fm/calliope/internal/intake"
	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/recommend"
	"github.com/calliope-fm/calliope/internal/repositories"
	"github.com/calliope-fm/calliope/internal/shared"
)

// API bundles the upload pipeline and catalog stores behind HTTP handlers.
type API struct {
	intake    *intake.Intake
	builder   *batch.Builder
	store     *batch.Store
	committer *batch.Committer
	artists   *repositories.ArtistRepository
	tracks    *repositories.TrackRepository
	recommend *recommend.Service
	logger    *log.Logger
}

// NewAPI wires the handlers against the given database and upload settings.
func NewAPI(db *sql.DB, cfg *shared.Config, store *batch.Store, builder *batch.Builder, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{
		intake:    intake.New(cfg.Upload, logger),
		builder:   builder,
		store:     store,
		committer: batch.NewCommitter(db, store, logger),
		artists:   repositories.NewArtistRepository(db),
		tracks:    repositories.NewTrackRepository(db),
		recommend: recommend.NewService(db, logger),
		logger:    logger,
	}
}

// Register attaches every API route to the router. uploadLimit, when not nil,
// wraps only the upload endpoints.
func (a *API) Register(router Router, uploadLimit Middleware) {
	if uploadLimit == nil {
		uploadLimit = func(next http.Handler) http.Handler { return next }
	}

	router.Handle(http.MethodGet, "/api/health", http.HandlerFunc(a.health))

	router.Handle(http.MethodPost, "/api/upload/preview", uploadLimit(http.HandlerFunc(a.previewUpload)))
	router.Handle(http.MethodPost, "/api/upload/confirm", uploadLimit(http.HandlerFunc(a.confirmUpload)))

	router.Handle(http.MethodGet, "/api/tracks", http.HandlerFunc(a.listTracks))
	router.Handle(http.MethodGet, "/api/tracks/{id}", http.HandlerFunc(a.getTrack))
	router.Handle(http.MethodPost, "/api/tracks/{id}/play", a.counter((*repositories.TrackRepository).IncrementPlayCount))
	router.Handle(http.MethodPost, "/api/tracks/{id}/like", a.counter((*repositories.TrackRepository).AddLike))
	router.Handle(http.MethodPost, "/api/tracks/{id}/dislike", a.counter((*repositories.TrackRepository).AddDislike))
	router.Handle(http.MethodGet, "/api/tracks/{id}/recommendations", http.HandlerFunc(a.recommendations))

	router.Handle(http.MethodGet, "/api/artists", http.HandlerFunc(a.listArtists))
	router.Handle(http.MethodGet, "/api/artists/{id}", http.HandlerFunc(a.getArtist))
	router.Handle(http.MethodDelete, "/api/artists/{id}", http.HandlerFunc(a.deleteArtist))
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// previewUpload accepts a multipart batch under the "files" field, persists the
// audio, and returns the extracted previews with a confirmation token.
func (a *API) previewUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var files []intake.File
	for _, header := range r.MultipartForm.File["files"] {
		part, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload part")
			return
		}
		defer part.Close()
		files = append(files, intake.File{Name: header.Filename, Reader: part})
	}

	result, err := a.intake.Collect(files)
	if err != nil {
		writeError(w, intakeStatus(err), err.Error())
		return
	}

	payload := a.builder.Build(result.AudioFiles, result.StagingDirs)
	token := a.store.Put(payload)

	writeJSON(w, http.StatusOK, map[string]any{
		"token":           token,
		"tracks":          payload.Tracks,
		"pending_artists": payload.PendingArtists,
	})
}

type confirmRequest struct {
	Token             string `json:"token"`
	ConfirmNewArtists bool   `json:"confirm_new_artists"`
}

// confirmUpload commits a previously previewed batch.
func (a *API) confirmUpload(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	result, err := a.committer.Confirm(req.Token, req.ConfirmNewArtists)
	if err != nil {
		var verr *batch.ValidationError
		switch {
		case errors.Is(err, shared.ErrBatchExpired):
			writeError(w, http.StatusGone, "batch expired or already confirmed")
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      "validation failed",
				"violations": verr.Violations,
			})
		default:
			a.logger.Error("batch commit failed", "error", err)
			writeError(w, http.StatusInternalServerError, "commit failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (a *API) listTracks(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	for _, key := range []string{"artist_id", "genre", "search"} {
		if value := r.URL.Query().Get(key); value != "" {
			criteria[key] = value
		}
	}

	tracks, err := a.tracks.List(criteria)
	if err != nil {
		a.logger.Error("track listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": trackViews(tracks)})
}

func (a *API) getTrack(w http.ResponseWriter, r *http.Request) {
	track, err := a.tracks.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, trackView(track))
}

// counter adapts a TrackRepository counter method into a handler.
func (a *API) counter(bump func(*repositories.TrackRepository, string) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := bump(a.tracks, id); err != nil {
			writeError(w, notFoundStatus(err), err.Error())
			return
		}
		track, err := a.tracks.Get(id)
		if err != nil {
			writeError(w, notFoundStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, trackView(track))
	})
}

func (a *API) recommendations(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.recommend.ForTrack(r.PathValue("id"))
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": trackViews(tracks)})
}

func (a *API) listArtists(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	for _, key := range []string{"genre", "country"} {
		if value := r.URL.Query().Get(key); value != "" {
			criteria[key] = value
		}
	}

	artists, err := a.artists.List(criteria)
	if err != nil {
		a.logger.Error("artist listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	views := make([]artistResponse, len(artists))
	for i, artist := range artists {
		views[i] = artistView(artist)
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": views})
}

func (a *API) getArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := a.artists.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, artistView(artist))
}

// deleteArtist removes an artist; their tracks go with them via the schema's
// cascade.
func (a *API) deleteArtist(w http.ResponseWriter, r *http.Request) {
	if err := a.artists.Delete(r.PathValue("id")); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// trackResponse is the JSON projection of a catalog track.
type trackResponse struct {
	ID           string    `json:"id"`
	ArtistID     string    `json:"artist_id"`
	Title        string    `json:"title"`
	Album        string    `json:"album,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	ReleaseYear  int       `json:"release_year,omitempty"`
	FileSize     int64     `json:"file_size"`
	Bitrate      int       `json:"bitrate,omitempty"`
	SampleRate   int       `json:"sample_rate,omitempty"`
	PlayCount    int       `json:"play_count"`
	LikeCount    int       `json:"like_count"`
	DislikeCount int       `json:"dislike_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type artistResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func trackView(track *models.PersistedTrack) trackResponse {
	return trackResponse{
		ID:           track.ID(),
		ArtistID:     track.ArtistID(),
		Title:        track.Title(),
		Album:        track.Album(),
		Genre:        track.Genre(),
		Duration:     track.Duration(),
		ReleaseYear:  track.ReleaseYear(),
		FileSize:     track.FileSize(),
		Bitrate:      track.Bitrate(),
		SampleRate:   track.SampleRate(),
		PlayCount:    track.PlayCount(),
		LikeCount:    track.LikeCount(),
		DislikeCount: track.DislikeCount(),
		CreatedAt:    track.CreatedAt(),
	}
}

func trackViews(tracks []*models.PersistedTrack) []trackResponse {
	views := make([]trackResponse, len(tracks))
	for i, track := range tracks {
		views[i] = trackView(track)
	}
	return views
}

func artistView(artist *models.PersistedArtist) artistResponse {
	return artistResponse{
		ID:        artist.ID(),
		Name:      artist.Name(),
		Bio:       artist.Bio(),
		Genre:     artist.Genre(),
		Country:   artist.Country(),
		CreatedAt: artist.CreatedAt(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// intakeStatus maps intake failures to HTTP status codes.
func intakeStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrFileTooLarge), errors.Is(err, shared.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func notFoundStatus(err error) int {
	if errors.Is(err, shared.ErrTrackNotFound) || errors.Is(err, shared.ErrArtistNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
