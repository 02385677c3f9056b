package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/calliope-fm/calliope/internal/batch"
	"github.com/calliope-fm/calliope/internal/metadata"
	"github.com/calliope-fm/calliope/internal/models"
	"github.com/calliope-fm/calliope/internal/repositories"
	"github.com/calliope-fm/calliope/internal/shared"
)

func newQuietLogger() *log.Logger {
	return log.New(io.Discard)
}

type testEnv struct {
	db     *sql.DB
	store  *batch.Store
	router *BasicRouter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cfg := shared.DefaultConfig()
	cfg.Upload.UploadDir = t.TempDir()
	cfg.Upload.StagingDir = t.TempDir()

	logger := newQuietLogger()
	store := batch.NewStore(time.Minute, logger)
	builder := batch.NewBuilder(
		metadata.NewExtractor(logger),
		repositories.NewArtistRepository(db),
		logger,
	)

	router := NewBasicRouter()
	api := NewAPI(db, cfg, store, builder, logger)
	api.Register(router, nil)

	return &testEnv{db: db, store: store, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	return e.do(t, method, path, &body, "application/json")
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(into); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func multipartUpload(t *testing.T, names ...string) (io.Reader, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte("fake audio content for " + name)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func seedArtist(t *testing.T, db *sql.DB, name string) *models.PersistedArtist {
	t.Helper()

	repo := repositories.NewArtistRepository(db)
	artist := models.NewPersistedArtist(0, models.Artist{Name: name, Genre: "Rock"})
	if err := repo.Create(artist); err != nil {
		t.Fatalf("failed to seed artist: %v", err)
	}
	return artist
}

func seedTrack(t *testing.T, db *sql.DB, artistID, title, genre string) *models.PersistedTrack {
	t.Helper()

	repo := repositories.NewTrackRepository(db)
	track := models.NewPersistedTrack(0, artistID, models.Track{
		Title:    title,
		Genre:    genre,
		FilePath: "/uploads/" + title + ".mp3",
	})
	if err := repo.Create(track); err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}
	return track
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/health", nil, "")
	if recorder.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", recorder.Code)
	}
}

func TestPreviewUpload(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		env := newTestEnv(t)

		body, contentType := multipartUpload(t, "song one.mp3", "song two.mp3")
		recorder := env.do(t, http.MethodPost, "/api/upload/preview", body, contentType)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var preview struct {
			Token  string               `json:"token"`
			Tracks []batch.TrackPreview `json:"tracks"`
		}
		decodeBody(t, recorder, &preview)

		if preview.Token == "" {
			t.Fatal("expected a confirmation token")
		}
		if len(preview.Tracks) != 2 {
			t.Fatalf("expected 2 previews, got %d", len(preview.Tracks))
		}
		for _, track := range preview.Tracks {
			if track.ArtistState != batch.ArtistMissing {
				t.Errorf("tagless upload should have missing artist, got %q", track.ArtistState)
			}
		}

		confirm := env.doJSON(t, http.MethodPost, "/api/upload/confirm",
			map[string]any{"token": preview.Token, "confirm_new_artists": true})
		if confirm.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", confirm.Code, confirm.Body.String())
		}

		var result batch.CommitResult
		decodeBody(t, confirm, &result)
		if result.Skipped != 2 {
			t.Errorf("artistless tracks should be skipped, got %+v", result)
		}

		again := env.doJSON(t, http.MethodPost, "/api/upload/confirm",
			map[string]any{"token": preview.Token})
		if again.Code != http.StatusGone {
			t.Errorf("second confirm should be 410, got %d", again.Code)
		}
	})

	t.Run("EmptyUpload", func(t *testing.T) {
		env := newTestEnv(t)

		body, contentType := multipartUpload(t)
		recorder := env.do(t, http.MethodPost, "/api/upload/preview", body, contentType)
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("OnlyUnsupportedFiles", func(t *testing.T) {
		env := newTestEnv(t)

		body, contentType := multipartUpload(t, "readme.txt", "cover.jpg")
		recorder := env.do(t, http.MethodPost, "/api/upload/preview", body, contentType)
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("WrongMethod", func(t *testing.T) {
		env := newTestEnv(t)

		recorder := env.do(t, http.MethodGet, "/api/upload/preview", nil, "")
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", recorder.Code)
		}
	})
}

func TestConfirmUpload(t *testing.T) {
	t.Run("UnknownToken", func(t *testing.T) {
		env := newTestEnv(t)

		recorder := env.doJSON(t, http.MethodPost, "/api/upload/confirm",
			map[string]any{"token": "nope"})
		if recorder.Code != http.StatusGone {
			t.Errorf("expected 410, got %d", recorder.Code)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		env := newTestEnv(t)

		recorder := env.doJSON(t, http.MethodPost, "/api/upload/confirm", map[string]any{})
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		env := newTestEnv(t)

		token := env.store.Put(&batch.Payload{
			Tracks:    []batch.TrackPreview{{Title: "", FilePath: "/uploads/x.mp3", ArtistName: "Someone"}},
			CreatedAt: time.Now().UTC(),
		})

		recorder := env.doJSON(t, http.MethodPost, "/api/upload/confirm",
			map[string]any{"token": token, "confirm_new_artists": true})
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}

		var response struct {
			Violations []string `json:"violations"`
		}
		decodeBody(t, recorder, &response)
		if len(response.Violations) != 1 {
			t.Errorf("expected 1 violation, got %v", response.Violations)
		}
	})

	t.Run("CommitsPendingArtist", func(t *testing.T) {
		env := newTestEnv(t)

		token := env.store.Put(&batch.Payload{
			Tracks: []batch.TrackPreview{{
				Title:       "First Light",
				FilePath:    "/uploads/first-light.mp3",
				ArtistName:  "New Band",
				ArtistState: batch.ArtistPending,
			}},
			PendingArtists: []*batch.PendingArtist{{Name: "New Band", TrackIdx: []int{0}}},
			CreatedAt:      time.Now().UTC(),
		})

		recorder := env.doJSON(t, http.MethodPost, "/api/upload/confirm",
			map[string]any{"token": token, "confirm_new_artists": true})
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var result batch.CommitResult
		decodeBody(t, recorder, &result)
		if result.TracksCreated != 1 || result.ArtistsCreated != 1 {
			t.Errorf("expected 1 track and 1 artist, got %+v", result)
		}

		list := env.do(t, http.MethodGet, "/api/tracks", nil, "")
		if !strings.Contains(list.Body.String(), "First Light") {
			t.Error("committed track should show up in the listing")
		}
	})
}

func TestTrackEndpoints(t *testing.T) {
	t.Run("GetAndCounters", func(t *testing.T) {
		env := newTestEnv(t)

		artist := seedArtist(t, env.db, "The Beatles")
		track := seedTrack(t, env.db, artist.ID(), "Hey Jude", "Rock")

		recorder := env.do(t, http.MethodGet, "/api/tracks/"+track.ID(), nil, "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		played := env.do(t, http.MethodPost, "/api/tracks/"+track.ID()+"/play", nil, "")
		if played.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", played.Code)
		}

		var view trackResponse
		decodeBody(t, played, &view)
		if view.PlayCount != 1 {
			t.Errorf("expected play count 1, got %d", view.PlayCount)
		}

		liked := env.do(t, http.MethodPost, "/api/tracks/"+track.ID()+"/like", nil, "")
		decodeBody(t, liked, &view)
		if view.LikeCount != 1 {
			t.Errorf("expected like count 1, got %d", view.LikeCount)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		env := newTestEnv(t)

		recorder := env.do(t, http.MethodGet, "/api/tracks/missing", nil, "")
		if recorder.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("ListWithFilters", func(t *testing.T) {
		env := newTestEnv(t)

		artist := seedArtist(t, env.db, "The Beatles")
		seedTrack(t, env.db, artist.ID(), "Hey Jude", "Rock")
		seedTrack(t, env.db, artist.ID(), "Blue Tuesday", "Jazz")

		recorder := env.do(t, http.MethodGet, "/api/tracks?genre=Jazz", nil, "")
		var response struct {
			Tracks []trackResponse `json:"tracks"`
		}
		decodeBody(t, recorder, &response)
		if len(response.Tracks) != 1 || response.Tracks[0].Title != "Blue Tuesday" {
			t.Errorf("expected only the jazz track, got %+v", response.Tracks)
		}
	})

	t.Run("Recommendations", func(t *testing.T) {
		env := newTestEnv(t)

		artist := seedArtist(t, env.db, "The Beatles")
		seed := seedTrack(t, env.db, artist.ID(), "Hey Jude", "Rock")
		seedTrack(t, env.db, artist.ID(), "Let It Be", "Rock")

		recorder := env.do(t, http.MethodGet, "/api/tracks/"+seed.ID()+"/recommendations", nil, "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var response struct {
			Recommendations []trackResponse `json:"recommendations"`
		}
		decodeBody(t, recorder, &response)
		if len(response.Recommendations) != 1 || response.Recommendations[0].Title != "Let It Be" {
			t.Errorf("expected the sibling track, got %+v", response.Recommendations)
		}
	})
}

func TestArtistEndpoints(t *testing.T) {
	t.Run("ListAndGet", func(t *testing.T) {
		env := newTestEnv(t)

		artist := seedArtist(t, env.db, "The Beatles")

		list := env.do(t, http.MethodGet, "/api/artists", nil, "")
		if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), "The Beatles") {
			t.Errorf("expected artist in listing, got %d: %s", list.Code, list.Body.String())
		}

		get := env.do(t, http.MethodGet, "/api/artists/"+artist.ID(), nil, "")
		if get.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", get.Code)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		env := newTestEnv(t)

		artist := seedArtist(t, env.db, "The Beatles")
		track := seedTrack(t, env.db, artist.ID(), "Hey Jude", "Rock")

		deleted := env.do(t, http.MethodDelete, "/api/artists/"+artist.ID(), nil, "")
		if deleted.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", deleted.Code)
		}

		if got := env.do(t, http.MethodGet, "/api/artists/"+artist.ID(), nil, ""); got.Code != http.StatusNotFound {
			t.Errorf("deleted artist should be 404, got %d", got.Code)
		}
		if got := env.do(t, http.MethodGet, "/api/tracks/"+track.ID(), nil, ""); got.Code != http.StatusNotFound {
			t.Errorf("cascaded track should be 404, got %d", got.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request should be limited, got %d", second.Code)
	}
}
