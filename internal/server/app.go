package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/calliope-fm/calliope/internal/batch"
	"github.com/calliope-fm/calliope/internal/shared"
)

// New builds the configured HTTP server with the full API mounted, logging on
// every request, and a rate limit on the upload endpoints.
func New(db *sql.DB, cfg *shared.Config, store *batch.Store, builder *batch.Builder, logger *log.Logger) *http.Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(Logging(logger))

	api := NewAPI(db, cfg, store, builder, logger)
	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	api.Register(router, RateLimit(limiter))

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  time.Minute,
	}
}
