// Package server provides HTTP routing, middleware, and the handlers for the
// catalog upload API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and registers
// method-qualified patterns, so unmatched methods get 405 responses from the mux.
//
// # Upload Pipeline
//
// [API] exposes the two-phase upload flow: POST /api/upload/preview persists a
// batch and returns track previews with a confirmation token, and
// POST /api/upload/confirm commits the previewed batch to the catalog. The
// upload endpoints carry a process-wide rate limit; catalog reads do not.
//
// # Catalog Endpoints
//
// Tracks and artists are served under /api/tracks and /api/artists, including
// play/like/dislike counters and per-track recommendations.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
