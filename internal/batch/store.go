package batch

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/calliope-fm/calliope/internal/shared"
)

// Store holds previewed batch payloads keyed by opaque tokens until they are
// confirmed or expire.
//
// The store is process-local; tokens do not survive a restart. Pop is the
// serialization point for concurrent confirms of the same token: exactly one
// caller observes the payload.
type Store struct {
	mu       sync.Mutex
	payloads map[string]*Payload
	ttl      time.Duration
	logger   *log.Logger
}

// NewStore creates a Store whose payloads expire after ttl.
func NewStore(ttl time.Duration, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		payloads: map[string]*Payload{},
		ttl:      ttl,
		logger:   logger,
	}
}

// Put stores the payload under a fresh random token and returns the token.
func (s *Store) Put(payload *Payload) string {
	token := uuid.New().String()

	s.mu.Lock()
	s.payloads[token] = payload
	s.mu.Unlock()

	return token
}

// Pop atomically removes and returns the payload for token. The second return
// is false when the token is unknown, expired, or already consumed.
func (s *Store) Pop(token string) (*Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, ok := s.payloads[token]
	if !ok {
		return nil, false
	}
	delete(s.payloads, token)

	if s.expired(payload) {
		// Consumed but unusable; clean its staging like the sweep would.
		removeStagingDirs(payload, s.logger)
		return nil, false
	}

	return payload, true
}

// Len returns the number of pending batches.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

// Sweep removes expired payloads and their staging directories, returning the
// number of batches discarded.
func (s *Store) Sweep() int {
	s.mu.Lock()
	var expired []*Payload
	for token, payload := range s.payloads {
		if s.expired(payload) {
			delete(s.payloads, token)
			expired = append(expired, payload)
		}
	}
	s.mu.Unlock()

	for _, payload := range expired {
		removeStagingDirs(payload, s.logger)
	}

	if len(expired) > 0 {
		s.logger.Info("discarded expired upload batches", "count", len(expired))
	}
	return len(expired)
}

func (s *Store) expired(payload *Payload) bool {
	if s.ttl <= 0 {
		return false
	}
	return time.Since(payload.CreatedAt) > s.ttl
}

// removeStagingDirs deletes the payload's staging directories, best effort.
func removeStagingDirs(payload *Payload, logger *log.Logger) {
	for _, dir := range payload.StagingDirs {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove staging directory", "path", dir, "error", err)
		}
	}
}
