package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/model"
	"golang.org/x/sync/singleflight"
)

// Key scopes one attempt: a test reached through a lesson within a course.
type Key struct {
	TestID   string
	LessonID string
	CourseID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.CourseID, k.LessonID, k.TestID)
}

// AttemptStore holds the current AttemptState for one key. It is the single
// writer for that attempt; navigation, layout and results all read snapshots
// from it. Fetch failures keep the previous (possibly stale) state visible
// alongside LastError, so pages can choose between stale content, a retry
// affordance, or a not-found state.
type AttemptStore struct {
	key    Key
	def    *model.TestDefinition
	client api.Client
	flight singleflight.Group

	mu      sync.RWMutex
	state   model.AttemptState
	lastErr error
	closed  bool
}

func NewAttemptStore(key Key, def *model.TestDefinition, client api.Client) *AttemptStore {
	return &AttemptStore{key: key, def: def, client: client}
}

func (s *AttemptStore) Key() Key { return s.key }

func (s *AttemptStore) Definition() *model.TestDefinition { return s.def }

// Fetch loads the attempt state from the server. Concurrent fetches collapse
// into one in-flight request. Errors are recorded, not thrown past the store:
// the previous state stays visible and Retry re-issues the same fetch.
func (s *AttemptStore) Fetch(ctx context.Context) (model.AttemptState, error) {
	_, err, _ := s.flight.Do("state", func() (any, error) {
		fetched, err := s.client.FetchState(ctx, s.key.TestID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			log.Debug().Str("key", s.key.String()).Msg("Discarding state fetched after store teardown")
			return nil, ErrSessionClosed
		}
		if err != nil {
			s.lastErr = err
			log.Error().Err(err).Str("key", s.key.String()).Msg("Failed to fetch attempt state")
			return nil, fmt.Errorf("fetching attempt state for %s: %w", s.key.TestID, err)
		}
		s.state = fetched
		s.lastErr = nil
		return fetched, nil
	})
	if err != nil {
		return s.State(), err
	}
	return s.State(), nil
}

// Retry re-issues the exact same fetch after a failure.
func (s *AttemptStore) Retry(ctx context.Context) (model.AttemptState, error) {
	return s.Fetch(ctx)
}

// State returns a deep snapshot of the current attempt state, or nil when no
// fetch has succeeded yet. Snapshots never alias the store's maps.
func (s *AttemptStore) State() model.AttemptState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch st := s.state.(type) {
	case *model.ActiveAttempt:
		return st.Clone()
	case *model.CompletedAttempt:
		return st.Clone()
	default:
		return nil
	}
}

// LastError returns the error recorded by the most recent failed fetch, or
// nil after a success.
func (s *AttemptStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Progress returns the answered fraction for an active attempt, the final
// percentage for a completed one, and 0 before the first fetch.
func (s *AttemptStore) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch st := s.state.(type) {
	case *model.ActiveAttempt:
		return st.Progress(s.def.TaskCount())
	case *model.CompletedAttempt:
		return st.Percentage
	default:
		return 0
	}
}

// ApplyAnswer merges a persisted answer into an active attempt. Mutating a
// completed attempt is a caller bug: it is rejected and logged, and the state
// is left untouched.
func (s *AttemptStore) ApplyAnswer(taskID string, ans model.SubmittedAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Debug().Str("key", s.key.String()).Str("taskID", taskID).Msg("Discarding answer applied after store teardown")
		return ErrSessionClosed
	}
	switch st := s.state.(type) {
	case *model.ActiveAttempt:
		st.Answers[taskID] = ans
		st.LastTaskID = taskID
		return nil
	case *model.CompletedAttempt:
		log.Error().Str("key", s.key.String()).Str("taskID", taskID).Msg("ApplyAnswer called on a completed attempt")
		return ErrAttemptCompleted
	default:
		return ErrStateNotLoaded
	}
}

// ApplyCompletion replaces the state wholesale with the server's terminal
// record. Repeated application is a no-op once the attempt is completed.
func (s *AttemptStore) ApplyCompletion(completed *model.CompletedAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Debug().Str("key", s.key.String()).Msg("Discarding completion applied after store teardown")
		return ErrSessionClosed
	}
	if _, done := s.state.(*model.CompletedAttempt); done {
		return nil
	}
	s.state = completed.Clone()
	s.lastErr = nil
	return nil
}

// Close tears the store down. Results of requests still in flight are
// discarded when they land; the underlying requests are not cancelled.
func (s *AttemptStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
