package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/eventbus"
	"github.com/studyline/testflow/internal/model"
)

// Session is one learner's live attempt: the fetched definition plus the
// store, pipeline and completion transition scoped to a single key.
type Session struct {
	id         string
	key        Key
	def        *model.TestDefinition
	store      *AttemptStore
	pipeline   *SubmissionPipeline
	completion *CompletionTransition
}

func (s *Session) ID() string { return s.id }

func (s *Session) Key() Key { return s.key }

func (s *Session) Definition() *model.TestDefinition { return s.def }

func (s *Session) Store() *AttemptStore { return s.store }

func (s *Session) Phase() SubmissionPhase { return s.pipeline.Phase() }

// State returns a read-only snapshot of the attempt.
func (s *Session) State() model.AttemptState { return s.store.State() }

// Navigate computes the pagination context for the given task page.
func (s *Session) Navigate(taskID string) (*NavigationContext, error) {
	return Navigate(s.def, taskID, s.store.State())
}

// Pagination lists every task with its answered flag.
func (s *Session) Pagination() []PageEntry {
	return Pagination(s.def, s.store.State())
}

// Submit runs one answer through the submission pipeline.
func (s *Session) Submit(ctx context.Context, sub Submission) error {
	return s.pipeline.Submit(ctx, sub)
}

// Finalize runs the completion transition without a preceding submission, for
// the learner who re-opens an attempt whose last task was answered in a prior
// visit and simply confirms completion.
func (s *Session) Finalize(ctx context.Context) (*model.CompletedAttempt, error) {
	return s.completion.Finalize(ctx)
}

// Manager owns the attempt sessions of one authenticated user. Concurrent
// opens for the same key collapse into one, and a logout event published on
// the bus tears every session down.
type Manager struct {
	client  api.Client
	catalog Catalog

	mu       sync.Mutex
	sessions map[Key]*Session
	opening  map[Key]chan struct{}
}

func NewManager(client api.Client, catalog Catalog, bus *eventbus.Bus) *Manager {
	m := &Manager{
		client:   client,
		catalog:  catalog,
		sessions: make(map[Key]*Session),
		opening:  make(map[Key]chan struct{}),
	}
	if bus != nil {
		bus.Subscribe(eventbus.TopicLogout, func(any) {
			log.Info().Msg("Logout published, tearing down attempt sessions")
			m.CloseAll()
		})
	}
	return m
}

// Open fetches the definition and the attempt state for key and returns the
// live session. Repeated opens return the existing session; concurrent opens
// wait for the first one instead of issuing duplicate fetches.
func (m *Manager) Open(ctx context.Context, key Key) (*Session, error) {
	for {
		m.mu.Lock()
		if sess, ok := m.sessions[key]; ok {
			m.mu.Unlock()
			return sess, nil
		}
		if wait, inFlight := m.opening[key]; inFlight {
			m.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		done := make(chan struct{})
		m.opening[key] = done
		m.mu.Unlock()

		sess, err := m.open(ctx, key)

		m.mu.Lock()
		delete(m.opening, key)
		if err == nil {
			m.sessions[key] = sess
		}
		m.mu.Unlock()
		close(done)
		return sess, err
	}
}

func (m *Manager) open(ctx context.Context, key Key) (*Session, error) {
	def, err := m.catalog.Definition(ctx, key.TestID)
	if err != nil {
		return nil, err
	}

	store := NewAttemptStore(key, def, m.client)
	if _, err := store.Fetch(ctx); err != nil {
		return nil, err
	}

	completion := NewCompletionTransition(store, m.client)
	sess := &Session{
		id:         uuid.NewString(),
		key:        key,
		def:        def,
		store:      store,
		pipeline:   NewSubmissionPipeline(store, m.client, completion),
		completion: completion,
	}
	log.Info().Str("sessionID", sess.id).Str("key", key.String()).Str("status", string(store.State().Status())).Msg("Attempt session opened")
	return sess, nil
}

// Get returns the open session for key, if any.
func (m *Manager) Get(key Key) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[key]
	return sess, ok
}

// Close tears down the session for key. In-flight request results targeting
// it are discarded when they land.
func (m *Manager) Close(key Key) {
	m.mu.Lock()
	sess, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if ok {
		sess.store.Close()
		log.Info().Str("sessionID", sess.id).Str("key", key.String()).Msg("Attempt session closed")
	}
}

// CloseAll tears down every open session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[Key]*Session)
	m.mu.Unlock()
	for key, sess := range sessions {
		sess.store.Close()
		log.Info().Str("sessionID", sess.id).Str("key", key.String()).Msg("Attempt session closed")
	}
}
