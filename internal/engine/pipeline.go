package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/model"
)

// SubmissionPhase is the lifecycle of one in-flight submission.
type SubmissionPhase int

const (
	PhaseIdle SubmissionPhase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p SubmissionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submission captures one task answer on its way to the server. For FILE
// tasks Value is the uploaded file identifier, never the file content.
// Finishing marks the submission that should chain into the completion
// transition after the answer is persisted.
type Submission struct {
	TaskID    string
	Value     string
	Finishing bool
}

// SubmissionPipeline validates, persists and applies task answers, one at a
// time per attempt. A second submission cannot start while one is in flight.
type SubmissionPipeline struct {
	store      *AttemptStore
	client     api.Client
	completion *CompletionTransition
	validate   *validator.Validate

	mu       sync.Mutex
	inFlight bool
	phase    SubmissionPhase
}

func NewSubmissionPipeline(store *AttemptStore, client api.Client, completion *CompletionTransition) *SubmissionPipeline {
	return &SubmissionPipeline{
		store:      store,
		client:     client,
		completion: completion,
		validate:   validator.New(),
	}
}

// Phase reports the current pipeline phase for loading affordances.
func (p *SubmissionPipeline) Phase() SubmissionPhase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Submit runs one answer through validate → persist → apply. A validation
// failure aborts before any network call. A persist failure keeps the learner
// on the task and returns a retry bound to the same captured submission. When
// sub.Finishing is set, the completion transition runs as a dependent step
// after the answer save settles; its failure returns a retry that re-issues
// only the finalize call, since the answer is already persisted.
func (p *SubmissionPipeline) Submit(ctx context.Context, sub Submission) error {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return ErrSubmissionInFlight
	}
	p.inFlight = true
	p.phase = PhaseValidating
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	if err := p.check(sub); err != nil {
		p.setPhase(PhaseFailed)
		return err
	}

	p.setPhase(PhaseSubmitting)
	testID := p.store.Key().TestID
	echo, err := p.client.SaveAnswer(ctx, testID, sub.TaskID, sub.Value)
	if err != nil {
		p.setPhase(PhaseFailed)
		log.Error().Err(err).Str("testID", testID).Str("taskID", sub.TaskID).Msg("Answer save failed")
		return &RetryableError{
			Op:  "save answer for task " + sub.TaskID,
			Err: err,
			Retry: func(ctx context.Context) error {
				return p.Submit(ctx, sub)
			},
		}
	}

	if err := p.store.ApplyAnswer(sub.TaskID, model.SubmittedAnswer{Value: echo.Value}); err != nil {
		p.setPhase(PhaseFailed)
		return err
	}

	if sub.Finishing {
		if _, err := p.completion.Finalize(ctx); err != nil {
			// The answer is saved; only the finalize call is retried.
			p.setPhase(PhaseFailed)
			return err
		}
	}

	p.setPhase(PhaseSucceeded)
	return nil
}

// check rejects the submission locally, before any network traffic. The
// attempt must be active, the task must exist in the definition, and the
// value must satisfy its answer kind.
func (p *SubmissionPipeline) check(sub Submission) error {
	state := p.store.State()
	switch state.(type) {
	case *model.ActiveAttempt:
	case *model.CompletedAttempt:
		log.Error().Str("taskID", sub.TaskID).Msg("Submission attempted against a completed attempt")
		return ErrAttemptCompleted
	default:
		return ErrStateNotLoaded
	}

	task := p.store.Definition().TaskByID(sub.TaskID)
	if task == nil {
		return &ValidationError{TaskID: sub.TaskID, Reason: "task is not part of this test"}
	}

	if strings.TrimSpace(sub.Value) == "" {
		return &ValidationError{TaskID: sub.TaskID, Reason: "answer must not be empty"}
	}
	switch task.AnswerKind {
	case model.AnswerNumber:
		if err := p.validate.Var(sub.Value, "numeric"); err != nil {
			return &ValidationError{TaskID: sub.TaskID, Reason: "answer must be numeric"}
		}
	case model.AnswerFile:
		// Value carries the upload identifier produced by the file widget;
		// the widget itself lives outside the engine.
		if err := p.validate.Var(sub.Value, "printascii"); err != nil {
			return &ValidationError{TaskID: sub.TaskID, Reason: "answer must be an upload identifier"}
		}
	}
	return nil
}

func (p *SubmissionPipeline) setPhase(phase SubmissionPhase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}
