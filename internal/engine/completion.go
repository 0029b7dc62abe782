package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/model"
)

// CompletionTransition finalizes an attempt: one call requesting server-side
// grading, then the store takes the returned terminal record verbatim. The
// transition is one-way; nothing ever reverts a completed attempt to active.
type CompletionTransition struct {
	store  *AttemptStore
	client api.Client
}

func NewCompletionTransition(store *AttemptStore, client api.Client) *CompletionTransition {
	return &CompletionTransition{store: store, client: client}
}

// Finalize requests grading and applies the terminal record. When the attempt
// is already completed it returns the existing record without a network call.
// On failure the attempt stays active and the returned error carries a retry
// that re-issues only this finalize call.
func (t *CompletionTransition) Finalize(ctx context.Context) (*model.CompletedAttempt, error) {
	switch st := t.store.State().(type) {
	case *model.CompletedAttempt:
		return st, nil
	case *model.ActiveAttempt:
	default:
		return nil, ErrStateNotLoaded
	}

	testID := t.store.Key().TestID
	completed, err := t.client.Complete(ctx, testID)
	if err != nil {
		log.Error().Err(err).Str("testID", testID).Msg("Completion call failed, attempt stays active")
		return nil, &RetryableError{
			Op:  "complete test " + testID,
			Err: err,
			Retry: func(ctx context.Context) error {
				_, retryErr := t.Finalize(ctx)
				return retryErr
			},
		}
	}

	if err := t.store.ApplyCompletion(completed); err != nil {
		return nil, fmt.Errorf("applying completion for %s: %w", testID, err)
	}
	log.Info().Str("testID", testID).Float64("percentage", completed.Percentage).Bool("passed", completed.Passed).Msg("Attempt completed")
	return completed, nil
}
