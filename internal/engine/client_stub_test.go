package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/model"
)

// fakeClient is an in-memory api.Client that counts calls and records the
// order of write operations.
type fakeClient struct {
	mu sync.Mutex

	def       *model.TestDefinition
	state     model.AttemptState
	completed *model.CompletedAttempt

	testErr     error
	stateErr    error
	saveErr     error
	completeErr error

	stateGate chan struct{} // when set, FetchState blocks until closed
	saveGate  chan struct{} // when set, SaveAnswer blocks until closed

	calls  map[string]int
	ops    []string
	stored map[string]string // taskID -> persisted value (server upsert)
}

func newFakeClient(def *model.TestDefinition) *fakeClient {
	return &fakeClient{
		def:    def,
		state:  &model.ActiveAttempt{Answers: map[string]model.SubmittedAnswer{}},
		calls:  map[string]int{},
		stored: map[string]string{},
	}
}

func (f *fakeClient) record(op string) {
	f.calls[op]++
	f.ops = append(f.ops, op)
}

func (f *fakeClient) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) FetchTest(ctx context.Context, testID string) (*model.TestDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("test")
	if f.testErr != nil {
		return nil, f.testErr
	}
	return f.def, nil
}

func (f *fakeClient) FetchState(ctx context.Context, testID string) (model.AttemptState, error) {
	f.mu.Lock()
	gate := f.stateGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("state")
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeClient) SaveAnswer(ctx context.Context, testID, taskID, value string) (*model.SubmittedAnswer, error) {
	f.mu.Lock()
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("save")
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.stored[taskID] = value
	return &model.SubmittedAnswer{Value: value}, nil
}

func (f *fakeClient) Complete(ctx context.Context, testID string) (*model.CompletedAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("complete")
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	if f.completed == nil {
		return nil, fmt.Errorf("fake has no completion payload")
	}
	return f.completed, nil
}

func (f *fakeClient) LessonStatus(ctx context.Context, lessonID string) ([]model.TestStatusSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("status")
	return nil, nil
}

var _ api.Client = (*fakeClient)(nil)

// threeTaskTest builds the definition used across the engine tests: a text
// task, a numeric task, and a final text task.
func threeTaskTest() *model.TestDefinition {
	return &model.TestDefinition{
		ID:                "algebra-1",
		Name:              "Algebra basics",
		PassingPercentage: 0.5,
		Tasks: []model.TaskDefinition{
			{ID: "t1", Order: 0, Text: "What is 6*7?", AnswerKind: model.AnswerText},
			{ID: "t2", Order: 1, Text: "Type any number", AnswerKind: model.AnswerNumber},
			{ID: "t3", Order: 2, Text: "Last one", AnswerKind: model.AnswerText},
		},
	}
}

func testKey() Key {
	return Key{TestID: "algebra-1", LessonID: "lesson-9", CourseID: "course-3"}
}
