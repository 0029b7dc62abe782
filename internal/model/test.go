package model

import "fmt"

// AnswerKind is the input modality of a task's answer.
type AnswerKind string

const (
	AnswerText   AnswerKind = "TEXT"
	AnswerNumber AnswerKind = "NUMBER"
	AnswerFile   AnswerKind = "FILE"
)

// TaskDefinition is a single graded question within a test. Order is 0-based
// and matches the task's position in TestDefinition.Tasks.
type TaskDefinition struct {
	ID         string
	Order      int
	Text       string
	ImageLink  *string
	AnswerKind AnswerKind
	Weight     *float64
	Complexity *string
}

// TestDefinition is the immutable description of a test, fetched once per
// test id. PassingPercentage is a fraction in [0,1].
type TestDefinition struct {
	ID                string
	Name              string
	PassingPercentage float64
	Tasks             []TaskDefinition
}

// Validate checks the structural invariants of a fetched definition:
// Tasks[i].Order == i for all i, and task ids are unique within the test.
func (t *TestDefinition) Validate() error {
	seen := make(map[string]struct{}, len(t.Tasks))
	for i, task := range t.Tasks {
		if task.ID == "" {
			return fmt.Errorf("test %s: task at position %d has empty id", t.ID, i)
		}
		if task.Order != i {
			return fmt.Errorf("test %s: task %s has order %d at position %d", t.ID, task.ID, task.Order, i)
		}
		if _, dup := seen[task.ID]; dup {
			return fmt.Errorf("test %s: duplicate task id %s", t.ID, task.ID)
		}
		seen[task.ID] = struct{}{}
	}
	return nil
}

// TaskByID returns the task with the given id, or nil if the id does not
// resolve against this definition.
func (t *TestDefinition) TaskByID(id string) *TaskDefinition {
	for i := range t.Tasks {
		if t.Tasks[i].ID == id {
			return &t.Tasks[i]
		}
	}
	return nil
}

// TaskCount returns the number of tasks in the test.
func (t *TestDefinition) TaskCount() int { return len(t.Tasks) }
