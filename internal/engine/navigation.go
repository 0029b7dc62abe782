package engine

import (
	"fmt"

	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/model"
)

// TaskPath is the route of one task page.
func TaskPath(testID, taskID string) string {
	return fmt.Sprintf("/test/%s/%s", testID, taskID)
}

// ResultsPath is the route of the read-only results page.
func ResultsPath(testID string) string {
	return fmt.Sprintf("/test/%s/results", testID)
}

// NavigationContext drives the next/prev pagination around the current task.
// PrevLink is empty on the first task; NextLink points at the results page on
// the last one. A single-task test is both first and last.
type NavigationContext struct {
	Current  *model.TaskDefinition
	IsFirst  bool
	IsLast   bool
	NextLink string
	PrevLink string
}

// Navigate computes the navigation context for the task page at
// currentTaskID. It is a pure function of the definition, the task id and the
// attempt state; an id that does not resolve against the definition yields a
// not-found error, which retrying cannot fix.
func Navigate(def *model.TestDefinition, currentTaskID string, state model.AttemptState) (*NavigationContext, error) {
	current := def.TaskByID(currentTaskID)
	if current == nil {
		return nil, fmt.Errorf("task %s in test %s: %w", currentTaskID, def.ID, api.ErrNotFound)
	}

	nav := &NavigationContext{
		Current: current,
		IsFirst: current.Order == 0,
		IsLast:  current.Order == def.TaskCount()-1,
	}
	if nav.IsLast {
		nav.NextLink = ResultsPath(def.ID)
	} else {
		nav.NextLink = TaskPath(def.ID, def.Tasks[current.Order+1].ID)
	}
	if !nav.IsFirst {
		nav.PrevLink = TaskPath(def.ID, def.Tasks[current.Order-1].ID)
	}
	return nav, nil
}

// PageEntry is one cell of the jump-to-any-task pagination strip.
type PageEntry struct {
	TaskID   string
	Order    int
	Answered bool
	Link     string
}

// Pagination lists every task with its answered flag. Once the attempt is
// completed all tasks are navigable; while it is active the strip still lists
// them all, and the submission pipeline alone guards forward movement.
func Pagination(def *model.TestDefinition, state model.AttemptState) []PageEntry {
	answered := func(string) bool { return false }
	switch st := state.(type) {
	case *model.ActiveAttempt:
		answered = st.Answered
	case *model.CompletedAttempt:
		answered = st.Answered
	}

	entries := make([]PageEntry, 0, def.TaskCount())
	for _, task := range def.Tasks {
		entries = append(entries, PageEntry{
			TaskID:   task.ID,
			Order:    task.Order,
			Answered: answered(task.ID),
			Link:     TaskPath(def.ID, task.ID),
		})
	}
	return entries
}
