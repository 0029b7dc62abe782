package model

// AttemptStatus discriminates the two attempt variants.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "IN_PROGRESS"
	StatusCompleted  AttemptStatus = "COMPLETED"
)

// SubmittedAnswer is a raw learner-submitted value, not yet graded.
type SubmittedAnswer struct {
	Value string
}

// GradedAnswer carries server-computed correctness for one task. CorrectValue
// and solutions are only ever present on a completed attempt.
type GradedAnswer struct {
	SubmittedValue string
	CorrectValue   string
	IsCorrect      bool
	SolutionText   *string
	SolutionVideo  *string
}

// AttemptState is the per-user, per-test attempt record. It is a sealed sum
// type: the only implementations are *ActiveAttempt and *CompletedAttempt, so
// "may this be mutated" is a type switch, not a field check.
type AttemptState interface {
	Status() AttemptStatus
	sealed()
}

// ActiveAttempt is an in-progress attempt. Answers maps task id to the
// learner's last submitted value.
type ActiveAttempt struct {
	LastTaskID string
	Answers    map[string]SubmittedAnswer
}

func (a *ActiveAttempt) Status() AttemptStatus { return StatusInProgress }
func (a *ActiveAttempt) sealed()               {}

// Progress returns the exact answered fraction len(Answers)/totalTasks.
func (a *ActiveAttempt) Progress(totalTasks int) float64 {
	if totalTasks == 0 {
		return 0
	}
	return float64(len(a.Answers)) / float64(totalTasks)
}

// Answered reports whether the task already has a submitted answer.
func (a *ActiveAttempt) Answered(taskID string) bool {
	_, ok := a.Answers[taskID]
	return ok
}

// Clone returns a deep copy so readers never alias the store's answers map.
func (a *ActiveAttempt) Clone() *ActiveAttempt {
	out := &ActiveAttempt{LastTaskID: a.LastTaskID, Answers: make(map[string]SubmittedAnswer, len(a.Answers))}
	for id, ans := range a.Answers {
		out.Answers[id] = ans
	}
	return out
}

// CompletedAttempt is the terminal, immutable attempt record. Percentage is a
// fraction in [0,1]; Passed is the server's verdict against the test's
// passing threshold.
type CompletedAttempt struct {
	Percentage float64
	Passed     bool
	Answers    map[string]GradedAnswer
}

func (c *CompletedAttempt) Status() AttemptStatus { return StatusCompleted }
func (c *CompletedAttempt) sealed()               {}

// Answered reports whether the task carries a graded answer.
func (c *CompletedAttempt) Answered(taskID string) bool {
	_, ok := c.Answers[taskID]
	return ok
}

// Clone returns a deep copy of the terminal record.
func (c *CompletedAttempt) Clone() *CompletedAttempt {
	out := &CompletedAttempt{Percentage: c.Percentage, Passed: c.Passed, Answers: make(map[string]GradedAnswer, len(c.Answers))}
	for id, ans := range c.Answers {
		out.Answers[id] = ans
	}
	return out
}
