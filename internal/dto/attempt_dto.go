package dto

import (
	"encoding/json"
	"fmt"

	"github.com/studyline/testflow/internal/model"
)

// SubmittedAnswerDTO is the ungraded answer shape, also the echo payload of
// PUT /knowledge/tests/{testId}/answer.
type SubmittedAnswerDTO struct {
	Value string `json:"value"`
}

// GradedAnswerDTO is the per-task grading shape on a completed attempt.
type GradedAnswerDTO struct {
	SubmittedValue string  `json:"submitted_value"`
	CorrectValue   string  `json:"correct_value"`
	IsCorrect      bool    `json:"is_correct"`
	SolutionText   *string `json:"solution_text,omitempty"`
	SolutionVideo  *string `json:"solution_video,omitempty"`
}

// AttemptStateDTO is the response payload of GET /knowledge/tests/{testId}/state
// and POST /knowledge/tests/{testId}/complete. The server serializes both
// attempt variants into one envelope discriminated by "status"; the shape of
// the answers map depends on the variant, so it stays raw until the status is
// known.
type AttemptStateDTO struct {
	Status     string          `json:"status"`
	LastTaskID string          `json:"last_task_id,omitempty"`
	Progress   float64         `json:"progress,omitempty"`
	Percentage float64         `json:"percentage,omitempty"`
	Passed     bool            `json:"passed,omitempty"`
	Answers    json.RawMessage `json:"answers,omitempty"`
}

// ToModel rebuilds the attempt variant named by the status discriminator.
func (d *AttemptStateDTO) ToModel() (model.AttemptState, error) {
	switch model.AttemptStatus(d.Status) {
	case model.StatusInProgress:
		answers := map[string]SubmittedAnswerDTO{}
		if len(d.Answers) > 0 {
			if err := json.Unmarshal(d.Answers, &answers); err != nil {
				return nil, fmt.Errorf("decoding active attempt answers: %w", err)
			}
		}
		active := &model.ActiveAttempt{
			LastTaskID: d.LastTaskID,
			Answers:    make(map[string]model.SubmittedAnswer, len(answers)),
		}
		for taskID, ans := range answers {
			active.Answers[taskID] = model.SubmittedAnswer{Value: ans.Value}
		}
		return active, nil
	case model.StatusCompleted:
		completed, err := d.toCompleted()
		if err != nil {
			return nil, err
		}
		return completed, nil
	default:
		return nil, fmt.Errorf("unknown attempt status %q", d.Status)
	}
}

// ToCompleted rebuilds a terminal record, failing when the payload carries
// any other status.
func (d *AttemptStateDTO) ToCompleted() (*model.CompletedAttempt, error) {
	if model.AttemptStatus(d.Status) != model.StatusCompleted {
		return nil, fmt.Errorf("expected completed attempt payload, got status %q", d.Status)
	}
	return d.toCompleted()
}

func (d *AttemptStateDTO) toCompleted() (*model.CompletedAttempt, error) {
	graded := map[string]GradedAnswerDTO{}
	if len(d.Answers) > 0 {
		if err := json.Unmarshal(d.Answers, &graded); err != nil {
			return nil, fmt.Errorf("decoding graded answers: %w", err)
		}
	}
	completed := &model.CompletedAttempt{
		Percentage: d.Percentage,
		Passed:     d.Passed,
		Answers:    make(map[string]model.GradedAnswer, len(graded)),
	}
	for taskID, ans := range graded {
		completed.Answers[taskID] = model.GradedAnswer{
			SubmittedValue: ans.SubmittedValue,
			CorrectValue:   ans.CorrectValue,
			IsCorrect:      ans.IsCorrect,
			SolutionText:   ans.SolutionText,
			SolutionVideo:  ans.SolutionVideo,
		}
	}
	return completed, nil
}

// SaveAnswerRequest is the body of PUT /knowledge/tests/{testId}/answer.
type SaveAnswerRequest struct {
	TaskID     string `json:"task_id"`
	UserAnswer string `json:"user_answer"`
}
