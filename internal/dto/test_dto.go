package dto

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/studyline/testflow/internal/model"
)

// TaskDTO is the server-serialized shape of a single task definition.
type TaskDTO struct {
	ID         string   `json:"id"`
	Order      int      `json:"order"`
	Text       string   `json:"text"`
	ImageLink  *string  `json:"image_link,omitempty"`
	AnswerKind string   `json:"answer_kind"`
	Weight     *float64 `json:"weight,omitempty"`
	Complexity *string  `json:"complexity,omitempty"`
}

// TestDTO is the response payload of GET /knowledge/tests/{testId}/.
type TestDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PassingPercentage float64   `json:"passing_percentage"`
	Tasks             []TaskDTO `json:"tasks"`
}

// ToModel maps the payload onto the domain definition and validates its
// structural invariants before handing it to callers.
func (d *TestDTO) ToModel() (*model.TestDefinition, error) {
	var def model.TestDefinition
	if err := copier.Copy(&def, d); err != nil {
		return nil, fmt.Errorf("mapping test payload %s: %w", d.ID, err)
	}
	for i, task := range d.Tasks {
		def.Tasks[i].AnswerKind = model.AnswerKind(task.AnswerKind)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid test payload: %w", err)
	}
	return &def, nil
}

// TestStatusDTO is one row of GET /knowledge/tests/status?lessonId=.
type TestStatusDTO struct {
	TestID     string   `json:"test_id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Percentage *float64 `json:"percentage,omitempty"`
}

// ToModel maps a status row onto the domain summary.
func (d *TestStatusDTO) ToModel() model.TestStatusSummary {
	return model.TestStatusSummary{
		TestID:     d.TestID,
		Name:       d.Name,
		Status:     model.AttemptStatus(d.Status),
		Percentage: d.Percentage,
	}
}
