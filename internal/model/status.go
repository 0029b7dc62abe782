package model

// TestStatusSummary is one row of the per-lesson availability summary
// consumed by the lesson page around the attempt engine.
type TestStatusSummary struct {
	TestID     string
	Name       string
	Status     AttemptStatus
	Percentage *float64
}
