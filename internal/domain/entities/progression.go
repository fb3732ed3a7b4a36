package entities

import "time"

const (
	MinPercentage = 0.0
	MaxPercentage = 100.0
)

// Progression is a learner's percent-complete record for one course.
type Progression struct {
	LearnerID   int64
	CourseID    int64
	Percentage  float64
	StartedAt   time.Time
	CompletedAt *time.Time // set once, the first time Percentage reaches 100
	UpdatedAt   time.Time
}

// IsComplete reports whether the progression has reached 100% and was stamped.
func (p *Progression) IsComplete() bool {
	return p.Percentage >= MaxPercentage && p.CompletedAt != nil
}

// ValidPercentage reports whether pct lies within [0, 100].
func ValidPercentage(pct float64) bool {
	return pct >= MinPercentage && pct <= MaxPercentage
}

// InactiveProgression is an unfinished progression joined with what a reminder needs.
type InactiveProgression struct {
	Progression
	CourseTitle string
}
