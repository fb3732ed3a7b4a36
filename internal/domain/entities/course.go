package entities

import "time"

// Course is the catalog data the certification rule needs.
type Course struct {
	ID           int64
	Title        string
	Level        int // difficulty level, compared against the certification minimum
	InstructorID int64
	CreatedAt    time.Time
}
