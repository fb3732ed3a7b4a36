package entities

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment links a learner to a course. Status only moves forward:
// active -> completed or active -> cancelled.
type Enrollment struct {
	LearnerID  int64
	CourseID   int64
	Status     EnrollmentStatus
	EnrolledAt time.Time
	UpdatedAt  time.Time
}

func NewEnrollment(learnerID, courseID int64, now time.Time) *Enrollment {
	return &Enrollment{
		LearnerID:  learnerID,
		CourseID:   courseID,
		Status:     EnrollmentActive,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
}

// AllowsProgress reports whether progress may still be recorded.
// Completed enrollments keep accepting updates so learners can revisit material.
func (e *Enrollment) AllowsProgress() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentCompleted
}
