package entities

import (
	"time"

	"github.com/google/uuid"
)

// Certificate proves completion of a course. At most one exists per learner and course.
type Certificate struct {
	ID          uuid.UUID
	LearnerID   int64
	CourseID    int64
	IssuedAt    time.Time
	ArtifactRef string
}

func NewCertificate(learnerID, courseID int64, now time.Time) *Certificate {
	return &Certificate{
		ID:        uuid.New(),
		LearnerID: learnerID,
		CourseID:  courseID,
		IssuedAt:  now,
	}
}

// IssueStatus describes the outcome of an issuance attempt.
type IssueStatus string

const (
	IssueIneligible    IssueStatus = "ineligible"
	IssueIssued        IssueStatus = "issued"
	IssueAlreadyIssued IssueStatus = "already_issued"
)
