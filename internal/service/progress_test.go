package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
)

func TestProgressUpdateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.enrolled(t, 1, 10)
	ctx := context.Background()

	p, justCompleted, err := env.tracker.Update(ctx, 1, 10, 40)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if justCompleted {
		t.Error("40% must not complete the course")
	}
	if p.Percentage != 40 || p.CompletedAt != nil {
		t.Errorf("got %+v", p)
	}

	got, err := env.tracker.Get(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Percentage != 40 {
		t.Errorf("stored percentage = %v, want 40", got.Percentage)
	}
}

func TestProgressUpdateRejectsOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	env.enrolled(t, 1, 10)

	tests := []struct {
		name       string
		percentage float64
	}{
		{"negative", -1},
		{"above hundred", 100.5},
		{"nan", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.tracker.Update(context.Background(), 1, 10, tt.percentage)
			if !errors.Is(err, apperr.ErrInvalidArgument) {
				t.Fatalf("err = %v, want invalid argument", err)
			}
		})
	}

	if _, err := env.tracker.Get(context.Background(), 1, 10); !errors.Is(err, apperr.ErrProgressionNotFound) {
		t.Errorf("rejected updates must not store a row, got %v", err)
	}
}

func TestProgressUpdateRequiresEnrollment(t *testing.T) {
	env := newTestEnv(t)
	env.addLearner(t, 1)
	env.addCourse(t, 10, minLevel)
	ctx := context.Background()

	if _, _, err := env.tracker.Update(ctx, 1, 10, 20); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("without enrollment: err = %v, want not found", err)
	}

	if _, err := env.enrollments.Enroll(ctx, 1, 10); err != nil {
		t.Fatal(err)
	}
	if err := env.enrollments.Cancel(ctx, 1, 10); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.tracker.Update(ctx, 1, 10, 20); !errors.Is(err, apperr.ErrEnrollmentNotFound) {
		t.Fatalf("cancelled enrollment: err = %v, want %v", err, apperr.ErrEnrollmentNotFound)
	}
}

func TestProgressCompletionIsStampedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.enrolled(t, 1, 10)
	ctx := context.Background()

	first := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	env.tracker.now = func() time.Time { return first }

	_, justCompleted, err := env.tracker.Update(ctx, 1, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !justCompleted {
		t.Fatal("first 100% update must complete the course")
	}

	env.tracker.now = func() time.Time { return first.Add(time.Hour) }

	_, justCompleted, err = env.tracker.Update(ctx, 1, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	if justCompleted {
		t.Error("repeated 100% update reported completion again")
	}

	// A lower value is stored but completion stays.
	p, _, err := env.tracker.Update(ctx, 1, 10, 80)
	if err != nil {
		t.Fatal(err)
	}
	if p.Percentage != 80 {
		t.Errorf("percentage = %v, want 80", p.Percentage)
	}
	if p.CompletedAt == nil || !p.CompletedAt.Equal(first) {
		t.Errorf("completed_at = %v, want %v", p.CompletedAt, first)
	}
}
