package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

func TestCompletingCourseIssuesCertificateAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	env.enrolled(t, 1, 10)
	ctx := context.Background()

	res, err := env.courseFlow.UpdateProgress(ctx, 1, 10, 50)
	if err != nil {
		t.Fatalf("UpdateProgress(50): %v", err)
	}
	if res.JustCompleted || res.Certificate != nil {
		t.Fatalf("50%% must not certify: %+v", res)
	}

	res, err = env.courseFlow.UpdateProgress(ctx, 1, 10, 100)
	if err != nil {
		t.Fatalf("UpdateProgress(100): %v", err)
	}
	if !res.JustCompleted || res.IssueStatus != entities.IssueIssued || res.Certificate == nil {
		t.Fatalf("completion result = %+v", res)
	}

	e, err := env.enrollmentsDB.Get(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != entities.EnrollmentCompleted {
		t.Errorf("enrollment status = %s, want completed", e.Status)
	}

	issued := env.notifications.ByKind(entities.KindCertificateIssued)
	if len(issued) != 1 || issued[0].RecipientID != 1 {
		t.Fatalf("certificate_issued notifications = %v", issued)
	}
	if env.mailer.count() != 1 || env.live.count() != 1 {
		t.Errorf("deliveries: email %d, live %d", env.mailer.count(), env.live.count())
	}

	// Progress can still be reported on a completed enrollment without re-issuing.
	res, err = env.courseFlow.UpdateProgress(ctx, 1, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	if res.JustCompleted || res.Certificate != nil {
		t.Errorf("repeat completion = %+v", res)
	}
	if env.certificates.Count() != 1 || len(env.notifications.ByKind(entities.KindCertificateIssued)) != 1 {
		t.Error("repeat completion issued or notified again")
	}
}

func TestUpdateProgressKeepsCompletionWhenIssuanceFails(t *testing.T) {
	env := newTestEnv(t)
	env.enrolled(t, 1, 10)
	env.renderer.err = errors.New("renderer offline")
	ctx := context.Background()

	_, err := env.courseFlow.UpdateProgress(ctx, 1, 10, 100)
	if !errors.Is(err, apperr.ErrRenderingFailed) {
		t.Fatalf("err = %v, want rendering failed", err)
	}

	p, err := env.tracker.Get(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsComplete() {
		t.Error("completion must survive a failed issuance")
	}

	// The sweep closes the gap once rendering works again.
	env.renderer.err = nil
	report, err := env.reconciliation(nil).IssueMissingCertificates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Issued != 1 {
		t.Errorf("sweep report = %+v, want one issued", report)
	}
}
