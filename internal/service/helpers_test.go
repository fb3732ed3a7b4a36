package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aliskhannn/course-tracker/internal/config"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/email"
	"github.com/aliskhannn/course-tracker/internal/infra/objects"
	"github.com/aliskhannn/course-tracker/internal/realtime"
	"github.com/aliskhannn/course-tracker/internal/storage"
)

const minLevel = 2

type fakeMailer struct {
	mu      sync.Mutex
	sent    []email.Message
	failFor map[string]error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failFor[msg.To.Address]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []realtime.Message
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, room, event string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, realtime.Message{Room: room, Event: event, Data: data})
	return nil
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fakeRenderer struct {
	mu      sync.Mutex
	calls   int
	err     error
	failFor map[int64]error
	delay   time.Duration
}

func (f *fakeRenderer) Render(_ context.Context, learner *entities.User, _ *entities.Course, cert *entities.Certificate) (string, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	if e, ok := f.failFor[learner.ID]; ok {
		err = e
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", err
	}
	return "mem://certificates/" + cert.ID.String() + ".png", nil
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingNotifier struct{}

func (failingNotifier) Create(context.Context, NewNotification) (*entities.Notification, error) {
	return nil, errors.New("notification store unavailable")
}

// testEnv wires every service against the in-memory store.
type testEnv struct {
	store         *storage.Store
	users         *storage.UserRepository
	courses       *storage.CourseRepository
	enrollmentsDB *storage.EnrollmentRepository
	progressions  *storage.ProgressionRepository
	certificates  *storage.CertificateRepository
	notifications *storage.NotificationRepository

	mailer   *fakeMailer
	live     *recordingEmitter
	renderer *fakeRenderer
	logs     *observer.ObservedLogs
	logger   *zap.Logger

	tracker     *ProgressService
	enrollments *EnrollmentService
	notifier    *NotificationService
	issuer      *CertificateService
	courseFlow  *CourseProgressService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(zapcore.NewTee(zaptest.NewLogger(t).Core(), core))

	s := storage.NewStore()
	env := &testEnv{
		store:         s,
		users:         storage.NewUserRepository(s),
		courses:       storage.NewCourseRepository(s),
		enrollmentsDB: storage.NewEnrollmentRepository(s),
		progressions:  storage.NewProgressionRepository(s),
		certificates:  storage.NewCertificateRepository(s),
		notifications: storage.NewNotificationRepository(s),
		mailer:        &fakeMailer{failFor: map[string]error{}},
		live:          &recordingEmitter{},
		renderer:      &fakeRenderer{},
		logs:          logs,
		logger:        logger,
	}

	env.tracker = NewProgressService(env.progressions, env.enrollmentsDB, logger)
	env.enrollments = NewEnrollmentService(env.enrollmentsDB, env.users, env.courses, logger)
	env.notifier = NewNotificationService(env.notifications, env.users, env.live, env.mailer, config.Notifications{
		MaxConcurrent:   4,
		DeliveryTimeout: time.Second,
		ListLimit:       50,
	}, logger)
	env.issuer = NewCertificateService(
		storage.NewTransactor(s),
		env.certificates,
		env.users,
		env.courses,
		env.renderer,
		env.notifier,
		minLevel,
		logger,
	)
	env.courseFlow = NewCourseProgressService(env.tracker, env.enrollments, env.issuer, logger)

	return env
}

func (e *testEnv) reconciliation(store objects.Store, categories ...objects.Category) *ReconciliationService {
	return NewReconciliationService(
		e.progressions,
		e.issuer,
		e.notifier,
		store,
		categories,
		config.Scheduler{
			CertificateSpec:     "@daily",
			InactivitySpec:      "@weekly",
			CleanupSpec:         "@monthly",
			InactivityThreshold: 7 * 24 * time.Hour,
			FileRetention:       30 * 24 * time.Hour,
			MaxConcurrent:       3,
			BatchSize:           4,
		},
		e.logger,
	)
}

func (e *testEnv) addLearner(t *testing.T, id int64) *entities.User {
	t.Helper()
	u := entities.NewLearner(id, "Learner", emailFor(id))
	if err := e.users.Save(context.Background(), u); err != nil {
		t.Fatalf("save learner: %v", err)
	}
	return u
}

func (e *testEnv) addCourse(t *testing.T, id int64, level int) *entities.Course {
	t.Helper()
	c := &entities.Course{ID: id, Title: "Course", Level: level, CreatedAt: time.Now()}
	if err := e.courses.Save(context.Background(), c); err != nil {
		t.Fatalf("save course: %v", err)
	}
	return c
}

// enrolled creates the learner and course if needed and enrolls the learner.
func (e *testEnv) enrolled(t *testing.T, learnerID, courseID int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.users.GetByID(ctx, learnerID); err != nil {
		e.addLearner(t, learnerID)
	}
	if _, err := e.courses.GetByID(ctx, courseID); err != nil {
		e.addCourse(t, courseID, minLevel)
	}
	if _, err := e.enrollments.Enroll(ctx, learnerID, courseID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
}

// completed enrolls the learner and stores a completed progression without
// going through issuance, as if the direct path crashed after the update.
func (e *testEnv) completed(t *testing.T, learnerID, courseID int64) *entities.Progression {
	t.Helper()
	e.enrolled(t, learnerID, courseID)
	p, _, err := e.tracker.Update(context.Background(), learnerID, courseID, 100)
	if err != nil {
		t.Fatalf("update progress: %v", err)
	}
	return p
}

func emailFor(id int64) string {
	return fmt.Sprintf("learner%d@example.com", id)
}
