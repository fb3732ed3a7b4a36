package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/course-tracker/internal/config"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/email"
	"github.com/aliskhannn/course-tracker/internal/realtime"
	"github.com/aliskhannn/course-tracker/internal/service"
	"github.com/aliskhannn/course-tracker/internal/storage"
)

type stubRenderer struct {
	err error
}

func (r *stubRenderer) Render(_ context.Context, _ *entities.User, _ *entities.Course, cert *entities.Certificate) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "mem://certificates/" + cert.ID.String() + ".png", nil
}

type stubMailer struct {
	err error
}

func (m *stubMailer) Send(context.Context, email.Message) error { return m.err }

type apiFixture struct {
	router       *gin.Engine
	users        *storage.UserRepository
	courses      *storage.CourseRepository
	progressions *storage.ProgressionRepository
	certificates *storage.CertificateRepository
	renderer     *stubRenderer
	mailer       *stubMailer
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	s := storage.NewStore()
	f := &apiFixture{
		users:        storage.NewUserRepository(s),
		courses:      storage.NewCourseRepository(s),
		progressions: storage.NewProgressionRepository(s),
		certificates: storage.NewCertificateRepository(s),
		renderer:     &stubRenderer{},
		mailer:       &stubMailer{},
	}
	enrollmentRepo := storage.NewEnrollmentRepository(s)

	notifications := service.NewNotificationService(
		storage.NewNotificationRepository(s),
		f.users,
		realtime.Noop{},
		f.mailer,
		config.Notifications{MaxConcurrent: 2, DeliveryTimeout: time.Second, ListLimit: 20},
		logger,
	)
	certificates := service.NewCertificateService(
		storage.NewTransactor(s),
		f.certificates,
		f.users,
		f.courses,
		f.renderer,
		notifications,
		1,
		logger,
	)
	enrollments := service.NewEnrollmentService(enrollmentRepo, f.users, f.courses, logger)
	tracker := service.NewProgressService(f.progressions, enrollmentRepo, logger)
	courseProgress := service.NewCourseProgressService(tracker, enrollments, certificates, logger)

	f.router = NewRouter(RouterConfig{
		Logger:              logger,
		ProgressHandler:     NewProgressHandler(courseProgress, logger),
		EnrollmentHandler:   NewEnrollmentHandler(enrollments, logger),
		NotificationHandler: NewNotificationHandler(notifications, logger),
	})
	return f
}

func (f *apiFixture) addLearner(t *testing.T, id int64) {
	t.Helper()
	u := entities.NewLearner(id, "Learner", "learner@example.com")
	if err := f.users.Save(context.Background(), u); err != nil {
		t.Fatalf("save learner: %v", err)
	}
}

func (f *apiFixture) addCourse(t *testing.T, id int64) {
	t.Helper()
	c := &entities.Course{ID: id, Title: "Go basics", Level: 1, CreatedAt: time.Now()}
	if err := f.courses.Save(context.Background(), c); err != nil {
		t.Fatalf("save course: %v", err)
	}
}

func (f *apiFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorEnvelope](t, rec).Error.Code
}

type enrollmentBody struct {
	Enrollment enrollmentResponse `json:"enrollment"`
}

type progressBody struct {
	Progression   progressionResponse  `json:"progression"`
	JustCompleted bool                 `json:"just_completed"`
	IssueStatus   string               `json:"issue_status"`
	Certificate   *certificateResponse `json:"certificate"`
}

func TestEnrollThenCompleteCourse(t *testing.T) {
	f := newAPIFixture(t)
	f.addLearner(t, 1)
	f.addCourse(t, 10)

	rec := f.do(t, stdhttp.MethodPost, "/api/enrollments", gin.H{"learner_id": 1, "course_id": 10})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("enroll: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[enrollmentBody](t, rec); got.Enrollment.Status != string(entities.EnrollmentActive) {
		t.Errorf("enrollment = %+v", got.Enrollment)
	}

	rec = f.do(t, stdhttp.MethodPost, "/api/enrollments", gin.H{"learner_id": 1, "course_id": 10})
	if rec.Code != stdhttp.StatusConflict || errorCode(t, rec) != "conflict" {
		t.Fatalf("duplicate enroll: %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, stdhttp.MethodPost, "/api/progress", gin.H{"learner_id": 1, "course_id": 10, "percentage": 40})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("progress 40: %d %s", rec.Code, rec.Body.String())
	}
	partial := decode[progressBody](t, rec)
	if partial.JustCompleted || partial.Certificate != nil || partial.Progression.Percentage != 40 {
		t.Errorf("progress 40 = %+v", partial)
	}

	rec = f.do(t, stdhttp.MethodPost, "/api/progress", gin.H{"learner_id": 1, "course_id": 10, "percentage": 100})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("progress 100: %d %s", rec.Code, rec.Body.String())
	}
	done := decode[progressBody](t, rec)
	if !done.JustCompleted || done.IssueStatus != string(entities.IssueIssued) {
		t.Fatalf("progress 100 = %+v", done)
	}
	if done.Certificate == nil || done.Certificate.ArtifactRef == "" || done.Progression.CompletedAt == nil {
		t.Errorf("certificate = %+v, progression = %+v", done.Certificate, done.Progression)
	}
	if n := f.certificates.Count(); n != 1 {
		t.Errorf("certificates = %d, want 1", n)
	}
}

func TestProgressRejectsBadRequests(t *testing.T) {
	f := newAPIFixture(t)
	f.addLearner(t, 1)
	f.addCourse(t, 10)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed json", `{"learner_id":`, stdhttp.StatusBadRequest, "invalid_request"},
		{"missing percentage", gin.H{"learner_id": 1, "course_id": 10}, stdhttp.StatusBadRequest, "invalid_request"},
		{"out of range", gin.H{"learner_id": 1, "course_id": 10, "percentage": 150}, stdhttp.StatusBadRequest, "invalid_argument"},
		{"not enrolled", gin.H{"learner_id": 1, "course_id": 10, "percentage": 10}, stdhttp.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, stdhttp.MethodPost, "/api/progress", tt.body)
			if rec.Code != tt.status || errorCode(t, rec) != tt.code {
				t.Errorf("got %d %s, want %d %s", rec.Code, rec.Body.String(), tt.status, tt.code)
			}
		})
	}
}

func TestProgressKeepsCompletionWhenRenderingFails(t *testing.T) {
	f := newAPIFixture(t)
	f.addLearner(t, 1)
	f.addCourse(t, 10)
	f.renderer.err = errors.New("font missing")

	if rec := f.do(t, stdhttp.MethodPost, "/api/enrollments", gin.H{"learner_id": 1, "course_id": 10}); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("enroll: %d", rec.Code)
	}

	rec := f.do(t, stdhttp.MethodPost, "/api/progress", gin.H{"learner_id": 1, "course_id": 10, "percentage": 100})
	if rec.Code != stdhttp.StatusBadGateway || errorCode(t, rec) != "rendering_failed" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}

	p, err := f.progressions.Get(context.Background(), 1, 10)
	if err != nil || !p.IsComplete() {
		t.Fatalf("completion not stored: %+v, %v", p, err)
	}
	if n := f.certificates.Count(); n != 0 {
		t.Errorf("certificates = %d, want 0", n)
	}
}

func TestCancelEnrollment(t *testing.T) {
	f := newAPIFixture(t)
	f.addLearner(t, 1)
	f.addCourse(t, 10)

	if rec := f.do(t, stdhttp.MethodPost, "/api/enrollments/cancel", gin.H{"learner_id": 1, "course_id": 10}); rec.Code != stdhttp.StatusNotFound {
		t.Errorf("cancel without enrollment: %d %s", rec.Code, rec.Body.String())
	}

	f.do(t, stdhttp.MethodPost, "/api/enrollments", gin.H{"learner_id": 1, "course_id": 10})
	if rec := f.do(t, stdhttp.MethodPost, "/api/enrollments/cancel", gin.H{"learner_id": 1, "course_id": 10}); rec.Code != stdhttp.StatusOK {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
	}

	rec := f.do(t, stdhttp.MethodPost, "/api/progress", gin.H{"learner_id": 1, "course_id": 10, "percentage": 5})
	if rec.Code != stdhttp.StatusNotFound {
		t.Errorf("progress after cancel: %d %s", rec.Code, rec.Body.String())
	}
}

type notificationsBody struct {
	Notifications []notificationResponse `json:"notifications"`
}

type notificationBody struct {
	Notification notificationResponse `json:"notification"`
}

func TestBatchAndResendNotifications(t *testing.T) {
	f := newAPIFixture(t)
	for id := int64(1); id <= 3; id++ {
		f.addLearner(t, id)
	}

	rec := f.do(t, stdhttp.MethodPost, "/api/notifications/batch", gin.H{
		"recipient_ids": []int64{1, 2, 2, 3},
		"message":       "New module released",
		"kind":          "announcement",
	})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("batch: %d %s", rec.Code, rec.Body.String())
	}
	batch := decode[notificationsBody](t, rec)
	if len(batch.Notifications) != 3 {
		t.Fatalf("batch created %d notifications, want 3", len(batch.Notifications))
	}

	rec = f.do(t, stdhttp.MethodPost, "/api/notifications/batch", gin.H{"recipient_ids": []int64{}, "message": "x", "kind": "system"})
	if rec.Code != stdhttp.StatusBadRequest || errorCode(t, rec) != "invalid_argument" {
		t.Errorf("empty batch: %d %s", rec.Code, rec.Body.String())
	}

	f.mailer.err = errors.New("bounced")
	target := batch.Notifications[0]
	rec = f.do(t, stdhttp.MethodPost, "/api/notifications/"+target.ID+"/resend", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("resend with failing email: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[notificationBody](t, rec); got.Notification.ID != target.ID {
		t.Errorf("resent %s, want %s", got.Notification.ID, target.ID)
	}

	if rec := f.do(t, stdhttp.MethodPost, "/api/notifications/nope/resend", nil); rec.Code != stdhttp.StatusBadRequest || errorCode(t, rec) != "invalid_notification_id" {
		t.Errorf("bad id: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, stdhttp.MethodPost, "/api/notifications/"+uuid.NewString()+"/resend", nil); rec.Code != stdhttp.StatusNotFound {
		t.Errorf("unknown id: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNotificationOwnership(t *testing.T) {
	f := newAPIFixture(t)
	f.addLearner(t, 1)
	f.addLearner(t, 2)

	rec := f.do(t, stdhttp.MethodPost, "/api/notifications", gin.H{"recipient_id": 1, "message": "Hello", "kind": "system"})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	id := decode[notificationBody](t, rec).Notification.ID

	if rec := f.do(t, stdhttp.MethodPost, "/api/notifications/"+id+"/read", nil); rec.Code != stdhttp.StatusBadRequest {
		t.Errorf("read without user: %d", rec.Code)
	}
	if rec := f.do(t, stdhttp.MethodPost, "/api/notifications/"+id+"/read?user_id=2", nil); rec.Code != stdhttp.StatusForbidden {
		t.Errorf("read by other user: %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, stdhttp.MethodPost, "/api/notifications/"+id+"/read?user_id=1", nil)
	if rec.Code != stdhttp.StatusOK || !decode[notificationBody](t, rec).Notification.Read {
		t.Fatalf("read by owner: %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, stdhttp.MethodGet, "/api/notifications?user_id=1", nil)
	list := decode[notificationsBody](t, rec)
	if rec.Code != stdhttp.StatusOK || len(list.Notifications) != 1 || !list.Notifications[0].Read {
		t.Errorf("list: %d %s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, stdhttp.MethodDelete, "/api/notifications/"+id+"?user_id=2", nil); rec.Code != stdhttp.StatusForbidden {
		t.Errorf("delete by other user: %d", rec.Code)
	}
	if rec := f.do(t, stdhttp.MethodDelete, "/api/notifications/"+id+"?user_id=1", nil); rec.Code != stdhttp.StatusOK {
		t.Errorf("delete by owner: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, stdhttp.MethodDelete, "/api/notifications/"+id+"?user_id=1", nil); rec.Code != stdhttp.StatusNotFound {
		t.Errorf("second delete: %d", rec.Code)
	}
}
