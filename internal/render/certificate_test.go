package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/objects"
)

type memStore struct {
	data   map[string][]byte
	putErr error
}

func (m *memStore) Put(_ context.Context, c objects.Category, key string, r io.Reader, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.data[string(c)+"/"+key] = b
	return nil
}

func (m *memStore) List(context.Context, objects.Category, string) ([]objects.Object, error) {
	return nil, nil
}

func (m *memStore) Delete(context.Context, objects.Category, string) error { return nil }

func (m *memStore) URL(c objects.Category, key string) string {
	return "mem://" + string(c) + "/" + key
}

func TestRenderStoresPNG(t *testing.T) {
	store := &memStore{data: map[string][]byte{}}
	r, err := NewCertificateRenderer(store, objects.CategoryCertificate, "", 0, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewCertificateRenderer: %v", err)
	}

	learner := entities.NewLearner(5, "Ada Lovelace", "ada@example.com")
	course := &entities.Course{ID: 9, Title: "Concurrency in Go", Level: 3}
	cert := entities.NewCertificate(5, 9, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	ref, err := r.Render(context.Background(), learner, course, cert)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	wantKey := "certificate/" + ArtifactKey(cert)
	if ref != "mem://"+wantKey {
		t.Fatalf("ref = %q", ref)
	}
	if !strings.HasPrefix(ArtifactKey(cert), "5/9/") {
		t.Fatalf("key = %q", ArtifactKey(cert))
	}

	img, err := png.Decode(bytes.NewReader(store.data[wantKey]))
	if err != nil {
		t.Fatalf("stored artifact is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		t.Fatalf("bounds = %v", b)
	}
}

func TestRenderFailsWhenUploadFails(t *testing.T) {
	store := &memStore{data: map[string][]byte{}, putErr: errors.New("bucket unavailable")}
	r, _ := NewCertificateRenderer(store, objects.CategoryCertificate, "", 0, zaptest.NewLogger(t))

	_, err := r.Render(context.Background(),
		entities.NewLearner(1, "", ""),
		&entities.Course{ID: 1, Title: "x"},
		entities.NewCertificate(1, 1, time.Now()),
	)
	if err == nil {
		t.Fatal("expected upload error")
	}
}

func TestNewCertificateRendererRejectsMissingFont(t *testing.T) {
	_, err := NewCertificateRenderer(&memStore{}, objects.CategoryCertificate, "/nonexistent/font.ttf", 24, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("expected font load error")
	}
}
