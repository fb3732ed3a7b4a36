package objects

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalPutListDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	l, err := NewLocal(root, "https://files.example.com")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	if err := l.Put(ctx, CategoryUpload, "tmp/a.pdf", strings.NewReader("a"), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := l.Put(ctx, CategoryUpload, "keep/b.pdf", strings.NewReader("bb"), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	all, err := l.List(ctx, CategoryUpload, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List returned %d objects, want 2", len(all))
	}

	tmp, _ := l.List(ctx, CategoryUpload, "tmp/")
	if len(tmp) != 1 || tmp[0].Key != "tmp/a.pdf" || tmp[0].Size != 1 {
		t.Fatalf("prefix list = %+v", tmp)
	}

	if err := l.Delete(ctx, CategoryUpload, "tmp/a.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, CategoryUpload, "tmp/a.pdf"); err != nil {
		t.Fatalf("second Delete must be a no-op: %v", err)
	}

	if got := l.URL(CategoryUpload, "keep/b.pdf"); got != "https://files.example.com/upload/keep/b.pdf" {
		t.Fatalf("URL = %q", got)
	}
}

func TestLocalListReportsModTime(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l, _ := NewLocal(root, "")

	_ = l.Put(ctx, CategoryAvatar, "old.png", strings.NewReader("x"), "image/png")
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(root, "avatar", "old.png"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	got, _ := l.List(ctx, CategoryAvatar, "")
	if len(got) != 1 || !got[0].Updated.Before(time.Now().Add(-24*time.Hour)) {
		t.Fatalf("got %+v", got)
	}
}

func TestLocalKeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	l, _ := NewLocal(root, "")

	p, err := l.path(CategoryUpload, "../../etc/passwd")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !strings.HasPrefix(p, filepath.Join(root, "upload")) {
		t.Fatalf("path escaped root: %s", p)
	}
}

func TestListMissingCategoryIsEmpty(t *testing.T) {
	l, _ := NewLocal(t.TempDir(), "")

	got, err := l.List(context.Background(), CategoryCertificate, "")
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}
