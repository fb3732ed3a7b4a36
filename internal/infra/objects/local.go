package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects on disk under root/<category>/<key>.
type Local struct {
	root          string
	publicBaseURL string
}

func NewLocal(root, publicBaseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object root: %w", err)
	}
	return &Local{root: root, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (l *Local) path(category Category, key string) (string, error) {
	if category == "" {
		return "", ErrUnknownCategory
	}
	clean := filepath.Clean("/" + key)
	return filepath.Join(l.root, string(category), clean), nil
}

func (l *Local) Put(ctx context.Context, category Category, key string, r io.Reader, _ string) error {
	p, err := l.path(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create object %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	return f.Close()
}

func (l *Local) List(ctx context.Context, category Category, prefix string) ([]Object, error) {
	base := filepath.Join(l.root, string(category))

	var out []Object
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Object{Key: key, Size: info.Size(), Updated: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	return out, nil
}

func (l *Local) Delete(_ context.Context, category Category, key string) error {
	p, err := l.path(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (l *Local) URL(category Category, key string) string {
	key = strings.TrimLeft(key, "/")
	if l.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", l.publicBaseURL, category, key)
	}
	return "file://" + filepath.ToSlash(filepath.Join(l.root, string(category), key))
}
