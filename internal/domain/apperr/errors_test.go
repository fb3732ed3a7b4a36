package apperr

import (
	"errors"
	"io"
	"testing"
)

func TestSentinelsMatchTheirKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"user", ErrUserNotFound, ErrNotFound},
		{"enrollment", ErrEnrollmentNotFound, ErrNotFound},
		{"notification", ErrNotificationNotFound, ErrNotFound},
		{"certificate exists", ErrCertificateExists, ErrConflict},
		{"enrollment exists", ErrEnrollmentExists, ErrConflict},
		{"forbidden", ErrNotificationForbidden, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Fatalf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
		})
	}
}

func TestPersistence(t *testing.T) {
	if Persistence("insert", nil) != nil {
		t.Fatal("nil error must stay nil")
	}

	err := Persistence("insert notification", io.ErrUnexpectedEOF)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("want ErrPersistence in chain, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want cause in chain, got %v", err)
	}
}
