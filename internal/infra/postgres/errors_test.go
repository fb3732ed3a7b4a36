package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "certificates_learner_course_key"}

	tests := []struct {
		name        string
		err         error
		constraints []string
		want        bool
	}{
		{"any constraint", dup, nil, true},
		{"wrapped", fmt.Errorf("insert certificate: %w", dup), nil, true},
		{"matching constraint", dup, []string{"certificates_learner_course_key"}, true},
		{"other constraint", dup, []string{"enrollments_pkey"}, false},
		{"foreign key", &pgconn.PgError{Code: "23503"}, nil, false},
		{"plain error", errors.New("boom"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraints...); got != tt.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
