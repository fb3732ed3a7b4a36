// Package storage provides in-memory repositories with the same semantics as
// the PostgreSQL ones. It backs the "memory" storage driver and the service tests.
package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type pairKey struct {
	learnerID int64
	courseID  int64
}

// Store holds every table in memory.
type Store struct {
	mu            sync.RWMutex
	users         map[int64]*entities.User
	courses       map[int64]*entities.Course
	enrollments   map[pairKey]*entities.Enrollment
	progressions  map[pairKey]*entities.Progression
	certificates  map[pairKey]*entities.Certificate
	notifications map[uuid.UUID]*entities.Notification

	// txMu serializes transactions, which stands in for row locks on the
	// certificate unique index.
	txMu sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:         make(map[int64]*entities.User),
		courses:       make(map[int64]*entities.Course),
		enrollments:   make(map[pairKey]*entities.Enrollment),
		progressions:  make(map[pairKey]*entities.Progression),
		certificates:  make(map[pairKey]*entities.Certificate),
		notifications: make(map[uuid.UUID]*entities.Notification),
	}
}

type txKey struct{}

// tx stages certificate writes until commit. Certificates are the only rows
// written inside transactions.
type tx struct {
	certificates map[pairKey]*entities.Certificate
}

func txFrom(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

// Transactor runs functions in Store transactions.
type Transactor struct {
	s *Store
}

func NewTransactor(s *Store) *Transactor {
	return &Transactor{s: s}
}

// WithinTx runs fn with a staged transaction. Staged writes become visible
// only when fn returns nil.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	staged := &tx{certificates: make(map[pairKey]*entities.Certificate)}
	if err := fn(context.WithValue(ctx, txKey{}, staged)); err != nil {
		return err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for k := range staged.certificates {
		if _, exists := t.s.certificates[k]; exists {
			return apperr.ErrCertificateExists
		}
	}
	for k, c := range staged.certificates {
		t.s.certificates[k] = c
	}

	return nil
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
