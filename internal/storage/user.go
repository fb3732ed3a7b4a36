package storage

import (
	"context"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

// Save inserts a new user or updates an existing one. The linked chat is kept.
func (r *UserRepository) Save(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := *user
	if existing, ok := r.s.users[user.ID]; ok {
		u.ChatID = existing.ChatID
		u.CreatedAt = existing.CreatedAt
	}
	r.s.users[user.ID] = &u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, userID int64) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) GetByChatID(_ context.Context, chatID int64) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if chatID != 0 && u.ChatID == chatID {
			c := *u
			return &c, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (r *UserRepository) LinkChat(_ context.Context, userID, chatID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.ChatID = chatID
	return nil
}

type CourseRepository struct {
	s *Store
}

func NewCourseRepository(s *Store) *CourseRepository {
	return &CourseRepository{s: s}
}

func (r *CourseRepository) Save(_ context.Context, course *entities.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *course
	r.s.courses[course.ID] = &c
	return nil
}

func (r *CourseRepository) GetByID(_ context.Context, courseID int64) (*entities.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.courses[courseID]
	if !ok {
		return nil, apperr.ErrCourseNotFound
	}
	cc := *c
	return &cc, nil
}
