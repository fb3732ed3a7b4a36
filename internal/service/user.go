package service

import (
	"context"
	"fmt"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type UserService struct {
	repository UserRepository
}

func NewUserService(repository UserRepository) *UserService {
	return &UserService{repository: repository}
}

// LinkChat attaches a Telegram chat to an existing user so live notifications
// reach it. Linking the same chat again is a no-op.
func (s *UserService) LinkChat(ctx context.Context, userID, chatID int64) (*entities.User, error) {
	if userID <= 0 || chatID == 0 {
		return nil, fmt.Errorf("%w: user id and chat id are required", apperr.ErrInvalidArgument)
	}

	user, err := s.repository.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("link chat: %w", err)
	}
	if user.ChatID == chatID {
		return user, nil
	}

	if err := s.repository.LinkChat(ctx, userID, chatID); err != nil {
		return nil, fmt.Errorf("link chat: %w", err)
	}
	user.ChatID = chatID

	return user, nil
}

// ByChat returns the user linked to the chat.
func (s *UserService) ByChat(ctx context.Context, chatID int64) (*entities.User, error) {
	return s.repository.GetByChatID(ctx, chatID)
}
