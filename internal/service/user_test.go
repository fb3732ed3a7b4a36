package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
)

func TestLinkChat(t *testing.T) {
	env := newTestEnv(t)
	env.addLearner(t, 1)
	users := NewUserService(env.users)
	ctx := context.Background()

	u, err := users.LinkChat(ctx, 1, 555)
	if err != nil {
		t.Fatalf("LinkChat: %v", err)
	}
	if u.ChatID != 555 {
		t.Errorf("chat id = %d, want 555", u.ChatID)
	}

	byChat, err := users.ByChat(ctx, 555)
	if err != nil || byChat.ID != 1 {
		t.Fatalf("ByChat = %v, %v", byChat, err)
	}

	if _, err := users.LinkChat(ctx, 2, 555); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
	if _, err := users.LinkChat(ctx, 1, 0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("zero chat: err = %v", err)
	}
	if _, err := users.ByChat(ctx, 777); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unlinked chat: err = %v", err)
	}
}
