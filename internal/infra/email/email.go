// Package email delivers notification emails.
package email

import (
	"context"
	"errors"
	"net/mail"
)

var ErrNoRecipient = errors.New("email has no recipient")

// Message is a single outgoing email.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if m.To.Address == "" {
		return ErrNoRecipient
	}
	return nil
}
