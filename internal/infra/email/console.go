package email

import (
	"context"

	"go.uber.org/zap"
)

// Console writes emails to the log instead of sending them. Used in local runs.
type Console struct {
	logger     *zap.Logger
	subjPrefix string
}

func NewConsole(logger *zap.Logger, subjectPrefix string) *Console {
	return &Console{
		logger:     logger.With(zap.String("component", "email.console")),
		subjPrefix: subjectPrefix,
	}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	c.logger.Info("email",
		zap.String("to", msg.To.String()),
		zap.String("subject", c.subjPrefix+msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
