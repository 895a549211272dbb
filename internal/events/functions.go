package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/newthinker/folio/internal/core"
	"go.uber.org/zap"
)

// Built-in function ids.
const (
	UserRegisteredHandlerID = "user-registered-handler"
	MessageHandlerID        = "message-handler"
)

// WelcomeMailer sends the welcome email.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// UserRegisteredHandler logs a new registration and sends the welcome email.
func UserRegisteredHandler(mailer WelcomeMailer, logger *zap.Logger) Function {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Function{
		ID:    UserRegisteredHandlerID,
		Event: UserRegistered,
		Handler: func(ctx context.Context, evt Event, step *Step) error {
			var data UserRegisteredData
			if err := evt.Decode(&data); err != nil {
				return err
			}
			if data.Email == "" {
				return core.WrapError(core.ErrValidation, fmt.Errorf("%s without email", evt.Name))
			}

			err := step.Run(ctx, "log-registration", func(ctx context.Context) error {
				logger.Info("new user registered",
					zap.String("user_id", data.UserID),
					zap.String("email", data.Email),
				)
				return nil
			})
			if err != nil {
				return err
			}

			return step.Run(ctx, "send-welcome-email", func(ctx context.Context) error {
				if mailer == nil {
					return backoff.Permanent(fmt.Errorf("no mailer configured"))
				}
				err := mailer.SendWelcome(ctx, data.Email, data.Name)
				if errors.Is(err, core.ErrValidation) {
					return backoff.Permanent(err)
				}
				return err
			})
		},
	}
}

// MessageHandler logs incoming messages and their metadata.
func MessageHandler(logger *zap.Logger) Function {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Function{
		ID:    MessageHandlerID,
		Event: MessageSend,
		Handler: func(ctx context.Context, evt Event, step *Step) error {
			var data MessageSendData
			if err := evt.Decode(&data); err != nil {
				return err
			}

			return step.Run(ctx, "process-message", func(ctx context.Context) error {
				fields := []zap.Field{zap.String("message", data.Message)}
				if len(data.Metadata) > 0 {
					fields = append(fields, zap.Any("metadata", data.Metadata))
				}
				logger.Info("processing message", fields...)
				return nil
			})
		},
	}
}

// RegisterDefaults registers the built-in functions on bus.
func RegisterDefaults(bus *Bus, mailer WelcomeMailer, logger *zap.Logger) error {
	for _, fn := range []Function{
		UserRegisteredHandler(mailer, logger),
		MessageHandler(logger),
	} {
		if err := bus.Register(fn); err != nil {
			return err
		}
	}
	return nil
}
