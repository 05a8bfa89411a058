// Package fcm delivers push messages through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/condo-notify/internal/domain"
	"google.golang.org/api/option"
)

type sender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// Gateway sends one message per token. Unregistered tokens and tokens bound
// to another sender are permanent failures; everything else is retryable.
type Gateway struct {
	client sender
}

func NewGateway(ctx context.Context, credentialsPath string) (*Gateway, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path is required")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &Gateway{client: client}, nil
}

func (g *Gateway) Deliver(ctx context.Context, token string, msg domain.PushMessage) domain.DeliveryOutcome {
	_, err := g.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	outcome := classify(err)
	if err != nil {
		slog.Warn("fcm send failed", "outcome", outcome, "err", err)
	}
	return outcome
}

func classify(err error) domain.DeliveryOutcome {
	switch {
	case err == nil:
		return domain.Delivered
	case messaging.IsUnregistered(err), messaging.IsSenderIDMismatch(err):
		return domain.PermanentFailure
	default:
		return domain.TransientFailure
	}
}
