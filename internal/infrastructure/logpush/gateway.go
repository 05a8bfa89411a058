// Package logpush is a push gateway that only logs. It backs local runs
// where no FCM or SNS credentials exist.
package logpush

import (
	"context"
	"log/slog"

	"github.com/condo-notify/internal/domain"
)

type Gateway struct{}

func NewGateway() *Gateway { return &Gateway{} }

func (g *Gateway) Deliver(ctx context.Context, token string, msg domain.PushMessage) domain.DeliveryOutcome {
	if err := ctx.Err(); err != nil {
		return domain.TransientFailure
	}
	slog.Info("push (log only)", "token_suffix", suffix(token), "title", msg.Title, "body", msg.Body, "data", msg.Data)
	return domain.Delivered
}

func suffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[len(token)-6:]
}
