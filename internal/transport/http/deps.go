package http

import (
	"context"
	"time"

	"github.com/condo-notify/internal/application/dispatch"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/transport/http/middleware"
)

// EndpointStore is what the registry needs from storage. Both the DynamoDB
// and the SQL repos satisfy it.
type EndpointStore interface {
	Upsert(ctx context.Context, e *domain.Endpoint) (*domain.Endpoint, error)
	Get(ctx context.Context, endpointID string) (*domain.Endpoint, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Endpoint, error)
	InvalidateToken(ctx context.Context, token string, at time.Time) error
	SetValid(ctx context.Context, userID, token string, valid bool, at time.Time) error
}

type TemplateStore interface {
	Get(ctx context.Context, name string) (*domain.Template, error)
	Scan(ctx context.Context) ([]domain.Template, error)
	Put(ctx context.Context, t *domain.Template) error
}

// NotificationStore covers both the dispatcher's writes and the tracker's reads.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
}

// Deps holds all infrastructure dependencies for the router. Archive may be nil.
type Deps struct {
	Endpoints     EndpointStore
	Templates     TemplateStore
	Notifications NotificationStore
	Gateway       dispatch.Gateway
	Archive       dispatch.ReportArchive
	Verifier      middleware.Verifier
}
