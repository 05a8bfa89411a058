package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/condo-notify/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service interface {
	Get(ctx context.Context, notificationID, actingUserID string) (*domain.Notification, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	// ListUnread returns the user's unread notifications, newest first.
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead sets ReadAt once. Marking an already-read notification returns it unchanged.
	MarkRead(ctx context.Context, notificationID, actingUserID string) (*domain.Notification, error)
	// MarkAllRead marks every unread notification of userID and returns how many changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type notificationStore interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
}

type service struct {
	repo notificationStore
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, notificationID, actingUserID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != actingUserID {
		return nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrUnauthorized)
	}
	return n, nil
}

func (s *service) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, notificationID, actingUserID string) (*domain.Notification, error) {
	n, err := s.Get(ctx, notificationID, actingUserID)
	if err != nil {
		return nil, err
	}
	if n.IsRead() {
		return n, nil
	}
	at := time.Now().UTC()
	changed, err := s.repo.MarkRead(ctx, notificationID, at)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race with another reader; the stored read_at wins.
		return s.repo.Get(ctx, notificationID)
	}
	n.ReadAt = &at
	return n, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
}
