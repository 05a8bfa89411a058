package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/pkg/id"
)

type Service interface {
	// Register upserts the (userID, token) endpoint, marks it valid and refreshes LastSeenAt.
	Register(ctx context.Context, userID, token, platform string) (*domain.Endpoint, error)
	// Invalidate marks every endpoint carrying token as invalid. Unknown tokens are a no-op.
	Invalidate(ctx context.Context, token string) error
	// ListValid returns the valid tokens for userID. An empty result is not an error.
	ListValid(ctx context.Context, userID string) ([]string, error)
	List(ctx context.Context, userID string) ([]domain.Endpoint, error)
	// Deactivate lets the owner switch off one of their own endpoints.
	Deactivate(ctx context.Context, endpointID, actingUserID string) (*domain.Endpoint, error)
}

type endpointStore interface {
	Upsert(ctx context.Context, e *domain.Endpoint) (*domain.Endpoint, error)
	Get(ctx context.Context, endpointID string) (*domain.Endpoint, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Endpoint, error)
	InvalidateToken(ctx context.Context, token string, at time.Time) error
	SetValid(ctx context.Context, userID, token string, valid bool, at time.Time) error
}

type service struct {
	repo endpointStore
}

func NewService(repo endpointStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, userID, token, platform string) (*domain.Endpoint, error) {
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return nil, fmt.Errorf("user and token are required: %w", domain.ErrBadRequest)
	}
	if platform == "" {
		platform = domain.PlatformAndroid
	}
	now := time.Now().UTC()
	return s.repo.Upsert(ctx, &domain.Endpoint{
		EndpointID:   id.New(),
		UserID:       userID,
		Token:        token,
		Platform:     platform,
		Valid:        true,
		RegisteredAt: now,
		LastSeenAt:   now,
		UpdatedAt:    now,
	})
}

func (s *service) Invalidate(ctx context.Context, token string) error {
	if err := s.repo.InvalidateToken(ctx, token, time.Now().UTC()); err != nil {
		return err
	}
	slog.Info("endpoint invalidated", "token", redact(token))
	return nil
}

func (s *service) ListValid(ctx context.Context, userID string) ([]string, error) {
	endpoints, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if e.Valid {
			tokens = append(tokens, e.Token)
		}
	}
	return tokens, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Endpoint, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Deactivate(ctx context.Context, endpointID, actingUserID string) (*domain.Endpoint, error) {
	e, err := s.repo.Get(ctx, endpointID)
	if err != nil {
		return nil, err
	}
	if e.UserID != actingUserID {
		return nil, fmt.Errorf("endpoint belongs to another user: %w", domain.ErrForbidden)
	}
	if !e.Valid {
		return e, nil
	}
	now := time.Now().UTC()
	if err := s.repo.SetValid(ctx, e.UserID, e.Token, false, now); err != nil {
		return nil, err
	}
	e.Valid = false
	e.UpdatedAt = now
	return e, nil
}

// redact keeps log lines from carrying full device tokens.
func redact(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
