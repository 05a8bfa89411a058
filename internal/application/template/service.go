package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/condo-notify/internal/domain"
)

// SeedResult counts what an administrative seeding pass changed.
type SeedResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

type Service interface {
	// Get returns an active template. Unknown and inactive names are ErrNotFound.
	Get(ctx context.Context, name string) (*domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Seed(ctx context.Context, templates []domain.Template) (*SeedResult, error)
}

type templateStore interface {
	Get(ctx context.Context, name string) (*domain.Template, error)
	Scan(ctx context.Context) ([]domain.Template, error)
	Put(ctx context.Context, t *domain.Template) error
}

type service struct {
	repo templateStore
}

func NewService(repo templateStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, name string) (*domain.Template, error) {
	t, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, fmt.Errorf("template %q is inactive: %w", name, domain.ErrNotFound)
	}
	return t, nil
}

func (s *service) List(ctx context.Context) ([]domain.Template, error) {
	all, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Template, 0, len(all))
	for _, t := range all {
		if t.Active {
			active = append(active, t)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })
	return active, nil
}

func (s *service) Seed(ctx context.Context, templates []domain.Template) (*SeedResult, error) {
	res := &SeedResult{}
	for _, in := range templates {
		name := strings.TrimSpace(in.Name)
		if name == "" || in.BodyPattern == "" {
			return res, fmt.Errorf("template name and body are required: %w", domain.ErrBadRequest)
		}
		now := time.Now().UTC()
		existing, err := s.repo.Get(ctx, name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			t := &domain.Template{
				Name:         name,
				TitlePattern: in.TitlePattern,
				BodyPattern:  in.BodyPattern,
				Active:       in.Active,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.repo.Put(ctx, t); err != nil {
				return res, err
			}
			slog.Info("template created", "name", name)
			res.Created++
		case err != nil:
			return res, err
		case existing.TitlePattern == in.TitlePattern && existing.BodyPattern == in.BodyPattern && existing.Active == in.Active:
			res.Unchanged++
		default:
			existing.TitlePattern = in.TitlePattern
			existing.BodyPattern = in.BodyPattern
			existing.Active = in.Active
			existing.UpdatedAt = now
			if err := s.repo.Put(ctx, existing); err != nil {
				return res, err
			}
			slog.Info("template updated", "name", name)
			res.Updated++
		}
	}
	return res, nil
}
