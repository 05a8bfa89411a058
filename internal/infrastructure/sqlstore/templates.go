package sqlstore

import (
	"context"

	"github.com/condo-notify/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateRepo struct {
	db *gorm.DB
}

func NewTemplateRepo(db *gorm.DB) *TemplateRepo {
	return &TemplateRepo{db: db}
}

func (r *TemplateRepo) Get(ctx context.Context, name string) (*domain.Template, error) {
	var t domain.Template
	if err := r.db.WithContext(ctx).First(&t, "name = ?", name).Error; err != nil {
		return nil, notFound(err, "template "+name)
	}
	return &t, nil
}

func (r *TemplateRepo) Scan(ctx context.Context) ([]domain.Template, error) {
	templates := []domain.Template{}
	err := r.db.WithContext(ctx).Order("name").Find(&templates).Error
	return templates, err
}

func (r *TemplateRepo) Put(ctx context.Context, t *domain.Template) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"title_pattern", "body_pattern", "active", "updated_at"}),
	}).Create(t).Error
}
