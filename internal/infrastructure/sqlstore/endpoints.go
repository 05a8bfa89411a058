package sqlstore

import (
	"context"
	"time"

	"github.com/condo-notify/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EndpointRepo struct {
	db *gorm.DB
}

func NewEndpointRepo(db *gorm.DB) *EndpointRepo {
	return &EndpointRepo{db: db}
}

// Upsert inserts e or, when (user_id, token) exists, revives and refreshes the
// existing row. The stored row is returned so callers see the original id.
func (r *EndpointRepo) Upsert(ctx context.Context, e *domain.Endpoint) (*domain.Endpoint, error) {
	row := *e
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"valid", "platform", "last_seen_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	var stored domain.Endpoint
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", e.UserID, e.Token).
		First(&stored).Error
	if err != nil {
		return nil, notFound(err, "endpoint")
	}
	return &stored, nil
}

func (r *EndpointRepo) Get(ctx context.Context, endpointID string) (*domain.Endpoint, error) {
	var e domain.Endpoint
	if err := r.db.WithContext(ctx).First(&e, "endpoint_id = ?", endpointID).Error; err != nil {
		return nil, notFound(err, "endpoint "+endpointID)
	}
	return &e, nil
}

func (r *EndpointRepo) ListByUser(ctx context.Context, userID string) ([]domain.Endpoint, error) {
	endpoints := []domain.Endpoint{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("registered_at").
		Find(&endpoints).Error
	return endpoints, err
}

func (r *EndpointRepo) InvalidateToken(ctx context.Context, token string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Endpoint{}).
		Where("token = ? AND valid = ?", token, true).
		Updates(map[string]interface{}{"valid": false, "updated_at": at}).Error
}

func (r *EndpointRepo) SetValid(ctx context.Context, userID, token string, valid bool, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Endpoint{}).
		Where("user_id = ? AND token = ?", userID, token).
		Updates(map[string]interface{}{"valid": valid, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "endpoint for "+userID)
	}
	return nil
}
