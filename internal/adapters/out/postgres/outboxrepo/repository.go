package outboxrepo

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository implements NotificationOutbox using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	dto := fromDomain(n)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// ListPending locks up to limit unpublished rows for the rest of the transaction.
// Rows locked by a concurrent transaction are skipped instead of waited for.
func (r *GormOutboxRepository) ListPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	if limit < 1 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, nil)
	}

	var dtos []NotificationDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL").
		Order("id").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	pending := make([]*notification.Notification, 0, len(dtos))
	for _, dto := range dtos {
		n, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		pending = append(pending, n)
	}
	return pending, nil
}

// MarkPublished sets published_at once. Marking an already published row is a no-op.
func (r *GormOutboxRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationDTO{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("published_at", at.UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&NotificationDTO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("notification", id)
	}
	return nil
}
