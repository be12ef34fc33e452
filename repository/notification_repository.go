package repository

import (
	"context"

	"homeser-core/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, log *models.NotificationLog) error
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.NotificationLog, int64, error)
}

type gormNotificationRepo struct {
	db *gorm.DB
}

func NewGormNotificationRepo(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepo{db: db}
}

func (r *gormNotificationRepo) Create(ctx context.Context, log *models.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *gormNotificationRepo) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.NotificationLog, int64, error) {
	var logs []models.NotificationLog
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.NotificationLog{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("emitted_at DESC").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
