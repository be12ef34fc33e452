package services

import (
	"context"

	"homeser-core/apperrors"
	"homeser-core/models"
	"homeser-core/repository"

	"go.uber.org/zap"
)

type NotificationResponse struct {
	Notifications []models.NotificationLog `json:"notifications"`
	Meta          MetaData                 `json:"meta"`
}

// NotificationService serves the durable mirror of emitted events, the REST
// polling fallback for clients that were offline when an event fired.
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger,
	}
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID string, page, limit int) (*NotificationResponse, error) {
	logs, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch notifications",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, apperrors.ErrInternalServer.With(err)
	}

	return &NotificationResponse{
		Notifications: logs,
		Meta: MetaData{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: calculateTotalPages(total, limit),
			HasMore:    total > int64(page*limit),
		},
	}, nil
}
