package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"docuchat-be/internal/constant"
	"docuchat-be/internal/dto"
	"docuchat-be/internal/model"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/repository"
	"docuchat-be/pkg/watcher"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
}

// NotificationService turns watcher status messages into persisted
// notifications and pushes them to connected clients.
type NotificationService struct {
	repo     repository.NotificationRepository
	pubSub   *gochannel.GoChannel
	delivery NotificationDelivery
	logger   logger.ILogger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	pubSub *gochannel.GoChannel,
	delivery NotificationDelivery,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		repo:     repo,
		pubSub:   pubSub,
		delivery: delivery,
		logger:   log,
	}
}

// Start begins consuming document status messages.
func (s *NotificationService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, watcher.StatusTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.handleStatusMessage(ctx, msg)
		}
	}()

	s.logger.Info("NotificationService", "listening for document status messages", nil)
	return nil
}

func (s *NotificationService) handleStatusMessage(ctx context.Context, msg *message.Message) {
	var status watcher.DocumentStatusMessage
	if err := json.Unmarshal(msg.Payload, &status); err != nil {
		s.logger.Warn("NotificationService", "malformed status message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // retrying will not help
		return
	}

	notif := s.buildNotification(status)

	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", "failed to save notification", map[string]interface{}{
			"document_id": status.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	if s.delivery != nil {
		s.delivery.Send(status.UserId, notif)
	}
	msg.Ack()
}

func (s *NotificationService) buildNotification(status watcher.DocumentStatusMessage) model.Notification {
	title := "Document ready"
	body := fmt.Sprintf("%q has been indexed and is ready for questions.", status.Filename)
	typeCode := "DOCUMENT_PROCESSED"
	if status.Status == constant.DocumentStatusError {
		title = "Document failed"
		body = fmt.Sprintf("%q could not be processed: %s", status.Filename, status.ErrorMessage)
		typeCode = "DOCUMENT_ERROR"
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"document_id":     status.DocumentId.String(),
		"chat_session_id": status.ChatSessionId.String(),
		"status":          status.Status,
	})

	return model.Notification{
		Id:        uuid.New(),
		UserId:    status.UserId,
		TypeCode:  typeCode,
		Title:     title,
		Message:   body,
		Metadata:  datatypes.JSON(meta),
		IsRead:    false,
		CreatedAt: time.Now(),
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.NotificationResponse, int64, error) {
	notifications, total, err := s.repo.GetNotificationsByUserID(ctx, userId, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	res := make([]*dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		var meta map[string]interface{}
		_ = json.Unmarshal(n.Metadata, &meta)

		res = append(res, &dto.NotificationResponse{
			Id:        n.Id,
			Type:      n.TypeCode,
			Title:     n.Title,
			Message:   n.Message,
			Metadata:  meta,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return res, total, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userId uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userId)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationId uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, notificationId)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userId uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userId)
}
