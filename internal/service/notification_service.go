package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gatherly/internal/ids"
	"gatherly/internal/models"
	"gatherly/internal/repository"
)

// unreadCacheTTL bounds staleness of the cached unread count. The client
// polls every 30 seconds, so a short TTL keeps most polls off Postgres.
const unreadCacheTTL = 25 * time.Second

type NotificationService struct {
	notifications *repository.NotificationRepository
	cache         *redis.Client
	log           zerolog.Logger
}

func NewNotificationService(
	notifications *repository.NotificationRepository,
	cache *redis.Client,
	log zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		cache:         cache,
		log:           log,
	}
}

// Notify creates a notification for the user. Failures are logged, not
// returned: a lost notification never fails the operation that caused it.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string, eventID *string) {
	n := models.Notification{
		ID:      ids.New(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
		EventID: eventID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("create notification failed")
		return
	}
	s.invalidateUnread(ctx, userID)
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.notifications.ListByUser(ctx, userID, limit)
}

// UnreadCount serves from the redis cache when possible and falls back to
// Postgres, repopulating the cache on the way out.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := unreadKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.Atoi(cached); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, unreadCacheTTL).Err(); err != nil {
			s.log.Debug().Err(err).Msg("unread cache set failed")
		}
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.notifications.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.notifications.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadKey(userID)).Err(); err != nil {
		s.log.Debug().Err(err).Msg("unread cache invalidate failed")
	}
}

func unreadKey(userID string) string {
	return fmt.Sprintf("notify:unread:%s", userID)
}
