package service

import (
	"context"
	"fmt"
	"time"

	"nova-advisor-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MsgQuotaExceeded is returned to the user when the daily AI call budget is
// spent.
const MsgQuotaExceeded = "Has alcanzado el límite diario de consultas. Inténtalo de nuevo mañana."

// IQuotaService meters AI-backed calls per user per calendar day.
type IQuotaService interface {
	// Consume registers one call and reports whether the user is still
	// within the daily limit.
	Consume(ctx context.Context, userId uuid.UUID) (bool, error)
}

type quotaService struct {
	client     *redis.Client
	dailyLimit int
	logger     logger.ILogger
}

func NewQuotaService(client *redis.Client, dailyLimit int, log logger.ILogger) IQuotaService {
	return &quotaService{
		client:     client,
		dailyLimit: dailyLimit,
		logger:     log,
	}
}

// Consume increments the user's daily counter. The key expires at the end of
// the day so counters reset without a scheduler. A Redis failure skips the
// check with a warning rather than blocking the user.
func (s *quotaService) Consume(ctx context.Context, userId uuid.UUID) (bool, error) {
	if s.client == nil || s.dailyLimit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("quota:ai:%s:%s", userId, time.Now().Format("2006-01-02"))

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn("quota", "redis unavailable, skipping quota check", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return true, nil
	}

	if count == 1 {
		s.client.Expire(ctx, key, 24*time.Hour)
	}

	return count <= int64(s.dailyLimit), nil
}
