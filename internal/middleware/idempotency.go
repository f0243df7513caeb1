package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "coinvest:idem:v2:"
	pendingMarker        = "pending"
	idempotencyOpTimeout = 2 * time.Second
)

// IdempotencyScope names the account a request acts for. Stored responses
// are only replayed within the same scope.
type IdempotencyScope func(c *fiber.Ctx) string

type replay struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	Body        []byte `json:"body"`
}

type idempotencyStore struct {
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Idempotency replays the stored response for a repeated Idempotency-Key so
// a retried deposit or withdrawal reaches the backend once. Requests without
// the header pass through, and 5xx answers are dropped so the same key can
// be retried.
func Idempotency(cache *redis.Client, ttl time.Duration, scope IdempotencyScope, logger *slog.Logger) fiber.Handler {
	st := &idempotencyStore{cache: cache, ttl: ttl, logger: logger}
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}
		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" {
			return c.Next()
		}
		owner := "anonymous"
		if scope != nil {
			if s := scope(c); s != "" {
				owner = s
			}
		}
		slot := idempotencyPrefix + owner + ":" + c.Path() + ":" + key

		prev, found, err := st.lookup(slot)
		if err != nil {
			st.logger.Error("idempotency lookup failed", "key", key, "error", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store unavailable")
		}
		if found {
			if prev == nil {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
			}
			c.Set(fiber.HeaderContentType, prev.ContentType)
			c.Set("Idempotent-Replay", "true")
			return c.Status(prev.Status).Send(prev.Body)
		}

		reserved, err := st.reserve(slot)
		if err != nil {
			st.logger.Error("idempotency reservation failed", "key", key, "error", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store unavailable")
		}
		if !reserved {
			return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
		}

		if err := c.Next(); err != nil {
			st.release(slot)
			return err
		}
		res := c.Response()
		if res.StatusCode() >= fiber.StatusInternalServerError {
			st.release(slot)
			return nil
		}
		requestID, _ := c.Locals(RequestIDHeader).(string)
		st.save(slot, replay{
			Status:      res.StatusCode(),
			ContentType: string(res.Header.ContentType()),
			RequestID:   requestID,
			Body:        append([]byte(nil), res.Body()...),
		})
		return nil
	}
}

// lookup returns found with a nil replay while the first request is running.
func (s *idempotencyStore) lookup(slot string) (*replay, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyOpTimeout)
	defer cancel()
	raw, err := s.cache.Get(ctx, slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if string(raw) == pendingMarker {
		return nil, true, nil
	}
	var r replay
	if err := json.Unmarshal(raw, &r); err != nil {
		s.logger.Warn("discarding unreadable idempotent response", "slot", slot, "error", err)
		s.release(slot)
		return nil, false, nil
	}
	return &r, true, nil
}

func (s *idempotencyStore) reserve(slot string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyOpTimeout)
	defer cancel()
	return s.cache.SetNX(ctx, slot, pendingMarker, s.ttl).Result()
}

func (s *idempotencyStore) save(slot string, r replay) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyOpTimeout)
	defer cancel()
	payload, err := json.Marshal(r)
	if err == nil {
		err = s.cache.Set(ctx, slot, payload, s.ttl).Err()
	}
	if err != nil {
		// The response already went out; only the replay is lost.
		s.logger.Error("persist idempotent response", "slot", slot, "error", err)
		s.cache.Del(ctx, slot)
	}
}

func (s *idempotencyStore) release(slot string) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyOpTimeout)
	defer cancel()
	if err := s.cache.Del(ctx, slot).Err(); err != nil {
		s.logger.Warn("release idempotency key", "slot", slot, "error", err)
	}
}
