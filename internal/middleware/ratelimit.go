package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Через сколько простоя лимитер пользователя забывается
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов одного пользователя
type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[uuid.UUID]*visitor
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter создает лимитер на perSecond запросов с запасом burst
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[uuid.UUID]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow сообщает, можно ли пропустить ещё один запрос пользователя
func (l *RateLimiter) Allow(userID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > visitorTTL {
		for id, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, id)
			}
		}
		l.lastCleanup = now
	}

	v, exists := l.visitors[userID]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[userID] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// Handler - middleware; ставится после AuthMiddleware
func (l *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}
		if !l.Allow(userID) {
			return fiber.NewError(fiber.StatusTooManyRequests, "Слишком много сообщений, попробуйте позже")
		}
		return c.Next()
	}
}
