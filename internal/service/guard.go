package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxAuthAttempts  = 5
	authWindow       = 15 * time.Minute
	maxLoginFailures = 5
	failureWindow    = 15 * time.Minute
	lockoutDuration  = 30 * time.Minute
	sessionTTL       = 7 * 24 * time.Hour
)

// Guard owns the ephemeral auth state in Redis: token blacklist, per-IP
// rate limiting, account lockout counters and session pointers. Counters
// are read-then-write on purpose; concurrent requests from the same key
// can undercount by a few, which is acceptable here.
type Guard struct {
	client *redis.Client
}

func NewGuard(client *redis.Client) *Guard {
	return &Guard{client: client}
}

func blacklistKey(token string) string { return fmt.Sprintf("blacklist:%s", token) }
func rateLimitKey(ip string) string    { return fmt.Sprintf("auth_rate_limit:%s", ip) }
func failuresKey(email string) string  { return fmt.Sprintf("failed_attempts:%s", email) }
func lockoutKey(email string) string   { return fmt.Sprintf("lockout:%s", email) }
func sessionKey(userID string) string  { return fmt.Sprintf("session:%s", userID) }

// BlacklistToken marks a token invalid for its remaining lifetime.
func (g *Guard) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := g.client.Set(ctx, blacklistKey(token), "true", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (g *Guard) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	_, err := g.client.Get(ctx, blacklistKey(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return true, nil
}

// AllowAuthAttempt counts one auth request from the given IP and reports
// whether it is still inside the window budget.
func (g *Guard) AllowAuthAttempt(ctx context.Context, ip string) (bool, error) {
	key := rateLimitKey(ip)

	val, err := g.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("get rate limit: %w", err)
	}

	attempts := 0
	if err == nil {
		attempts, _ = strconv.Atoi(val)
	}
	if attempts >= maxAuthAttempts {
		return false, nil
	}

	if err := g.client.Set(ctx, key, strconv.Itoa(attempts+1), authWindow).Err(); err != nil {
		return false, fmt.Errorf("set rate limit: %w", err)
	}
	return true, nil
}

func (g *Guard) IsLocked(ctx context.Context, email string) (bool, error) {
	_, err := g.client.Get(ctx, lockoutKey(email)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check lockout: %w", err)
	}
	return true, nil
}

// RegisterFailure records a failed login; the fifth failure inside the
// window locks the account and resets the counter.
func (g *Guard) RegisterFailure(ctx context.Context, email string) error {
	key := failuresKey(email)

	val, err := g.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("get failures: %w", err)
	}

	failures := 1
	if err == nil {
		prev, _ := strconv.Atoi(val)
		failures = prev + 1
	}

	if failures >= maxLoginFailures {
		if err := g.client.Set(ctx, lockoutKey(email), "true", lockoutDuration).Err(); err != nil {
			return fmt.Errorf("set lockout: %w", err)
		}
		if err := g.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("reset failures: %w", err)
		}
		return nil
	}

	if err := g.client.Set(ctx, key, strconv.Itoa(failures), failureWindow).Err(); err != nil {
		return fmt.Errorf("set failures: %w", err)
	}
	return nil
}

func (g *Guard) ClearFailures(ctx context.Context, email string) error {
	if err := g.client.Del(ctx, failuresKey(email)).Err(); err != nil {
		return fmt.Errorf("clear failures: %w", err)
	}
	return nil
}

type session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

func (g *Guard) CreateSession(ctx context.Context, userID, token string) error {
	data, err := json.Marshal(session{Token: token, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := g.client.Set(ctx, sessionKey(userID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (g *Guard) DeleteSession(ctx context.Context, userID string) error {
	if err := g.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
