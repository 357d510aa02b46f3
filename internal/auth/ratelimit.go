package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedeemMaxFailures = 10
	defaultRedeemFailureTTL  = 15 * time.Minute
	defaultNotifyCooldown    = 60 * time.Second
)

type Limits struct {
	RedeemMaxFailures int64
	RedeemFailureTTL  time.Duration
	NotifyCooldown    time.Duration
}

// RateLimiter keeps failure counters and cooldowns in redis.
type RateLimiter struct {
	Redis  *redis.Client
	Limits Limits
}

func NewRateLimiter(client *redis.Client, limits Limits) *RateLimiter {
	if limits.RedeemMaxFailures <= 0 {
		limits.RedeemMaxFailures = defaultRedeemMaxFailures
	}
	if limits.RedeemFailureTTL <= 0 {
		limits.RedeemFailureTTL = defaultRedeemFailureTTL
	}
	if limits.NotifyCooldown <= 0 {
		limits.NotifyCooldown = defaultNotifyCooldown
	}
	return &RateLimiter{Redis: client, Limits: limits}
}

func (r *RateLimiter) redeemFailureKey(ip string) string {
	return "redeem_failures:" + ip
}

func (r *RateLimiter) notifyCooldownKey(userID int64) string {
	return "notify_cooldown:" + strconv.FormatInt(userID, 10)
}

// RedeemBlocked reports whether ip has used up its failed redemptions.
func (r *RateLimiter) RedeemBlocked(ctx context.Context, ip string) (bool, time.Duration, error) {
	if ip == "" {
		return false, 0, nil
	}
	key := r.redeemFailureKey(ip)
	attempts, err := r.Redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if attempts < r.Limits.RedeemMaxFailures {
		return false, 0, nil
	}
	return true, r.CooldownTTL(ctx, key), nil
}

// RegisterRedeemFailure counts a failed redemption and reports whether ip is now blocked.
func (r *RateLimiter) RegisterRedeemFailure(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	key := r.redeemFailureKey(ip)
	attempts, err := r.Redis.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if attempts == 1 {
		r.Redis.Expire(ctx, key, r.Limits.RedeemFailureTTL)
	}
	return attempts >= r.Limits.RedeemMaxFailures, nil
}

func (r *RateLimiter) ResetRedeem(ctx context.Context, ip string) {
	if ip == "" {
		return
	}
	r.Redis.Del(ctx, r.redeemFailureKey(ip))
}

// AcquireNotify starts the per-user mail cooldown. When a cooldown is already
// running it returns false and the time left.
func (r *RateLimiter) AcquireNotify(ctx context.Context, userID int64) (bool, time.Duration, error) {
	key := r.notifyCooldownKey(userID)
	ok, err := r.Redis.SetNX(ctx, key, "1", r.Limits.NotifyCooldown).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	return false, r.CooldownTTL(ctx, key), nil
}

// ReleaseNotify drops the cooldown, used when sending failed.
func (r *RateLimiter) ReleaseNotify(ctx context.Context, userID int64) {
	r.Redis.Del(ctx, r.notifyCooldownKey(userID))
}

func (r *RateLimiter) CooldownTTL(ctx context.Context, key string) time.Duration {
	ttl, err := r.Redis.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}
