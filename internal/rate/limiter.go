package rate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds login throttle tuning parameters.
type Config struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	Prefix                string
}

// Key names the subject of one login attempt.
type Key struct {
	Identifier string
	IP         string
}

// Limiter counts failed logins per identifier and, optionally, per client IP. Each counter
// is a fixed window that starts at its first failure.
type Limiter struct {
	rdb redis.UniversalClient
	cfg Config
}

// New returns a Limiter backed by rdb.
func New(rdb redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "gs"
	}
	return &Limiter{rdb: rdb, cfg: cfg}
}

// Check returns ErrLimited when any counter for k has reached the budget. All counters are
// read in one MGET.
func (l *Limiter) Check(ctx context.Context, k Key) error {
	vals, err := l.rdb.MGet(ctx, l.keys(k)...).Result()
	if err != nil {
		return &StoreError{Op: "mget", Err: err}
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if n := parseCount(s); n >= int64(l.cfg.MaxLoginAttempts) {
			return ErrLimited
		}
	}
	return nil
}

// Fail records one failed attempt for k. It returns ErrLimited when any counter went past
// the budget, which only happens to attempts that raced past Check.
func (l *Limiter) Fail(ctx context.Context, k Key) error {
	keys := l.keys(k)
	incrs := make([]*redis.IntCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range keys {
			incrs[i] = p.Incr(ctx, key)
			ttls[i] = p.PTTL(ctx, key)
		}
		return nil
	})
	if err != nil {
		return &StoreError{Op: "incr", Err: err}
	}

	limited := false
	for i, key := range keys {
		// A counter without a TTL was just created by this INCR.
		if ttls[i].Val() < 0 {
			if err := l.rdb.PExpire(ctx, key, l.cfg.LoginCooldownDuration).Err(); err != nil {
				return &StoreError{Op: "pexpire", Err: err}
			}
		}
		if incrs[i].Val() > int64(l.cfg.MaxLoginAttempts) {
			limited = true
		}
	}
	if limited {
		return ErrLimited
	}
	return nil
}

// Reset clears the identifier counter after a successful login. The IP counter keeps
// running until its window closes.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if err := l.rdb.Del(ctx, l.identifierKey(identifier)).Err(); err != nil {
		return &StoreError{Op: "del", Err: err}
	}
	return nil
}

// RetryAfter returns the longest remaining window among the counters of k.
func (l *Limiter) RetryAfter(ctx context.Context, k Key) (time.Duration, error) {
	keys := l.keys(k)
	cmds := make([]*redis.DurationCmd, len(keys))
	_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = p.PTTL(ctx, key)
		}
		return nil
	})
	if err != nil {
		return 0, &StoreError{Op: "pttl", Err: err}
	}
	var longest time.Duration
	for _, c := range cmds {
		longest = max(longest, c.Val())
	}
	return longest, nil
}

// Attempts returns the failure count recorded for identifier. Unknown identifiers report
// zero.
func (l *Limiter) Attempts(ctx context.Context, identifier string) (int, error) {
	s, err := l.rdb.Get(ctx, l.identifierKey(identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, &StoreError{Op: "get", Err: err}
	}
	return int(parseCount(s)), nil
}

func (l *Limiter) keys(k Key) []string {
	keys := []string{l.identifierKey(k.Identifier)}
	if l.cfg.EnableIPThrottle && k.IP != "" {
		keys = append(keys, l.cfg.Prefix+":ali:"+k.IP)
	}
	return keys
}

func (l *Limiter) identifierKey(identifier string) string {
	return l.cfg.Prefix + ":al:" + strings.ToLower(strings.TrimSpace(identifier))
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
