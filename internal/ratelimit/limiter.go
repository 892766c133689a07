// Package ratelimit throttles quote requests per client.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	MaxPerWindow int           // Requests allowed per client per window; zero disables limiting
	Window       time.Duration // Fixed window length (default: 1m)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxPerWindow: 120,
		Window:       time.Minute,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks one client's requests in the current window.
type entry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

// Limiter is a fixed-window limiter keyed by client.
type Limiter struct {
	config  *Config
	clock   Clock
	mu      sync.Mutex
	clients map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a limiter. A nil config uses DefaultConfig.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		clients:       make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Check reports whether a request from client would be allowed without
// recording it.
func (l *Limiter) Check(client string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	key := hashKey(client)

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.check(key, now)
}

// Record counts a request from client.
func (l *Limiter) Record(client string) {
	now := l.clock.Now()
	key := hashKey(client)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(key, now)
}

// Allow checks and records in one step, so concurrent requests cannot
// slip past the limit between the two.
func (l *Limiter) Allow(client string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	key := hashKey(client)

	l.mu.Lock()
	defer l.mu.Unlock()

	result := l.check(key, now)
	if result.Allowed {
		l.record(key, now)
	}
	return result
}

func (l *Limiter) check(key string, now time.Time) LimitResult {
	if l.config.MaxPerWindow <= 0 {
		return LimitResult{Allowed: true}
	}
	e := l.clients[key]
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		return LimitResult{Allowed: true}
	}
	if e.count >= l.config.MaxPerWindow {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.Window - now.Sub(e.firstAt),
			Reason:     "window_limit",
		}
	}
	return LimitResult{Allowed: true}
}

func (l *Limiter) record(key string, now time.Time) {
	e := l.clients[key]
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		l.clients[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func hashKey(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.clients {
		if now.Sub(e.lastAt) > l.config.Window {
			delete(l.clients, k)
		}
	}
}

// tracked returns the number of clients currently held in memory.
func (l *Limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// LogRateLimitExceeded logs a rejected request.
func LogRateLimitExceeded(ctx context.Context, ip, path string, result LimitResult) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("ip", ip).
		Str("path", path).
		Str("reason", result.Reason).
		Dur("retry_after", result.RetryAfter).
		Msg("Quote rate limit exceeded")
}
