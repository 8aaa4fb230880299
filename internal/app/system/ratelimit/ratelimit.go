// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
)

// Limiter counts attempts per key in fixed windows.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int           // max attempts per window
	period  time.Duration // window length
	now     func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit attempts per period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if n := l.limit - w.count; n > 0 {
		return n
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Sweep drops expired windows and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *Limiter) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// LoginThrottle limits login attempts per client IP and per login identifier
// (email or roll number), so neither a single client nor a spread of clients
// can guess one account's password quickly.
type LoginThrottle struct {
	ip      *Limiter
	account *Limiter
}

// NewLoginThrottle allows 10 attempts per IP per minute and 5 per login
// identifier per 5 minutes.
func NewLoginThrottle() *LoginThrottle {
	return NewLoginThrottleWithConfig(10, time.Minute, 5, 5*time.Minute)
}

func NewLoginThrottleWithConfig(ipLimit int, ipPeriod time.Duration, accountLimit int, accountPeriod time.Duration) *LoginThrottle {
	return &LoginThrottle{
		ip:      New(ipLimit, ipPeriod),
		account: New(accountLimit, accountPeriod),
	}
}

func accountKey(loginID string) string {
	return strings.ToLower(strings.TrimSpace(loginID))
}

// Check records a login attempt and returns apierr.ErrTooManyAttempts when
// either limit is exhausted.
func (t *LoginThrottle) Check(r *http.Request, loginID string) error {
	if !t.ip.Allow(ClientIP(r)) {
		return apierr.ErrTooManyAttempts
	}
	if key := accountKey(loginID); key != "" && !t.account.Allow(key) {
		return apierr.ErrTooManyAttempts.WithMessage("Too many login attempts for this account. Please wait a few minutes.")
	}
	return nil
}

// Succeeded clears the per-account window after a successful login.
func (t *LoginThrottle) Succeeded(loginID string) {
	if key := accountKey(loginID); key != "" {
		t.account.Reset(key)
	}
}

// Run sweeps both limiters once a minute until ctx is done.
func (t *LoginThrottle) Run(ctx context.Context) {
	go t.ip.RunSweeper(ctx, time.Minute)
	t.account.RunSweeper(ctx, time.Minute)
}
