package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements per-IP rate limiting with automatic cleanup of stale
// entries.
type Limiter struct {
	mu              sync.Mutex
	clients         map[string]*clientEntry
	rate            rate.Limit
	burst           int
	cleanupInterval time.Duration
	staleAfter      time.Duration
	done            chan struct{}
	trustedProxies  map[string]bool
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a new per-IP rate limiter allowing requestsPerInterval
// requests per interval from each client. cleanupInterval controls how
// often stale entries are removed; staleAfter is how long a client must
// be inactive before its entry is dropped.
func New(requestsPerInterval int, interval, cleanupInterval, staleAfter time.Duration) (*Limiter, error) {
	if requestsPerInterval <= 0 {
		return nil, fmt.Errorf("ratelimit: requests_per_interval must be positive")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("ratelimit: interval must be positive")
	}
	if cleanupInterval <= 0 {
		return nil, fmt.Errorf("ratelimit: cleanup_interval must be positive")
	}
	if staleAfter <= 0 {
		return nil, fmt.Errorf("ratelimit: stale_after must be positive")
	}

	l := &Limiter{
		clients:         make(map[string]*clientEntry),
		rate:            rate.Limit(float64(requestsPerInterval) / interval.Seconds()),
		burst:           requestsPerInterval,
		cleanupInterval: cleanupInterval,
		staleAfter:      staleAfter,
		done:            make(chan struct{}),
		trustedProxies:  make(map[string]bool),
	}

	go l.cleanupLoop()
	return l, nil
}

// SetTrustedProxies sets the list of trusted proxy IPs for
// X-Forwarded-For parsing.
func (l *Limiter) SetTrustedProxies(proxies []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trustedProxies = make(map[string]bool, len(proxies))
	for _, p := range proxies {
		l.trustedProxies[p] = true
	}
}

func (l *Limiter) getClient(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.clients[ip]
	if !exists {
		limiter := rate.NewLimiter(l.rate, l.burst)
		l.clients[ip] = &clientEntry{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Allow reports whether a request from the given IP is allowed.
func (l *Limiter) Allow(ip string) bool {
	return l.getClient(ip).Allow()
}

// RetryAfter returns the number of seconds until the next request from
// this IP would be allowed.
func (l *Limiter) RetryAfter(ip string) int {
	limiter := l.getClient(ip)
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	return int(math.Ceil(delay.Seconds()))
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for ip, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.staleAfter {
			delete(l.clients, ip)
		}
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	close(l.done)
}

// ExtractClientIP extracts the client IP address from an HTTP request.
// X-Forwarded-For and X-Real-IP are honored only when the connection
// comes from a trusted proxy; otherwise RemoteAddr wins.
func (l *Limiter) ExtractClientIP(r *http.Request) string {
	remoteIP, _, _ := net.SplitHostPort(r.RemoteAddr)

	l.mu.Lock()
	trusted := l.trustedProxies[remoteIP]
	l.mu.Unlock()

	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Use the leftmost (client) IP
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	if remoteIP == "" {
		return r.RemoteAddr
	}
	return remoteIP
}
