package httpserver

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/shikhar190399/q-and-a-websockets/internal/platform/config"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleExpiry    = 10 * time.Minute
)

type limitReason string

const (
	limitReasonPerIP limitReason = "per_ip_limit"
	limitReasonRate  limitReason = "rate_limit"
)

// connectionLimiter bounds websocket connections per client IP: how many
// may be open at once and how fast new ones may arrive. The instance-wide
// cap is enforced by the session registry.
type connectionLimiter struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	maxPerIP int
	rate     rate.Limit
	burst    int
	clients  map[string]*clientEntry
	sweepAt  time.Time
}

type clientEntry struct {
	open     int
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newConnectionLimiter(maxPerIP int, connectionsPerSecond float64, burst int, clock clockwork.Clock) *connectionLimiter {
	return &connectionLimiter{
		clock:    clock,
		maxPerIP: maxPerIP,
		rate:     rate.Limit(connectionsPerSecond),
		burst:    burst,
		clients:  make(map[string]*clientEntry),
		sweepAt:  clock.Now().Add(limiterSweepInterval),
	}
}

func limiterFromConfig(cfg *config.Config, clock clockwork.Clock) *connectionLimiter {
	return newConnectionLimiter(cfg.MaxWebSocketConnectionsPerIP, cfg.WebSocketConnectRate, cfg.WebSocketConnectBurst, clock)
}

// acquire takes a slot for ip. The rate check runs first so a client that
// hammers the endpoint is refused even while under its concurrent cap.
func (l *connectionLimiter) acquire(ip string) (bool, limitReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.After(l.sweepAt) {
		l.sweep(now)
		l.sweepAt = now.Add(limiterSweepInterval)
	}

	entry, ok := l.clients[ip]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = entry
	}
	entry.lastSeen = now

	if !entry.limiter.AllowN(now, 1) {
		return false, limitReasonRate
	}
	if entry.open >= l.maxPerIP {
		return false, limitReasonPerIP
	}

	entry.open++
	return true, ""
}

func (l *connectionLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.clients[ip]; ok && entry.open > 0 {
		entry.open--
		entry.lastSeen = l.clock.Now()
	}
}

func (l *connectionLimiter) open(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.clients[ip]; ok {
		return entry.open
	}
	return 0
}

func (l *connectionLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// sweep drops idle clients. Must be called with mu held.
func (l *connectionLimiter) sweep(now time.Time) {
	for ip, entry := range l.clients {
		if entry.open == 0 && now.Sub(entry.lastSeen) > limiterIdleExpiry {
			delete(l.clients, ip)
		}
	}
}
