package middleware

import (
	"sync"
	"time"

	"github.com/bountydesk/bountydesk/pkg/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	loginSweepInterval = 3 * time.Minute
	loginStaleAfter    = 10 * time.Minute
)

// LoginLimiter throttles the auth endpoints per client IP, so a scripted
// password or OAuth-code guess burns its own budget without touching other
// clients.
type LoginLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	rps     rate.Limit
	burst   int
}

type clientBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter creates a per-IP login throttle. rps and burst come from
// the server config (login_rps / login_burst).
func NewLoginLimiter(rps float64, burst int) *LoginLimiter {
	l := &LoginLimiter{
		clients: make(map[string]*clientBucket),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go l.sweep()
	return l
}

// allow reserves one attempt for ip, creating its bucket on first sight.
func (l *LoginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[ip]
	if !ok {
		b = &clientBucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = b
	}
	b.lastSeen = time.Now()
	return b.lim.Allow()
}

// sweep drops buckets for IPs that have not attempted a login recently.
func (l *LoginLimiter) sweep() {
	for range time.Tick(loginSweepInterval) {
		l.mu.Lock()
		for ip, b := range l.clients {
			if time.Since(b.lastSeen) > loginStaleAfter {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects over-budget login attempts with 429.
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			response.TooManyRequests(c, "too many login attempts, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
