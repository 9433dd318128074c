package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const localIdleTTL = 10 * time.Minute

type localClient struct {
	limiter *rate.Limiter
	seen    time.Time
}

// LocalLimiter is an in-process token bucket per key, used when Redis is
// not available.
type LocalLimiter struct {
	mu      sync.Mutex
	clients map[string]*localClient
	r       rate.Limit
	burst   int
	now     func() time.Time
}

func NewLocalLimiter(r rate.Limit, burst int) *LocalLimiter {
	return &LocalLimiter{
		clients: make(map[string]*localClient),
		r:       r,
		burst:   burst,
		now:     time.Now,
	}
}

func (l *LocalLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[key]
	if !ok {
		cl = &localClient{limiter: rate.NewLimiter(l.r, l.burst)}
		l.clients[key] = cl
		if len(l.clients)%256 == 0 {
			l.sweep(now)
		}
	}
	cl.seen = now
	return cl.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than localIdleTTL.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, cl := range l.clients {
		if now.Sub(cl.seen) > localIdleTTL {
			delete(l.clients, k)
		}
	}
}

// LocalRateLimit blocks a client IP once its bucket is empty.
func LocalRateLimit(l *LocalLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.allow(c.ClientIP()) {
			RLRequests.WithLabelValues("local").Inc()
			c.Next()
			return
		}
		RLBlocked.WithLabelValues("local").Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": "rate_limited"})
	}
}
