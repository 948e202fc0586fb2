package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// defaultMaxTrackedClients bounds the limiter map so it cannot grow with
// every distinct client IP seen over the life of the process.
const defaultMaxTrackedClients = 4096

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters hands out one token bucket per client IP. When the cap is
// reached, the least recently seen client is evicted to make room.
type clientLimiters struct {
	mu         sync.Mutex
	perMinute  int
	maxClients int
	clients    map[string]*clientLimiter
}

func newClientLimiters(perMinute, maxClients int) *clientLimiters {
	return &clientLimiters{
		perMinute:  perMinute,
		maxClients: maxClients,
		clients:    make(map[string]*clientLimiter),
	}
}

func (l *clientLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= l.maxClients {
			l.evictOldest()
		}
		c = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute),
		}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// evictOldest drops the entry that has been idle the longest. Callers hold mu.
func (l *clientLimiters) evictOldest() {
	var oldestIP string
	var oldest time.Time
	for ip, c := range l.clients {
		if oldestIP == "" || c.lastSeen.Before(oldest) {
			oldestIP = ip
			oldest = c.lastSeen
		}
	}
	if oldestIP != "" {
		delete(l.clients, oldestIP)
	}
}

// RateLimitPerIP throttles a route per client IP. Used on signup to keep
// confirmation-code mail from being spammed at someone else's inbox.
func RateLimitPerIP(perMinute int) gin.HandlerFunc {
	limiters := newClientLimiters(perMinute, defaultMaxTrackedClients)

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
