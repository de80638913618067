package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiter implements token bucket rate limiting per IP
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a rate limiter allowing perSecond requests per IP
// with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 100
	}
	if burst <= 0 {
		burst = 200
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// GetLimiter gets or creates a limiter for an IP address
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[ip]; exists {
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// RateLimitMiddleware enforces rate limiting per IP
func RateLimitMiddleware(limiter *RateLimiter, sec *SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			sec.LogRateLimited(ip, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 1,
			})
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware(tls bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		if tls {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// OriginAllowed reports whether a browser origin matches the allow-list.
// Entries may be full origins, bare hosts, or "*". An empty list admits
// every origin.
func OriginAllowed(allowedOrigins []string, origin string) bool {
	normalized := strings.TrimRight(origin, "/")
	if normalized == "" {
		return false
	}
	if len(allowedOrigins) == 0 {
		return true
	}

	for _, o := range allowedOrigins {
		trimmed := strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case trimmed == "":
			continue
		case trimmed == "*", strings.EqualFold(normalized, trimmed):
			return true
		case !strings.Contains(trimmed, "://"):
			if parsed, err := url.Parse(normalized); err == nil && strings.EqualFold(parsed.Host, trimmed) {
				return true
			}
		}
	}
	return false
}

// CORSMiddleware configures CORS with security restrictions
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if OriginAllowed(allowedOrigins, origin) {
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Origin", strings.TrimRight(origin, "/"))
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// IPWhitelist restricts access to listed addresses and CIDR ranges
type IPWhitelist struct {
	ips  map[string]bool
	nets []*net.IPNet
}

// NewIPWhitelist creates a new IP whitelist. Entries that parse as CIDR
// ranges match every address inside them.
func NewIPWhitelist(entries []string) *IPWhitelist {
	wl := &IPWhitelist{ips: make(map[string]bool)}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ipNet, err := net.ParseCIDR(entry); err == nil {
			wl.nets = append(wl.nets, ipNet)
			continue
		}
		wl.ips[entry] = true
	}
	return wl
}

// IsAllowed checks if an IP is whitelisted
func (wl *IPWhitelist) IsAllowed(ip string) bool {
	// Loopback is always allowed
	if ip == "localhost" {
		return true
	}

	ipOnly, _, err := net.SplitHostPort(ip)
	if err != nil {
		ipOnly = ip
	}
	parsed := net.ParseIP(ipOnly)
	if parsed != nil && parsed.IsLoopback() {
		return true
	}

	// If no whitelist configured, allow all
	if len(wl.ips) == 0 && len(wl.nets) == 0 {
		return true
	}

	if wl.ips[ipOnly] {
		return true
	}
	if parsed == nil {
		return false
	}
	for _, n := range wl.nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// IPWhitelistMiddleware enforces IP whitelisting
func IPWhitelistMiddleware(whitelist *IPWhitelist, sec *SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !whitelist.IsAllowed(ip) {
			sec.LogDenied(ip)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Debug()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// SecurityLogger logs security events
type SecurityLogger struct {
	log zerolog.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(log zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{log: log}
}

// LogFailedAuth logs failed authentication attempts
func (sl *SecurityLogger) LogFailedAuth(ip string, reason string) {
	sl.log.Warn().Str("ip", ip).Str("reason", reason).Msg("failed authentication")
}

// LogTokenGenerated logs token issuance
func (sl *SecurityLogger) LogTokenGenerated(source string, clientName string) {
	sl.log.Info().Str("source", source).Str("client_name", clientName).Msg("token generated")
}

// LogWebSocketConnected logs successful WebSocket connections
func (sl *SecurityLogger) LogWebSocketConnected(ip string, clientName string) {
	sl.log.Info().Str("ip", ip).Str("client_name", clientName).Msg("websocket connected")
}

// LogWebSocketDisconnected logs WebSocket disconnections
func (sl *SecurityLogger) LogWebSocketDisconnected(ip string, clientID string) {
	sl.log.Info().Str("ip", ip).Str("client", clientID).Msg("websocket disconnected")
}

// LogRateLimited logs a request rejected by the rate limiter
func (sl *SecurityLogger) LogRateLimited(ip string, path string) {
	sl.log.Warn().Str("ip", ip).Str("path", path).Msg("rate limit exceeded")
}

// LogDenied logs a request from an address outside the whitelist
func (sl *SecurityLogger) LogDenied(ip string) {
	sl.log.Warn().Str("ip", ip).Msg("access denied for non-whitelisted IP")
}

// InputValidator validates and sanitizes user input
type InputValidator struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidateToken checks if token format is valid
func (iv *InputValidator) ValidateToken(token string) bool {
	// JWT tokens are in format: header.payload.signature
	if len(token) < 20 || len(token) > 4096 {
		return false
	}
	return strings.Count(token, ".") == 2
}

// ValidateClientName checks if a token's client name is safe
func (iv *InputValidator) ValidateClientName(name string) bool {
	if len(name) < 1 || len(name) > 255 {
		return false
	}

	// Allow alphanumeric, hyphens, underscores, dots
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}
