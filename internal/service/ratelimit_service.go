package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/domain"
	"github.com/spec-kit/blog-security-service/internal/observability"
	"github.com/spec-kit/blog-security-service/internal/store"
)

const (
	rateLimitIPKeyPrefix   = "ratelimit:ip:"
	rateLimitUserKeyPrefix = "ratelimit:user:"
)

// classPolicy pairs the two ceilings applied within one window.
type classPolicy struct {
	ipLimit   int
	userLimit int
}

// RateLimitService is the admission-control gate. Requests are counted per
// IP and per authenticated user within a fixed window; exceeding either
// ceiling denies the request. A store outage fails open: rate limiting is
// best-effort protection, not a correctness gate.
type RateLimitService struct {
	store    store.Store
	logger   *zap.Logger
	metrics  *observability.Metrics
	window   int
	policies map[domain.EndpointClass]classPolicy
}

// NewRateLimitService builds the gate from config ceilings.
func NewRateLimitService(cfg config.RateLimitConfig, st store.Store, metrics *observability.Metrics, logger *zap.Logger) *RateLimitService {
	return &RateLimitService{
		store:   st,
		logger:  logger,
		metrics: metrics,
		window:  cfg.WindowSeconds,
		policies: map[domain.EndpointClass]classPolicy{
			domain.EndpointClassAuth:     {ipLimit: cfg.AuthIPLimit, userLimit: cfg.AuthUserLimit},
			domain.EndpointClassRead:     {ipLimit: cfg.ReadIPLimit, userLimit: cfg.ReadUserLimit},
			domain.EndpointClassMutation: {ipLimit: cfg.WriteIPLimit, userLimit: cfg.WriteUserLimit},
		},
	}
}

// staticAssetSuffixes and readOnlyPathPrefixes are excluded from limiting
// entirely.
var staticAssetSuffixes = []string{".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff", ".woff2", ".map"}

var readOnlyPathPrefixes = []string{"/health", "/static/", "/public/", "/favicon"}

// ClassifyEndpoint maps a request to its rate-limit class. EXEMPT requests
// bypass the gate.
func ClassifyEndpoint(method, path string) domain.EndpointClass {
	lower := strings.ToLower(path)
	for _, suffix := range staticAssetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return domain.EndpointClassExempt
		}
	}
	for _, prefix := range readOnlyPathPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return domain.EndpointClassExempt
		}
	}
	if strings.HasPrefix(lower, "/auth/") || strings.HasPrefix(lower, "/confirmation") {
		return domain.EndpointClassAuth
	}
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return domain.EndpointClassRead
	}
	return domain.EndpointClassMutation
}

// IsAllowed counts the request against both the IP and (when authenticated)
// the user ceiling for the endpoint class. Denial requires only one ceiling
// to be exceeded: an IP behind NAT hosts many users, a user rotates IPs,
// and the two signals together are stronger than either alone.
func (s *RateLimitService) IsAllowed(ctx context.Context, clientIP, endpointKey, username string) bool {
	class := ClassifyEndpoint(methodOf(endpointKey), pathOf(endpointKey))
	if class == domain.EndpointClassExempt {
		return true
	}
	policy := s.policies[class]
	window := s.windowDuration()

	ipCount, err := s.store.Increment(ctx, s.ipKey(class, clientIP), window)
	if err != nil {
		// Fail open: blocking all traffic on a cache outage is worse than
		// temporarily disabling rate limiting.
		s.logger.Error("rate limit store unavailable, allowing request",
			zap.String("ip", clientIP), zap.Error(err))
		return true
	}
	if ipCount > int64(policy.ipLimit) {
		s.metrics.RecordSecurityEvent("rate_limit_denied_ip")
		return false
	}

	if username != "" {
		userCount, err := s.store.Increment(ctx, s.userKey(class, username), window)
		if err != nil {
			s.logger.Error("rate limit store unavailable, allowing request",
				zap.String("username", username), zap.Error(err))
			return true
		}
		if userCount > int64(policy.userLimit) {
			s.metrics.RecordSecurityEvent("rate_limit_denied_user")
			return false
		}
	}
	return true
}

// GetRateLimitStatus is the read-only projection of the current window,
// used to populate response headers even on allowed requests.
func (s *RateLimitService) GetRateLimitStatus(ctx context.Context, clientIP, endpointKey, username string) domain.RateLimitStatus {
	class := ClassifyEndpoint(methodOf(endpointKey), pathOf(endpointKey))
	if class == domain.EndpointClassExempt {
		return domain.RateLimitStatus{WindowSeconds: s.window}
	}
	policy := s.policies[class]

	status := domain.RateLimitStatus{
		MaxRequests:   policy.ipLimit,
		WindowSeconds: s.window,
	}
	status.IPCount = s.readCount(ctx, s.ipKey(class, clientIP))
	remaining := int64(policy.ipLimit) - status.IPCount

	if username != "" {
		status.MaxRequests = policy.userLimit
		status.UserCount = s.readCount(ctx, s.userKey(class, username))
		if userRemaining := int64(policy.userLimit) - status.UserCount; userRemaining < remaining {
			remaining = userRemaining
		}
	}
	if remaining < 0 {
		remaining = 0
	}
	status.RemainingRequests = int(remaining)
	return status
}

func (s *RateLimitService) readCount(ctx context.Context, key string) int64 {
	val, err := s.store.Get(ctx, key)
	if err != nil || val == "" {
		return 0
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return count
}

func (s *RateLimitService) ipKey(class domain.EndpointClass, ip string) string {
	return rateLimitIPKeyPrefix + string(class) + ":" + ip
}

func (s *RateLimitService) userKey(class domain.EndpointClass, username string) string {
	return rateLimitUserKeyPrefix + string(class) + ":" + username
}

func (s *RateLimitService) windowDuration() time.Duration {
	return time.Duration(s.window) * time.Second
}

// EndpointKey encodes method and path into the gate's endpoint key.
func EndpointKey(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}

func methodOf(endpointKey string) string {
	if i := strings.IndexByte(endpointKey, ' '); i > 0 {
		return endpointKey[:i]
	}
	return "GET"
}

func pathOf(endpointKey string) string {
	if i := strings.IndexByte(endpointKey, ' '); i >= 0 {
		return endpointKey[i+1:]
	}
	return endpointKey
}
