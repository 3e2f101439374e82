package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/audit"
	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/domain"
	"github.com/spec-kit/blog-security-service/internal/store"
)

// Session state lives in three views that are updated together but not
// transactionally: the record, the userId->sessionId pointer and the
// active-id set. Drift between them is tolerated and repaired by the
// orphaned-data sweep.
const (
	sessionInfoKeyPrefix     = "session:info:"
	sessionUserKeyPrefix     = "session:user:"
	sessionActivityKeyPrefix = "session:activity:"
	activeSessionsSetKey     = "sessions:active"
	userScopedKeyPattern     = "user:%s:*"
)

// SessionService guarantees a session's footprint across all ephemeral
// indices is removed exactly once, under four distinct triggers.
type SessionService struct {
	store      store.Store
	auditor    audit.Recorder
	logger     *zap.Logger
	sessionTTL time.Duration
	inactivity time.Duration
	now        func() time.Time
}

// NewSessionService builds the service.
func NewSessionService(cfg config.SecurityConfig, st store.Store, auditor audit.Recorder, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:      st,
		auditor:    auditor,
		logger:     logger,
		sessionTTL: cfg.SessionTTL(),
		inactivity: cfg.SessionInactivity(),
		now:        time.Now,
	}
}

// RegisterSession writes all three session views at login time.
func (s *SessionService) RegisterSession(ctx context.Context, info *domain.SessionInfo) error {
	now := s.now()
	if info.LoginTime.IsZero() {
		info.LoginTime = now
	}
	if info.LastActivityTime.IsZero() {
		info.LastActivityTime = now
	}
	if info.ExpirationTime.IsZero() {
		info.ExpirationTime = now.Add(s.sessionTTL)
	}
	info.Active = true
	info.DeviceType, info.BrowserType, info.OSType = ParseUserAgent(info.UserAgent)

	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := info.ExpirationTime.Sub(now)
	if err := s.store.SetWithTTL(ctx, sessionInfoKeyPrefix+info.SessionID, string(payload), ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if err := s.store.SetWithTTL(ctx, sessionUserKeyPrefix+info.UserID, info.SessionID, ttl); err != nil {
		return fmt.Errorf("store session user index: %w", err)
	}
	if err := s.store.SetAdd(ctx, activeSessionsSetKey, info.SessionID); err != nil {
		return fmt.Errorf("store active session id: %w", err)
	}
	return nil
}

// TouchActivity refreshes the last-activity timestamp and bumps the
// per-session activity counter.
func (s *SessionService) TouchActivity(ctx context.Context, sessionID string) error {
	info, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if info == nil {
		return nil
	}

	now := s.now()
	info.LastActivityTime = now
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := info.ExpirationTime.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if err := s.store.SetWithTTL(ctx, sessionInfoKeyPrefix+sessionID, string(payload), ttl); err != nil {
		return err
	}
	if _, err := s.store.Increment(ctx, sessionActivityKeyPrefix+sessionID, ttl); err != nil {
		return err
	}
	return nil
}

// GetSession loads a session record, or nil when absent.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	return s.loadSession(ctx, sessionID)
}

// PerformUserLogoutCleanup removes every trace of a session on explicit
// logout. Returns false when the cleanup may be incomplete or the session
// was already gone.
func (s *SessionService) PerformUserLogoutCleanup(ctx context.Context, sessionID, userID, username, ipAddress string, reason domain.CleanupReason) bool {
	if reason == "" {
		reason = domain.CleanupReasonLogout
	}
	cleaned, err := s.cleanupSession(ctx, sessionID, userID, username, ipAddress, reason)
	if err != nil {
		s.logger.Error("logout cleanup incomplete",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID),
			zap.Error(err))
		return false
	}
	return cleaned
}

// PerformTimeoutCleanup removes a session found past its expiration or
// inactivity ceiling. A nil record is a no-op reporting false: the caller
// cannot distinguish "already cleaned" from "never existed" and both mean
// nothing to do.
func (s *SessionService) PerformTimeoutCleanup(ctx context.Context, sessionID string, info *domain.SessionInfo) bool {
	if info == nil {
		return false
	}
	cleaned, err := s.cleanupSession(ctx, sessionID, info.UserID, info.Username, info.IPAddress, domain.CleanupReasonTimeout)
	if err != nil {
		s.logger.Error("timeout cleanup incomplete", zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	return cleaned
}

// PerformBatchExpiredSessionCleanup sweeps the active set and cleans every
// expired session, returning the number actually cleaned. One bad session
// never aborts the batch.
func (s *SessionService) PerformBatchExpiredSessionCleanup(ctx context.Context) int {
	ids, err := s.store.SetMembers(ctx, activeSessionsSetKey)
	if err != nil {
		s.logger.Error("batch cleanup: cannot list active sessions", zap.Error(err))
		return 0
	}

	now := s.now()
	cleaned := 0
	for _, id := range ids {
		info, err := s.loadSession(ctx, id)
		if err != nil {
			s.logger.Warn("batch cleanup: load session failed", zap.String("session_id", id), zap.Error(err))
			continue
		}
		if info == nil {
			// Record already gone (TTL eviction); drop the dangling set entry.
			if err := s.store.SetRemove(ctx, activeSessionsSetKey, id); err != nil {
				s.logger.Warn("batch cleanup: drop dangling id failed", zap.String("session_id", id), zap.Error(err))
			}
			continue
		}
		if !info.Expired(now, s.inactivity) {
			continue
		}
		ok, err := s.cleanupSession(ctx, id, info.UserID, info.Username, info.IPAddress, domain.CleanupReasonSweptExpired)
		if err != nil {
			s.logger.Warn("batch cleanup: session cleanup failed", zap.String("session_id", id), zap.Error(err))
			continue
		}
		if ok {
			cleaned++
		}
	}
	return cleaned
}

// PerformUserAllSessionsCleanup removes every session belonging to a user,
// used for account deactivation and forced logout everywhere.
func (s *SessionService) PerformUserAllSessionsCleanup(ctx context.Context, userID string, reason domain.CleanupReason) int {
	if reason == "" {
		reason = domain.CleanupReasonAdminInvalidated
	}
	cleaned := 0
	seen := map[string]bool{}

	if current, err := s.store.Get(ctx, sessionUserKeyPrefix+userID); err != nil {
		s.logger.Warn("all-sessions cleanup: index lookup failed", zap.String("user_id", userID), zap.Error(err))
	} else if current != "" {
		seen[current] = true
		if ok, err := s.cleanupSession(ctx, current, userID, "", "", reason); err == nil && ok {
			cleaned++
		}
	}

	keys, err := s.store.ScanKeys(ctx, sessionInfoKeyPrefix+"*")
	if err != nil {
		s.logger.Warn("all-sessions cleanup: scan failed", zap.String("user_id", userID), zap.Error(err))
		return cleaned
	}
	for _, key := range keys {
		id := key[len(sessionInfoKeyPrefix):]
		if seen[id] {
			continue
		}
		info, err := s.loadSession(ctx, id)
		if err != nil || info == nil || info.UserID != userID {
			continue
		}
		if ok, err := s.cleanupSession(ctx, id, info.UserID, info.Username, info.IPAddress, reason); err == nil && ok {
			cleaned++
		}
	}
	return cleaned
}

// ScheduledExpiredSessionCleanup is the timer-driven expired-session sweep.
func (s *SessionService) ScheduledExpiredSessionCleanup(ctx context.Context) {
	count := s.PerformBatchExpiredSessionCleanup(ctx)
	if count > 0 {
		s.logger.Info("expired session sweep", zap.Int("cleaned", count))
	}
}

// ScheduledOrphanedDataCleanup removes session records whose id is not in
// the active set, repairing drift left by partial failures elsewhere.
func (s *SessionService) ScheduledOrphanedDataCleanup(ctx context.Context) {
	keys, err := s.store.ScanKeys(ctx, sessionInfoKeyPrefix+"*")
	if err != nil {
		s.logger.Error("orphan sweep: scan failed", zap.Error(err))
		return
	}
	members, err := s.store.SetMembers(ctx, activeSessionsSetKey)
	if err != nil {
		s.logger.Error("orphan sweep: cannot list active sessions", zap.Error(err))
		return
	}
	active := make(map[string]bool, len(members))
	for _, id := range members {
		active[id] = true
	}

	removed := 0
	for _, key := range keys {
		id := key[len(sessionInfoKeyPrefix):]
		if active[id] {
			continue
		}
		prev, err := s.store.Delete(ctx, key)
		if err != nil {
			s.logger.Warn("orphan sweep: delete failed", zap.String("session_id", id), zap.Error(err))
			continue
		}
		if _, err := s.store.Delete(ctx, sessionActivityKeyPrefix+id); err != nil {
			s.logger.Warn("orphan sweep: activity delete failed", zap.String("session_id", id), zap.Error(err))
		}
		if prev != "" {
			removed++
			s.auditor.Record(ctx, audit.Event{
				Kind:         "SESSION_CLEANUP",
				ActorID:      "system",
				ResourceType: "session",
				ResourceID:   id,
				Result:       audit.ResultSuccess,
				Metadata:     map[string]string{"reason": string(domain.CleanupReasonOrphanRepair)},
			})
		}
	}
	if removed > 0 {
		s.logger.Info("orphan sweep", zap.Int("removed", removed))
	}
}

// cleanupSession is the shared terminal transition. All four triggers
// converge here; only the reason annotation differs. The record delete's
// previous value decides whether this invocation had the observable effect,
// which keeps concurrent cleanups for the same id from double-counting or
// double-logging.
func (s *SessionService) cleanupSession(ctx context.Context, sessionID, userID, username, ipAddress string, reason domain.CleanupReason) (bool, error) {
	prev, err := s.store.Delete(ctx, sessionInfoKeyPrefix+sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session record: %w", err)
	}

	if userID == "" && prev != "" {
		var info domain.SessionInfo
		if jsonErr := json.Unmarshal([]byte(prev), &info); jsonErr == nil {
			userID = info.UserID
			if username == "" {
				username = info.Username
			}
			if ipAddress == "" {
				ipAddress = info.IPAddress
			}
		}
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(s.store.SetRemove(ctx, activeSessionsSetKey, sessionID))
	if _, err := s.store.Delete(ctx, sessionActivityKeyPrefix+sessionID); err != nil {
		record(err)
	}

	if userID != "" {
		// Drop the pointer only while it still names this session; a newer
		// login may have overwritten it.
		current, err := s.store.Get(ctx, sessionUserKeyPrefix+userID)
		record(err)
		if current == sessionID {
			if _, err := s.store.Delete(ctx, sessionUserKeyPrefix+userID); err != nil {
				record(err)
			}
		}

		markers, err := s.store.ScanKeys(ctx, fmt.Sprintf(userScopedKeyPattern, userID))
		record(err)
		for _, key := range markers {
			if _, err := s.store.Delete(ctx, key); err != nil {
				record(err)
			}
		}
	}

	if prev == "" {
		// Already cleaned (or never existed): idempotent no-op, no audit.
		return false, firstErr
	}

	result := audit.ResultSuccess
	if firstErr != nil {
		result = audit.ResultPartial
	}
	s.auditor.Record(ctx, audit.Event{
		Kind:         "SESSION_CLEANUP",
		ActorID:      username,
		ResourceType: "user",
		ResourceID:   userID,
		Result:       result,
		Metadata: map[string]string{
			"session_id": sessionID,
			"reason":     string(reason),
			"ip_address": ipAddress,
		},
	})

	if firstErr != nil {
		return false, firstErr
	}
	return true, nil
}

func (s *SessionService) loadSession(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	val, err := s.store.Get(ctx, sessionInfoKeyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, nil
	}
	var info domain.SessionInfo
	if err := json.Unmarshal([]byte(val), &info); err != nil {
		return nil, fmt.Errorf("malformed session record: %w", err)
	}
	return &info, nil
}
