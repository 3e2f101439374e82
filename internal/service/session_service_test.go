package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/domain"
	"github.com/spec-kit/blog-security-service/internal/store"
)

func newSessionFixture(st store.Store) (*SessionService, *countingRecorder) {
	recorder := &countingRecorder{}
	svc := NewSessionService(testSecurityConfig(), st, recorder, zap.NewNop())
	return svc, recorder
}

func registerTestSession(t *testing.T, svc *SessionService, sessionID, userID string) *domain.SessionInfo {
	t.Helper()
	info := &domain.SessionInfo{
		SessionID: sessionID,
		UserID:    userID,
		Username:  "user-" + userID,
		Role:      domain.RoleAuthor,
		IPAddress: "203.0.113.7",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0",
	}
	if err := svc.RegisterSession(context.Background(), info); err != nil {
		t.Fatalf("register session %s: %v", sessionID, err)
	}
	return info
}

// seedExpiredSession writes a record already past its expiration directly,
// keeping the store TTL alive so the sweep finds it present but lapsed.
func seedExpiredSession(t *testing.T, st store.Store, sessionID, userID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	info := domain.SessionInfo{
		SessionID:        sessionID,
		UserID:           userID,
		Username:         "user-" + userID,
		LoginTime:        now.Add(-24 * time.Hour),
		LastActivityTime: now.Add(-23 * time.Hour),
		Active:           true,
		ExpirationTime:   now.Add(-time.Hour),
	}
	payload, _ := json.Marshal(info)
	if err := st.SetWithTTL(ctx, "session:info:"+sessionID, string(payload), time.Hour); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := st.SetAdd(ctx, "sessions:active", sessionID); err != nil {
		t.Fatalf("seed active set: %v", err)
	}
}

func TestLogoutCleanupIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc, recorder := newSessionFixture(st)

	info := registerTestSession(t, svc, "sess-1", "u1")
	_ = st.SetWithTTL(ctx, "user:u1:draft:42", "x", time.Hour)

	if ok := svc.PerformUserLogoutCleanup(ctx, info.SessionID, info.UserID, info.Username, info.IPAddress, domain.CleanupReasonLogout); !ok {
		t.Fatal("expected first cleanup to succeed")
	}
	if got := recorder.countKind("SESSION_CLEANUP"); got != 1 {
		t.Fatalf("expected 1 audit record, got %d", got)
	}

	// All three views plus user-scoped markers are gone.
	for _, key := range []string{"session:info:sess-1", "session:user:u1", "user:u1:draft:42"} {
		if val, _ := st.Get(ctx, key); val != "" {
			t.Fatalf("expected %s to be removed", key)
		}
	}
	members, _ := st.SetMembers(ctx, "sessions:active")
	if len(members) != 0 {
		t.Fatalf("expected empty active set, got %v", members)
	}

	// Second run: no observable effect, no duplicate audit.
	if ok := svc.PerformUserLogoutCleanup(ctx, info.SessionID, info.UserID, info.Username, info.IPAddress, domain.CleanupReasonLogout); ok {
		t.Fatal("expected second cleanup to report false")
	}
	if got := recorder.countKind("SESSION_CLEANUP"); got != 1 {
		t.Fatalf("expected no duplicate audit record, got %d", got)
	}
}

func TestTimeoutCleanupWithAbsentRecordIsNoOp(t *testing.T) {
	svc, recorder := newSessionFixture(store.NewMemoryStore())

	if ok := svc.PerformTimeoutCleanup(context.Background(), "never-existed", nil); ok {
		t.Fatal("expected nil session info to report false")
	}
	if got := recorder.countKind("SESSION_CLEANUP"); got != 0 {
		t.Fatalf("expected no audit records, got %d", got)
	}
}

func TestLogoutCleanupReportsFailureOnStoreOutage(t *testing.T) {
	svc, _ := newSessionFixture(failingStore{})

	if ok := svc.PerformUserLogoutCleanup(context.Background(), "sess-1", "u1", "alice", "203.0.113.7", domain.CleanupReasonLogout); ok {
		t.Fatal("expected cleanup to report incomplete on store outage")
	}
}

func TestBatchExpiredSessionCleanup(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc, recorder := newSessionFixture(st)

	// Three live sessions, two expired.
	for i := 1; i <= 3; i++ {
		registerTestSession(t, svc, fmt.Sprintf("live-%d", i), fmt.Sprintf("u%d", i))
	}
	seedExpiredSession(t, st, "dead-1", "u8")
	seedExpiredSession(t, st, "dead-2", "u9")

	cleaned := svc.PerformBatchExpiredSessionCleanup(ctx)
	if cleaned != 2 {
		t.Fatalf("expected 2 cleaned sessions, got %d", cleaned)
	}
	if got := recorder.countKind("SESSION_CLEANUP"); got != 2 {
		t.Fatalf("expected one audit record per cleaned session, got %d", got)
	}

	// Valid sessions are untouched.
	for i := 1; i <= 3; i++ {
		info, err := svc.GetSession(ctx, fmt.Sprintf("live-%d", i))
		if err != nil || info == nil {
			t.Fatalf("expected live-%d to survive the sweep", i)
		}
	}
	members, _ := st.SetMembers(ctx, "sessions:active")
	if len(members) != 3 {
		t.Fatalf("expected 3 active ids after sweep, got %v", members)
	}

	// Re-running the sweep finds nothing further.
	if again := svc.PerformBatchExpiredSessionCleanup(ctx); again != 0 {
		t.Fatalf("expected idle re-sweep, cleaned %d", again)
	}
}

func TestBatchCleanupDropsDanglingActiveIDs(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc, _ := newSessionFixture(st)

	// Active-set entry whose record was TTL-evicted.
	_ = st.SetAdd(ctx, "sessions:active", "ttl-gone")

	if cleaned := svc.PerformBatchExpiredSessionCleanup(ctx); cleaned != 0 {
		t.Fatalf("expected 0 cleaned, got %d", cleaned)
	}
	members, _ := st.SetMembers(ctx, "sessions:active")
	if len(members) != 0 {
		t.Fatalf("expected dangling id to be dropped, got %v", members)
	}
}

func TestUserAllSessionsCleanup(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc, _ := newSessionFixture(st)

	// Two sessions for the same user (older one no longer indexed), one for
	// another user.
	registerTestSession(t, svc, "old", "u1")
	registerTestSession(t, svc, "new", "u1")
	registerTestSession(t, svc, "other", "u2")

	count := svc.PerformUserAllSessionsCleanup(ctx, "u1", domain.CleanupReasonAdminInvalidated)
	if count != 2 {
		t.Fatalf("expected 2 sessions removed, got %d", count)
	}

	if info, _ := svc.GetSession(ctx, "other"); info == nil {
		t.Fatal("expected unrelated session to survive")
	}
	for _, id := range []string{"old", "new"} {
		if info, _ := svc.GetSession(ctx, id); info != nil {
			t.Fatalf("expected session %s to be removed", id)
		}
	}
}

func TestOrphanedDataCleanup(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc, _ := newSessionFixture(st)

	indexed := registerTestSession(t, svc, "indexed", "u1")

	// Record with no matching active-set entry: drift from a partial failure.
	orphan := domain.SessionInfo{SessionID: "orphan", UserID: "u9", Active: true, ExpirationTime: time.Now().Add(time.Hour)}
	payload, _ := json.Marshal(orphan)
	_ = st.SetWithTTL(ctx, "session:info:orphan", string(payload), time.Hour)

	svc.ScheduledOrphanedDataCleanup(ctx)

	if val, _ := st.Get(ctx, "session:info:orphan"); val != "" {
		t.Fatal("expected orphaned record to be removed")
	}
	if info, _ := svc.GetSession(ctx, indexed.SessionID); info == nil {
		t.Fatal("expected correctly-indexed session to be untouched")
	}
}

func TestConcurrentCleanupSingleEffect(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc, recorder := newSessionFixture(st)

	info := registerTestSession(t, svc, "contested", "u1")

	// Simultaneous logout and timeout for the same session: exactly one wins.
	results := make(chan bool, 2)
	go func() {
		results <- svc.PerformUserLogoutCleanup(ctx, "contested", info.UserID, info.Username, info.IPAddress, domain.CleanupReasonLogout)
	}()
	go func() {
		results <- svc.PerformTimeoutCleanup(ctx, "contested", info)
	}()

	successes := 0
	for i := 0; i < 2; i++ {
		if <-results {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly 1 effective cleanup, got %d", successes)
	}
	if got := recorder.countKind("SESSION_CLEANUP"); got != 1 {
		t.Fatalf("expected 1 audit record, got %d", got)
	}
}

func TestRegisterSessionDerivesClientFields(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc, _ := newSessionFixture(st)

	info := registerTestSession(t, svc, "sess-ua", "u1")
	if info.DeviceType != "desktop" || info.BrowserType != "chrome" || info.OSType != "windows" {
		t.Fatalf("unexpected user-agent parse: %s/%s/%s", info.DeviceType, info.BrowserType, info.OSType)
	}

	stored, err := svc.GetSession(ctx, "sess-ua")
	if err != nil || stored == nil {
		t.Fatalf("load stored session: %v", err)
	}
	if !stored.Active || stored.ExpirationTime.IsZero() {
		t.Fatalf("expected active session with expiration, got %+v", stored)
	}
}
