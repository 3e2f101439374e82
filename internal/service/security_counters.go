package service

import (
	"context"
	"time"

	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/store"
)

const (
	failedLoginKeyPrefix      = "security:failed_login:"
	verificationCodeKeyPrefix = "security:verify_code:"
)

// SecurityCounters keeps failed-login and verification-code state in the
// shared ephemeral store with explicit TTLs, so a process restart or
// scale-out never silently resets it.
type SecurityCounters struct {
	store       store.Store
	loginWindow time.Duration
	codeTTL     time.Duration
}

// NewSecurityCounters builds the helper.
func NewSecurityCounters(cfg config.SecurityConfig, st store.Store) *SecurityCounters {
	return &SecurityCounters{
		store:       st,
		loginWindow: time.Duration(cfg.FailedLoginWindowMinutes) * time.Minute,
		codeTTL:     time.Duration(cfg.VerificationCodeTTLMinutes) * time.Minute,
	}
}

// RecordFailedLogin increments the per-account failure counter and returns
// the count within the current window.
func (s *SecurityCounters) RecordFailedLogin(ctx context.Context, username string) (int64, error) {
	return s.store.Increment(ctx, failedLoginKeyPrefix+username, s.loginWindow)
}

// ResetFailedLogins clears the counter after a successful login.
func (s *SecurityCounters) ResetFailedLogins(ctx context.Context, username string) error {
	_, err := s.store.Delete(ctx, failedLoginKeyPrefix+username)
	return err
}

// StoreVerificationCode saves a short-lived verification code for a user.
func (s *SecurityCounters) StoreVerificationCode(ctx context.Context, userID, code string) error {
	return s.store.SetWithTTL(ctx, verificationCodeKeyPrefix+userID, code, s.codeTTL)
}

// ConsumeVerificationCode atomically removes the stored code and reports
// whether it matched. A second concurrent consumer observes a miss.
func (s *SecurityCounters) ConsumeVerificationCode(ctx context.Context, userID, code string) (bool, error) {
	prev, err := s.store.Delete(ctx, verificationCodeKeyPrefix+userID)
	if err != nil {
		return false, err
	}
	return prev != "" && prev == code, nil
}
