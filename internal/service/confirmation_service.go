package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/audit"
	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/domain"
	"github.com/spec-kit/blog-security-service/internal/notification"
	"github.com/spec-kit/blog-security-service/internal/repository"
	"github.com/spec-kit/blog-security-service/internal/store"
)

const confirmationKeyPrefix = "confirm:"

// tokenBytes yields 256 bits of randomness, hex-encoded to 64 characters.
const tokenBytes = 32

// ErrConfirmationUnavailable is the single taxonomy for "a confirmation
// could not be issued". Callers never learn which step failed; the detail is
// logged only.
var ErrConfirmationUnavailable = errors.New("confirmation could not be issued")

var tokenFormat = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ConfirmationService gates irreversible operations behind single-use,
// time-boxed tokens.
type ConfirmationService struct {
	store     store.Store
	directory repository.UserDirectory
	sender    notification.Sender
	auditor   audit.Recorder
	logger    *zap.Logger
	ttl       time.Duration
	baseURL   string
	now       func() time.Time
}

// ConfirmationDependencies bundles collaborators for the service.
type ConfirmationDependencies struct {
	Store     store.Store
	Directory repository.UserDirectory
	Sender    notification.Sender
	Auditor   audit.Recorder
	Logger    *zap.Logger
}

// NewConfirmationService builds the service.
func NewConfirmationService(cfg config.SecurityConfig, deps ConfirmationDependencies) *ConfirmationService {
	return &ConfirmationService{
		store:     deps.Store,
		directory: deps.Directory,
		sender:    deps.Sender,
		auditor:   deps.Auditor,
		logger:    deps.Logger,
		ttl:       cfg.ConfirmationTTL(),
		baseURL:   cfg.ConfirmationBaseURL,
		now:       time.Now,
	}
}

// RequiresConfirmation decides whether the operation needs a deliberate
// confirmation step for this actor. Destructive operations and data export
// are always gated. Role/config/policy changes are gated only for
// management-privileged actors; any error evaluating privilege fails closed.
func (s *ConfirmationService) RequiresConfirmation(ctx context.Context, op domain.OperationType, userID string) bool {
	if op.Destructive() || op == domain.OperationExportData {
		return true
	}
	if !op.PolicyChange() {
		return false
	}

	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("privilege lookup failed, requiring confirmation",
			zap.String("user_id", userID),
			zap.String("operation", string(op)),
			zap.Error(err))
		return true
	}
	return user.Role.IsManagement()
}

// GenerateToken creates and stores a single-use confirmation token.
func (s *ConfirmationService) GenerateToken(ctx context.Context, userID string, op domain.OperationType, resourceID string) (*domain.ConfirmationToken, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate confirmation token: %w", err)
	}

	now := s.now()
	token := &domain.ConfirmationToken{
		Token:      hex.EncodeToString(raw),
		UserID:     userID,
		Operation:  op,
		ResourceID: resourceID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("marshal confirmation token: %w", err)
	}
	if err := s.store.SetWithTTL(ctx, confirmationKeyPrefix+token.Token, string(payload), s.ttl); err != nil {
		return nil, fmt.Errorf("store confirmation token: %w", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Kind:         "CONFIRMATION_TOKEN_ISSUED",
		ActorID:      userID,
		ResourceType: "confirmation_token",
		ResourceID:   resourceID,
		Result:       audit.ResultSuccess,
		Metadata:     map[string]string{"operation": string(op)},
	})
	return token, nil
}

// ValidateToken looks up a token without consuming it. Missing, malformed,
// lapsed and store-failure cases are all reported identically as invalid; a
// lapsed-but-present token is actively evicted.
func (s *ConfirmationService) ValidateToken(ctx context.Context, tokenStr string) (*domain.ConfirmationToken, bool) {
	token, ok := s.lookup(ctx, tokenStr)
	if !ok {
		return nil, false
	}
	if token.Expired(s.now()) {
		if _, err := s.store.Delete(ctx, confirmationKeyPrefix+tokenStr); err != nil {
			s.logger.Warn("evict lapsed confirmation token", zap.Error(err))
		}
		return nil, false
	}
	return token, true
}

// ConsumeToken validates and atomically destroys a token. The store's
// delete-returns-previous is the serialization point: of N concurrent
// callers, only the one that observes the stored value wins.
func (s *ConfirmationService) ConsumeToken(ctx context.Context, tokenStr string) (*domain.ConfirmationToken, bool) {
	if !s.wellFormed(tokenStr) {
		return nil, false
	}

	prev, err := s.store.Delete(ctx, confirmationKeyPrefix+tokenStr)
	if err != nil {
		// Fail closed: a gated operation must not proceed on store outage.
		s.logger.Error("confirmation store unavailable during consume", zap.Error(err))
		return nil, false
	}
	if prev == "" {
		return nil, false
	}

	var token domain.ConfirmationToken
	if err := json.Unmarshal([]byte(prev), &token); err != nil {
		s.logger.Error("malformed confirmation record in store", zap.Error(err))
		return nil, false
	}
	if token.Expired(s.now()) {
		return nil, false
	}

	s.auditor.Record(ctx, audit.Event{
		Kind:         "CONFIRMATION_TOKEN_CONSUMED",
		ActorID:      token.UserID,
		ResourceType: "confirmation_token",
		ResourceID:   token.ResourceID,
		Result:       audit.ResultSuccess,
		Metadata:     map[string]string{"operation": string(token.Operation)},
	})
	return &token, true
}

// SendEmailConfirmation generates a token and mails a single-use
// confirmation link to the user's verified address.
func (s *ConfirmationService) SendEmailConfirmation(ctx context.Context, userID string, op domain.OperationType, resourceID string) (*domain.ConfirmationToken, error) {
	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("email confirmation: user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, ErrConfirmationUnavailable
	}
	if !user.EmailVerified {
		s.logger.Warn("email confirmation: address not verified", zap.String("user_id", userID))
		return nil, ErrConfirmationUnavailable
	}

	token, err := s.GenerateToken(ctx, userID, op, resourceID)
	if err != nil {
		s.logger.Error("email confirmation: token generation failed", zap.Error(err))
		return nil, ErrConfirmationUnavailable
	}

	link := fmt.Sprintf("%s/confirmation?token=%s", s.baseURL, token.Token)
	subject := fmt.Sprintf("Confirm: %s", op.DisplayName())
	body := fmt.Sprintf(
		"You requested the following action: %s.\n\n%s\n\nConfirm within %d minutes by opening this link:\n%s\n\nIf you did not request this, ignore this message.",
		op.DisplayName(), op.Description(), int(s.ttl.Minutes()), link,
	)

	if err := s.sender.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Error("email confirmation: send failed", zap.String("user_id", userID), zap.Error(err))
		return nil, ErrConfirmationUnavailable
	}
	return token, nil
}

func (s *ConfirmationService) lookup(ctx context.Context, tokenStr string) (*domain.ConfirmationToken, bool) {
	if !s.wellFormed(tokenStr) {
		return nil, false
	}

	val, err := s.store.Get(ctx, confirmationKeyPrefix+tokenStr)
	if err != nil {
		// Fail closed on store outage.
		s.logger.Error("confirmation store unavailable during validate", zap.Error(err))
		return nil, false
	}
	if val == "" {
		return nil, false
	}

	var token domain.ConfirmationToken
	if err := json.Unmarshal([]byte(val), &token); err != nil {
		s.logger.Error("malformed confirmation record in store", zap.Error(err))
		return nil, false
	}
	return &token, true
}

// wellFormed rejects blank or forged-looking token strings. Rejections are
// logged at elevated severity but remain indistinguishable from a plain
// invalid token to the caller.
func (s *ConfirmationService) wellFormed(tokenStr string) bool {
	if tokenStr == "" {
		return false
	}
	if !tokenFormat.MatchString(tokenStr) {
		s.logger.Warn("rejected malformed confirmation token", zap.Int("length", len(tokenStr)))
		return false
	}
	return true
}
