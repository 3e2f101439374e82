package domain

import "time"

// CleanupReason annotates which trigger terminated a session.
type CleanupReason string

const (
	CleanupReasonLogout           CleanupReason = "LOGOUT"
	CleanupReasonTimeout          CleanupReason = "TIMEOUT"
	CleanupReasonAdminInvalidated CleanupReason = "ADMIN_INVALIDATED"
	CleanupReasonSweptExpired     CleanupReason = "SWEPT_EXPIRED"
	CleanupReasonOrphanRepair     CleanupReason = "ORPHAN_REPAIR"
)

// SessionInfo is the stored record for an authenticated session.
type SessionInfo struct {
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Role             Role      `json:"role"`
	LoginTime        time.Time `json:"login_time"`
	LastActivityTime time.Time `json:"last_activity_time"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
	DeviceType       string    `json:"device_type"`
	BrowserType      string    `json:"browser_type"`
	OSType           string    `json:"os_type"`
	Active           bool      `json:"active"`
	ExpirationTime   time.Time `json:"expiration_time"`
}

// Expired reports whether the session is past its absolute expiration or
// has been inactive longer than the given ceiling.
func (s *SessionInfo) Expired(now time.Time, inactivityCeiling time.Duration) bool {
	if now.After(s.ExpirationTime) {
		return true
	}
	return inactivityCeiling > 0 && now.Sub(s.LastActivityTime) > inactivityCeiling
}
