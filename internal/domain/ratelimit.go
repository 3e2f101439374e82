package domain

// EndpointClass groups request paths sharing the same rate-limit policy.
type EndpointClass string

const (
	EndpointClassAuth     EndpointClass = "AUTH"
	EndpointClassRead     EndpointClass = "READ"
	EndpointClassMutation EndpointClass = "MUTATION"
	EndpointClassExempt   EndpointClass = "EXEMPT"
)

// RateLimitStatus is a read-only projection of the current window, computed
// per check and never persisted.
type RateLimitStatus struct {
	MaxRequests       int
	RemainingRequests int
	IPCount           int64
	UserCount         int64
	WindowSeconds     int
}
