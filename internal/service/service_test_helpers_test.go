package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spec-kit/blog-security-service/internal/audit"
	"github.com/spec-kit/blog-security-service/internal/domain"
)

// stubDirectory serves canned users for privilege and contact lookups.
type stubDirectory struct {
	users map[string]*domain.User
	err   error
}

func (d *stubDirectory) FindByID(_ context.Context, id string) (*domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	user, ok := d.users[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return user, nil
}

// stubSender captures outbound mail.
type stubSender struct {
	mu        sync.Mutex
	sent      []sentMail
	sendError error
}

type sentMail struct {
	destination string
	subject     string
	body        string
}

func (s *stubSender) Send(_ context.Context, destination, subject, body string) error {
	if s.sendError != nil {
		return s.sendError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{destination: destination, subject: subject, body: body})
	return nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// countingRecorder collects audit events for assertions.
type countingRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *countingRecorder) Record(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *countingRecorder) countKind(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.events {
		if e.Kind == kind {
			count++
		}
	}
	return count
}

// failingStore simulates a store outage on every operation.
type failingStore struct{}

var errStoreDown = errors.New("store unreachable")

func (failingStore) Get(context.Context, string) (string, error)    { return "", errStoreDown }
func (failingStore) Delete(context.Context, string) (string, error) { return "", errStoreDown }
func (failingStore) SetWithTTL(context.Context, string, string, time.Duration) error {
	return errStoreDown
}
func (failingStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errStoreDown
}
func (failingStore) ScanKeys(context.Context, string) ([]string, error) { return nil, errStoreDown }
func (failingStore) SetAdd(context.Context, string, ...string) error    { return errStoreDown }
func (failingStore) SetRemove(context.Context, string, ...string) error { return errStoreDown }
func (failingStore) SetMembers(context.Context, string) ([]string, error) {
	return nil, errStoreDown
}
