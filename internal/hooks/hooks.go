package hooks

import (
	"context"
	"sync"
)

// EntityHook runs around persistence writes. BeforeWrite may veto the write
// by returning an error; AfterWrite is notification only.
type EntityHook interface {
	BeforeWrite(ctx context.Context, entity any) error
	AfterWrite(ctx context.Context, entity any)
}

// Registry maps entity kinds to their write hooks. The persistence layer's
// save path invokes RunBeforeWrite/RunAfterWrite synchronously around each
// write.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]EntityHook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string][]EntityHook)}
}

// Register appends a hook for the given entity kind.
func (r *Registry) Register(kind string, hook EntityHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[kind] = append(r.hooks[kind], hook)
}

// RunBeforeWrite invokes hooks in registration order, stopping at the first
// error so the write can be aborted.
func (r *Registry) RunBeforeWrite(ctx context.Context, kind string, entity any) error {
	r.mu.RLock()
	registered := append([]EntityHook{}, r.hooks[kind]...)
	r.mu.RUnlock()

	for _, hook := range registered {
		if err := hook.BeforeWrite(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// RunAfterWrite invokes hooks in registration order.
func (r *Registry) RunAfterWrite(ctx context.Context, kind string, entity any) {
	r.mu.RLock()
	registered := append([]EntityHook{}, r.hooks[kind]...)
	r.mu.RUnlock()

	for _, hook := range registered {
		hook.AfterWrite(ctx, entity)
	}
}

// HookFuncs adapts plain functions to EntityHook.
type HookFuncs struct {
	Before func(ctx context.Context, entity any) error
	After  func(ctx context.Context, entity any)
}

// BeforeWrite implements EntityHook.
func (h HookFuncs) BeforeWrite(ctx context.Context, entity any) error {
	if h.Before == nil {
		return nil
	}
	return h.Before(ctx, entity)
}

// AfterWrite implements EntityHook.
func (h HookFuncs) AfterWrite(ctx context.Context, entity any) {
	if h.After != nil {
		h.After(ctx, entity)
	}
}
