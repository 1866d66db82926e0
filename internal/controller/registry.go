package controller

import (
	"sync"
)

// Registry holds one SettingsController per user, created on first use
type Registry struct {
	accounts  Accounts
	snapshots SnapshotStore
	opts      Options

	mu          sync.Mutex
	controllers map[string]*SettingsController
}

// NewRegistry creates an empty registry
func NewRegistry(accounts Accounts, snapshots SnapshotStore, opts Options) *Registry {
	return &Registry{
		accounts:    accounts,
		snapshots:   snapshots,
		opts:        opts,
		controllers: make(map[string]*SettingsController),
	}
}

// Get returns the controller of email and whether it was just created
func (r *Registry) Get(email string) (*SettingsController, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[email]; ok {
		return c, false
	}
	c := NewSettingsController(email, r.accounts, r.snapshots, r.opts)
	r.controllers[email] = c
	return c, true
}

// Len returns the number of controllers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Close stops every controller's pending status reset
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.controllers {
		c.Close()
	}
}
