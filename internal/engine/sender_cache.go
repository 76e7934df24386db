package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
)

// SenderCache maps mobile numbers to sender ids for the duration of one run.
// It is safe for concurrent use.
type SenderCache struct {
	store   service.SenderStore
	ids     map[string]int64
	mu      sync.Mutex
	created int
}

// NewSenderCache creates an empty cache backed by store.
func NewSenderCache(store service.SenderStore) *SenderCache {
	return &SenderCache{store: store, ids: make(map[string]int64)}
}

// Resolve returns the sender id for mobile, registering the sender on first
// sight. Unknown mobiles resolve to 0.
func (c *SenderCache) Resolve(ctx context.Context, mobile, name string) (int64, error) {
	mobile = strings.TrimSpace(mobile)
	if c == nil || c.store == nil || mobile == "" || mobile == model.MobileUnknown {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.ids[mobile]; ok {
		return id, nil
	}

	id, created, err := c.store.ResolveSender(ctx, mobile, name)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve sender %s: %w", mobile, err)
	}
	c.ids[mobile] = id
	if created {
		c.created++
	}
	return id, nil
}

// Created returns how many senders this cache registered.
func (c *SenderCache) Created() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

// Len returns how many distinct mobiles were resolved.
func (c *SenderCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}
