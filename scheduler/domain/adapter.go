package domain

import (
	"context"
	"sync"

	"github.com/postflow/postflow/scheduler/domain/common"
)

// PublishResult carries the platform-assigned identifier of a
// successfully published post.
type PublishResult struct {
	ExternalID string
}

// PublishingAdapter performs the actual platform call for one platform
// type. Implementations validate platform constraints (length limits,
// required media) before any network work.
type PublishingAdapter interface {
	Platform() common.PlatformType
	Publish(ctx context.Context, account common.Account, post common.Post) (PublishResult, error)
}

// AdapterRegistry resolves publishing adapters by platform type.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[common.PlatformType]PublishingAdapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[common.PlatformType]PublishingAdapter)}
}

func (r *AdapterRegistry) Register(adapter PublishingAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Platform()] = adapter
}

func (r *AdapterRegistry) Get(platform common.PlatformType) (PublishingAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[platform]
	return adapter, ok
}
