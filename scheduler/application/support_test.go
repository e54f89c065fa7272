package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
)

// In-memory collaborators shared by the service tests.

type memPublicationStore struct {
	mu        sync.Mutex
	pubs      map[string]common.ScheduledPublication
	groups    map[string]common.RecurringGroup
	updateErr error // injected UpdatePublication failure
}

func newMemPublicationStore() *memPublicationStore {
	return &memPublicationStore{
		pubs:   make(map[string]common.ScheduledPublication),
		groups: make(map[string]common.RecurringGroup),
	}
}

func (s *memPublicationStore) Init(ctx context.Context) error { return nil }

func (s *memPublicationStore) CreatePublication(ctx context.Context, pub common.ScheduledPublication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pubs[pub.ID] = pub
	return nil
}

func (s *memPublicationStore) GetPublication(ctx context.Context, id string) (common.ScheduledPublication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, ok := s.pubs[id]
	if !ok {
		return common.ScheduledPublication{}, common.ErrPublicationNotFound
	}
	return pub, nil
}

func (s *memPublicationStore) UpdatePublication(ctx context.Context, pub common.ScheduledPublication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.pubs[pub.ID]; !ok {
		return common.ErrPublicationNotFound
	}
	s.pubs[pub.ID] = pub
	return nil
}

func (s *memPublicationStore) ListPublicationsByAccount(ctx context.Context, accountID string) ([]common.ScheduledPublication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []common.ScheduledPublication
	for _, p := range s.pubs {
		if p.AccountID == accountID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ScheduledFor.Before(res[j].ScheduledFor) })
	return res, nil
}

func (s *memPublicationStore) ListDuePublications(ctx context.Context, before time.Time) ([]common.ScheduledPublication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []common.ScheduledPublication
	for _, p := range s.pubs {
		if (p.Status == common.PublicationStatusPending || p.Status == common.PublicationStatusQueued) && !p.ScheduledFor.After(before) {
			res = append(res, p)
		}
	}
	return res, nil
}

func (s *memPublicationStore) CountByStatus(ctx context.Context, statuses ...common.PublicationStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.pubs {
		for _, st := range statuses {
			if p.Status == st {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *memPublicationStore) ClaimForPublishing(ctx context.Context, id string) (common.ScheduledPublication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, ok := s.pubs[id]
	if !ok {
		return common.ScheduledPublication{}, common.ErrPublicationNotFound
	}
	if pub.Status != common.PublicationStatusPending && pub.Status != common.PublicationStatusQueued {
		return common.ScheduledPublication{}, common.ErrAlreadyClaimed
	}
	pub.Status = common.PublicationStatusPublishing
	s.pubs[id] = pub
	return pub, nil
}

func (s *memPublicationStore) MaxQueuePosition(ctx context.Context, queueID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, p := range s.pubs {
		if p.QueueID == queueID && p.QueuePosition > max {
			max = p.QueuePosition
		}
	}
	return max, nil
}

func (s *memPublicationStore) CreateRecurringGroup(ctx context.Context, group common.RecurringGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	return nil
}

func (s *memPublicationStore) GetRecurringGroup(ctx context.Context, id string) (common.RecurringGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return common.RecurringGroup{}, common.ErrGroupNotFound
	}
	return group, nil
}

func (s *memPublicationStore) UpdateRecurringGroup(ctx context.Context, group common.RecurringGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	return nil
}

type memContentStore struct {
	mu       sync.Mutex
	posts    map[string]common.Post
	accounts map[string]common.Account
	recent   []domain.PublishedPost
}

func newMemContentStore() *memContentStore {
	return &memContentStore{
		posts:    make(map[string]common.Post),
		accounts: make(map[string]common.Account),
	}
}

func (s *memContentStore) GetPost(ctx context.Context, id string) (common.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return common.Post{}, common.ErrPostNotFound
	}
	return post, nil
}

func (s *memContentStore) CreatePost(ctx context.Context, post common.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = post
	return nil
}

func (s *memContentStore) UpdatePost(ctx context.Context, post common.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = post
	return nil
}

func (s *memContentStore) MarkPublished(ctx context.Context, postID, accountID string, at time.Time, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return common.ErrPostNotFound
	}
	post.Status = common.PostStatusPublished
	post.PublishedAt = &at
	post.PlatformPostID = externalID
	s.posts[postID] = post
	return nil
}

func (s *memContentStore) ListRecentPublished(ctx context.Context, accountID string, limit int) ([]domain.PublishedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.recent
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	out := make([]domain.PublishedPost, len(res))
	copy(out, res)
	return out, nil
}

func (s *memContentStore) GetAccount(ctx context.Context, id string) (common.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return common.Account{}, common.ErrAccountNotFound
	}
	return account, nil
}

type memQueueStore struct {
	mu     sync.Mutex
	queues map[string]common.PostingQueue
}

func newMemQueueStore() *memQueueStore {
	return &memQueueStore{queues: make(map[string]common.PostingQueue)}
}

func (s *memQueueStore) CreateQueue(ctx context.Context, q common.PostingQueue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[q.ID] = q
	return nil
}

func (s *memQueueStore) GetQueue(ctx context.Context, id string) (common.PostingQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[id]
	if !ok {
		return common.PostingQueue{}, common.ErrQueueNotFound
	}
	return q, nil
}

func (s *memQueueStore) ListQueues(ctx context.Context, accountID string) ([]common.PostingQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []common.PostingQueue
	for _, q := range s.queues {
		if q.AccountID == accountID {
			res = append(res, q)
		}
	}
	return res, nil
}

func (s *memQueueStore) AddSlot(ctx context.Context, slot common.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[slot.QueueID]
	if !ok {
		return common.ErrQueueNotFound
	}
	q.Slots = append(q.Slots, slot)
	s.queues[slot.QueueID] = q
	return nil
}

func (s *memQueueStore) RemoveSlot(ctx context.Context, slotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, q := range s.queues {
		for i, slot := range q.Slots {
			if slot.ID == slotID {
				q.Slots = append(q.Slots[:i], q.Slots[i+1:]...)
				s.queues[id] = q
				return nil
			}
		}
	}
	return nil
}

type memOptimalStore struct {
	mu      sync.Mutex
	buckets map[string][]common.OptimalPostingTime
}

func newMemOptimalStore() *memOptimalStore {
	return &memOptimalStore{buckets: make(map[string][]common.OptimalPostingTime)}
}

func (s *memOptimalStore) ReplaceForAccount(ctx context.Context, accountID string, times []common.OptimalPostingTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]common.OptimalPostingTime, len(times))
	copy(stored, times)
	s.buckets[accountID] = stored
	return nil
}

func (s *memOptimalStore) ListForAccount(ctx context.Context, accountID string, limit int) ([]common.OptimalPostingTime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.buckets[accountID]
	sorted := make([]common.OptimalPostingTime, len(res))
	copy(sorted, res)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// stubAdapter is a configurable publishing adapter for tests.
type stubAdapter struct {
	mu       sync.Mutex
	platform common.PlatformType
	result   domain.PublishResult
	err      error
	calls    int
}

func (a *stubAdapter) Platform() common.PlatformType { return a.platform }

func (a *stubAdapter) Publish(ctx context.Context, account common.Account, post common.Post) (domain.PublishResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return domain.PublishResult{}, a.err
	}
	return a.result, nil
}

func (a *stubAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
