package loopback

import (
	"context"
	"fmt"
	"sync"

	"github.com/postflow/postflow/scheduler/domain"
	"github.com/postflow/postflow/scheduler/domain/common"
	"github.com/sirupsen/logrus"
)

// Adapter is an in-process publishing sink. It accepts every post,
// assigns a synthetic external ID and keeps the published posts in
// memory so callers can inspect them.
type Adapter struct {
	mu        sync.Mutex
	seq       int
	published []common.Post

	// FailWith, when set, makes every Publish call fail with that
	// error. Test hook for exercising failure paths.
	FailWith error
}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Platform() common.PlatformType {
	return common.PlatformLoopback
}

func (a *Adapter) Publish(_ context.Context, account common.Account, post common.Post) (domain.PublishResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.FailWith != nil {
		return domain.PublishResult{}, a.FailWith
	}

	a.seq++
	externalID := fmt.Sprintf("loop-%d", a.seq)
	a.published = append(a.published, post)
	logrus.Debugf("[LOOPBACK] Published post %s for account %s as %s", post.ID, account.ID, externalID)
	return domain.PublishResult{ExternalID: externalID}, nil
}

// Published returns a snapshot of everything the adapter accepted.
func (a *Adapter) Published() []common.Post {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]common.Post, len(a.published))
	copy(out, a.published)
	return out
}
