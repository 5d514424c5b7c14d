package campaign

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Contribution 单个贡献者的提交记录
type Contribution struct {
	Identity    common.Address
	Count       int
	ContentRefs []string
}

// Register 注册贡献者，活动启动前也可以注册
func (c *Campaign) Register(identity common.Address) error {
	if identity == (common.Address{}) {
		return ErrInvalidIdentity
	}

	c.mu.Lock()
	if c.gate.IsPaused() {
		c.mu.Unlock()
		return ErrPaused
	}
	if c.phase == PhaseClosed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	now := c.now()
	if c.expired(now) {
		c.mu.Unlock()
		return ErrExpired
	}
	if _, ok := c.contributions[identity]; ok {
		c.mu.Unlock()
		return ErrAlreadyRegistered
	}
	c.contributors = append(c.contributors, identity)
	c.contributions[identity] = nil
	seq := c.version()
	c.mu.Unlock()

	c.notifier.Notify(Event{
		Seq:        seq,
		Type:       EventContributorRegistered,
		Campaign:   c.handle,
		Identity:   identity,
		OccurredAt: now,
	})
	return nil
}

// SubmitContent 已注册贡献者在活动进行期间提交内容引用
func (c *Campaign) SubmitContent(identity common.Address, contentRef string) error {
	if strings.TrimSpace(contentRef) == "" {
		return ErrEmptyContentRef
	}

	c.mu.Lock()
	if c.gate.IsPaused() {
		c.mu.Unlock()
		return ErrPaused
	}
	refs, ok := c.contributions[identity]
	if !ok {
		c.mu.Unlock()
		return ErrNotContributor
	}
	if c.phase != PhaseActive {
		c.mu.Unlock()
		if c.phase == PhaseClosed {
			return ErrAlreadyClosed
		}
		return ErrNotStarted
	}
	now := c.now()
	if c.expired(now) {
		c.mu.Unlock()
		return ErrExpired
	}
	c.contributions[identity] = append(refs, contentRef)
	c.allContent = append(c.allContent, Submission{Identity: identity, ContentRef: contentRef})
	seq := c.version()
	c.mu.Unlock()

	c.notifier.Notify(Event{
		Seq:        seq,
		Type:       EventContentSubmitted,
		Campaign:   c.handle,
		Identity:   identity,
		ContentRef: contentRef,
		OccurredAt: now,
	})
	return nil
}

// IsContributor 是否已注册
func (c *Campaign) IsContributor(identity common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.contributions[identity]
	return ok
}

// ContributionsOf 查询贡献者的提交记录
func (c *Campaign) ContributionsOf(identity common.Address) (Contribution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	refs, ok := c.contributions[identity]
	if !ok {
		return Contribution{}, false
	}
	return Contribution{
		Identity:    identity,
		Count:       len(refs),
		ContentRefs: append([]string(nil), refs...),
	}, true
}
