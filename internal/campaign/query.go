package campaign

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Details 活动详情快照
type Details struct {
	Handle                  common.Address
	Owner                   common.Address
	Phase                   Phase
	Active                  bool
	Name                    string
	Description             string
	ExampleContentRefs      []string
	RewardPool              int64
	MinimumContentThreshold int64
	SubmittedCount          int64
	ContributorCount        int
	Contributors            []common.Address
	DurationDays            int64
	EndTime                 time.Time
	CreatedAt               time.Time
}

// Details 返回活动详情，无前置条件
func (c *Campaign) Details() Details {
	c.mu.Lock()
	defer c.mu.Unlock()

	contributors := make([]common.Address, len(c.contributors))
	copy(contributors, c.contributors)

	return Details{
		Handle:                  c.handle,
		Owner:                   c.owner,
		Phase:                   c.phase,
		Active:                  c.phase == PhaseActive,
		Name:                    c.name,
		Description:             c.description,
		ExampleContentRefs:      append([]string(nil), c.exampleRefs...),
		RewardPool:              c.rewardPool,
		MinimumContentThreshold: c.threshold,
		SubmittedCount:          int64(len(c.allContent)),
		ContributorCount:        len(c.contributors),
		Contributors:            contributors,
		DurationDays:            c.durationDays,
		EndTime:                 c.endTime,
		CreatedAt:               c.createdAt,
	}
}

// TimeLeft 剩余时间
type TimeLeft struct {
	Days    int64
	Hours   int64
	Minutes int64
}

// TimeLeft 返回活动剩余时间，仅在进行中且未过期时可用
func (c *Campaign) TimeLeft() (TimeLeft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseActive {
		if c.phase == PhaseClosed {
			return TimeLeft{}, ErrAlreadyClosed
		}
		return TimeLeft{}, ErrNotStarted
	}
	now := c.now()
	if c.expired(now) {
		return TimeLeft{}, ErrExpired
	}
	return splitRemaining(int64(c.endTime.Sub(now) / time.Second)), nil
}

// splitRemaining 把剩余秒数拆分为天、小时、分钟
func splitRemaining(seconds int64) TimeLeft {
	return TimeLeft{
		Days:    seconds / SecondsPerDay,
		Hours:   seconds % SecondsPerDay / 3600,
		Minutes: seconds % 3600 / 60,
	}
}

// Expired 活动是否已过结束时间
func (c *Campaign) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired(c.now())
}
