package campaign

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Disbursement 关闭活动时的奖池发放结果
type Disbursement struct {
	Campaign common.Address
	Receiver common.Address
	Amount   int64
	ClosedAt time.Time
}

// checkOwner 校验暂停状态与所有者身份，调用方需持有锁
func (c *Campaign) checkOwner(caller common.Address) error {
	if c.gate.IsPaused() {
		return ErrPaused
	}
	if !c.gate.IsOwner(caller) {
		return ErrNotOwner
	}
	return nil
}

// Start 启动活动
func (c *Campaign) Start(caller common.Address, durationDays int64) (time.Time, error) {
	c.mu.Lock()
	if err := c.checkOwner(caller); err != nil {
		c.mu.Unlock()
		return time.Time{}, err
	}
	if c.phase != PhaseCreated {
		c.mu.Unlock()
		if c.phase == PhaseClosed {
			return time.Time{}, ErrAlreadyClosed
		}
		return time.Time{}, ErrAlreadyStarted
	}
	if durationDays < MinDurationDays {
		c.mu.Unlock()
		return time.Time{}, ErrDurationTooShort
	}
	if durationDays > MaxDurationDays {
		c.mu.Unlock()
		return time.Time{}, &Error{Kind: KindValidation, Message: "活动时长超过上限"}
	}

	now := c.now()
	c.durationDays = durationDays
	c.endTime = now.Add(time.Duration(durationDays*SecondsPerDay) * time.Second)
	c.transition(PhaseActive)
	endTime := c.endTime
	seq := c.version()
	c.mu.Unlock()

	c.notifier.Notify(Event{
		Seq:        seq,
		Type:       EventCampaignStarted,
		Campaign:   c.handle,
		Owner:      c.owner,
		EndTime:    endTime,
		OccurredAt: now,
	})
	return endTime, nil
}

// performing 活跃活动的提交数是否已达到阈值的80%，调用方需持有锁
func (c *Campaign) performing() bool {
	return int64(len(c.allContent)) >= c.threshold*PerformingPercent/100
}

// checkClose 关闭条件，调用方需持有锁
func (c *Campaign) checkClose(caller common.Address) error {
	if err := c.checkOwner(caller); err != nil {
		return err
	}
	if c.phase == PhaseClosed {
		return ErrAlreadyClosed
	}
	if c.phase == PhaseActive && c.performing() {
		return ErrCampaignSucceeding
	}
	return nil
}

// version 已发生的状态变更次数，调用方需持有锁。
// 启动、每次注册、每次提交、关闭各计一次，可由快照重新算出。
func (c *Campaign) version() uint64 {
	v := uint64(len(c.contributors) + len(c.allContent))
	if !c.endTime.IsZero() {
		v++
	}
	if c.phase == PhaseClosed {
		v++
	}
	return v
}

// CanClose 报告 caller 此刻能否关闭活动
func (c *Campaign) CanClose(caller common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkClose(caller)
}

// Close 关闭活动并把全部奖池发放给 receiver。
// 发放失败时阶段与奖池保持不变。
func (c *Campaign) Close(ctx context.Context, caller, receiver common.Address) (*Disbursement, error) {
	c.mu.Lock()
	if err := c.checkClose(caller); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if receiver == (common.Address{}) {
		c.mu.Unlock()
		return nil, ErrInvalidReceiver
	}
	res, err := c.reserve()
	seq := c.version()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.settle(ctx, receiver, res); err != nil {
		return nil, err
	}

	closedAt := c.now()
	c.notifier.Notify(Event{
		Seq:        seq,
		Type:       EventCampaignClosed,
		Campaign:   c.handle,
		Receiver:   receiver,
		Amount:     res.amount,
		OccurredAt: closedAt,
	})
	return &Disbursement{
		Campaign: c.handle,
		Receiver: receiver,
		Amount:   res.amount,
		ClosedAt: closedAt,
	}, nil
}

// Cancel 中止活动，不发放奖池
func (c *Campaign) Cancel(caller common.Address) error {
	c.mu.Lock()
	if err := c.checkOwner(caller); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.phase == PhaseClosed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.transition(PhaseClosed)
	seq := c.version()
	c.mu.Unlock()

	c.notifier.Notify(Event{
		Seq:        seq,
		Type:       EventCampaignCanceled,
		Campaign:   c.handle,
		OccurredAt: c.now(),
	})
	return nil
}
