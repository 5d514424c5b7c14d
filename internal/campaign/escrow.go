package campaign

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// reservation 已提交但尚未完成转账的发放
type reservation struct {
	amount    int64
	prevPhase Phase
}

// reserve 在转账前提交发放的全部内部效果：奖池清零、阶段关闭。
// 调用方需持有锁，且已完成关闭条件检查。
func (c *Campaign) reserve() (reservation, error) {
	amount := c.rewardPool
	if amount == 0 {
		return reservation{}, ErrNothingToDisburse
	}
	res := reservation{amount: amount, prevPhase: c.phase}
	c.rewardPool = 0
	c.transition(PhaseClosed)
	return res, nil
}

// settle 在不持有锁的情况下执行唯一一次外部转账，失败则回滚 reserve 的效果
func (c *Campaign) settle(ctx context.Context, receiver common.Address, res reservation) error {
	err := c.transferer.Transfer(ctx, c.handle, receiver, res.amount)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	// 关闭是终态，转账窗口内其他变更都会被拒绝，这里恢复的就是 reserve 之前的状态
	c.rewardPool = res.amount
	c.phase = res.prevPhase
	c.mu.Unlock()
	return transferError(err)
}

// Deposit 拒绝创建之后的任何转入
func (c *Campaign) Deposit(from common.Address, amount int64) error {
	return ErrDepositRejected
}
