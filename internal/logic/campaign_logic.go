package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/crowdcampaign/internal/access"
	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/blues/crowdcampaign/internal/metrics"
	"github.com/blues/crowdcampaign/internal/model"
	"github.com/blues/crowdcampaign/internal/registry"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Payout 奖池发放后端
type Payout interface {
	campaign.Transferer
	Name() string
}

// CampaignOptions 活动业务逻辑依赖
type CampaignOptions struct {
	Factory  common.Address
	Pause    *access.PauseSwitch
	Payout   Payout
	Funding  Funding // 创建押金的来源，为空时拒绝创建
	Notifier campaign.Notifier
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// CampaignLogic 活动业务逻辑：内存中的注册表为准，数据库为投影
type CampaignLogic struct {
	db       *gorm.DB
	registry *registry.Registry
	payout   Payout
	funding  Funding
	metrics  *metrics.Metrics

	persistMu sync.Mutex
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(db *gorm.DB, opts CampaignOptions) *CampaignLogic {
	l := &CampaignLogic{
		db:      db,
		payout:  opts.Payout,
		funding: opts.Funding,
		metrics: opts.Metrics,
	}
	l.registry = registry.New(registry.Options{
		Factory:    opts.Factory,
		Pause:      opts.Pause,
		Transferer: opts.Payout,
		Notifier:   opts.Notifier,
		Now:        opts.Now,
	})
	return l
}

// Registry 底层注册表
func (l *CampaignLogic) Registry() *registry.Registry {
	return l.registry
}

func (l *CampaignLogic) observe(operation string, err error) {
	if l.metrics != nil {
		l.metrics.Observe(operation, err)
	}
}

// admit 创建活动时写入投影并登记押金，失败则放弃创建
func (l *CampaignLogic) admit(c *campaign.Campaign, proof string) error {
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	state := c.Snapshot()
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := saveState(tx, state); err != nil {
			return err
		}
		return l.funding.Record(tx, c.Owner(), state.Handle, state.RewardPool, proof)
	})
}

// Persist 把活动当前快照写入投影
func (l *CampaignLogic) Persist(c *campaign.Campaign) error {
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	state := c.Snapshot()
	return l.db.Transaction(func(tx *gorm.DB) error {
		return saveState(tx, state)
	})
}

// persist 操作成功后的投影写入，失败由同步任务补齐
func (l *CampaignLogic) persist(c *campaign.Campaign) {
	if err := l.Persist(c); err != nil {
		logger.Error("Failed to persist campaign %s: %v", c.Handle().Hex(), err)
	}
}

// Create 创建活动，fundingTx 为链上押金交易哈希，本地账本模式下忽略
func (l *CampaignLogic) Create(ctx context.Context, caller common.Address, input campaign.CreateInput, deposit int64, fundingTx string) (campaign.Details, error) {
	c, err := l.create(ctx, caller, input, deposit, fundingTx)
	l.observe("create", err)
	if err != nil {
		return campaign.Details{}, err
	}
	logger.Info("Campaign %s created by %s with reward pool %d", c.Handle().Hex(), caller.Hex(), deposit)
	return c.Details(), nil
}

func (l *CampaignLogic) create(ctx context.Context, caller common.Address, input campaign.CreateInput, deposit int64, fundingTx string) (*campaign.Campaign, error) {
	if l.funding == nil {
		return nil, ErrUnfundedDeposit
	}
	// 押金为0时由活动校验拒绝，不必查询外部系统
	if deposit > 0 {
		if err := l.funding.Verify(ctx, caller, deposit, fundingTx); err != nil {
			return nil, err
		}
	}
	return l.registry.CreateWith(caller, input, deposit, func(c *campaign.Campaign) error {
		return l.admit(c, fundingTx)
	})
}

// GetCampaign 获取活动详情
func (l *CampaignLogic) GetCampaign(handle common.Address) (campaign.Details, error) {
	return l.registry.Details(handle)
}

// IsKnown 句柄是否已登记
func (l *CampaignLogic) IsKnown(handle common.Address) bool {
	return l.registry.IsKnown(handle)
}

// GetCampaigns 获取活动列表，phase 为空时返回全部
func (l *CampaignLogic) GetCampaigns(phase string) ([]campaign.Details, error) {
	var want campaign.Phase
	if phase != "" {
		p, ok := campaign.ParsePhase(phase)
		if !ok {
			return nil, fmt.Errorf("无效的活动阶段: %s", phase)
		}
		want = p
	}

	list := l.registry.List()
	out := make([]campaign.Details, 0, len(list))
	for _, c := range list {
		d := c.Details()
		if phase != "" && d.Phase != want {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// GetCampaignsByOwner 获取所有者名下的活动
func (l *CampaignLogic) GetCampaignsByOwner(owner common.Address) []campaign.Details {
	handles := l.registry.ByOwner(owner)
	out := make([]campaign.Details, 0, len(handles))
	for _, handle := range handles {
		if d, err := l.registry.Details(handle); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// Start 启动活动
func (l *CampaignLogic) Start(caller, handle common.Address, durationDays int64) (time.Time, error) {
	c, err := l.registry.Get(handle)
	if err != nil {
		return time.Time{}, err
	}
	endTime, err := c.Start(caller, durationDays)
	l.observe("start", err)
	if err != nil {
		return time.Time{}, err
	}
	l.persist(c)
	logger.Info("Campaign %s started, ends at %s", handle.Hex(), endTime.Format(time.RFC3339))
	return endTime, nil
}

// Register 注册贡献者
func (l *CampaignLogic) Register(handle, identity common.Address) error {
	c, err := l.registry.Get(handle)
	if err != nil {
		return err
	}
	err = c.Register(identity)
	l.observe("register", err)
	if err != nil {
		return err
	}
	l.persist(c)
	return nil
}

// SubmitContent 提交内容
func (l *CampaignLogic) SubmitContent(handle, identity common.Address, contentRef string) (campaign.Contribution, error) {
	c, err := l.registry.Get(handle)
	if err != nil {
		return campaign.Contribution{}, err
	}
	err = c.SubmitContent(identity, contentRef)
	l.observe("submit", err)
	if err != nil {
		return campaign.Contribution{}, err
	}
	l.persist(c)
	contribution, _ := c.ContributionsOf(identity)
	return contribution, nil
}

// GetContributions 查询贡献者的提交记录
func (l *CampaignLogic) GetContributions(handle, identity common.Address) (campaign.Contribution, error) {
	c, err := l.registry.Get(handle)
	if err != nil {
		return campaign.Contribution{}, err
	}
	contribution, ok := c.ContributionsOf(identity)
	if !ok {
		return campaign.Contribution{}, campaign.ErrNotContributor
	}
	return contribution, nil
}

// GetTimeLeft 查询剩余时间
func (l *CampaignLogic) GetTimeLeft(handle common.Address) (campaign.TimeLeft, error) {
	c, err := l.registry.Get(handle)
	if err != nil {
		return campaign.TimeLeft{}, err
	}
	return c.TimeLeft()
}

// Close 关闭活动并发放奖池
func (l *CampaignLogic) Close(ctx context.Context, caller, handle, receiver common.Address) (*campaign.Disbursement, error) {
	d, err := l.registry.Close(ctx, caller, handle, receiver)
	l.observe("close", err)
	if err != nil {
		if errors.Is(err, campaign.ErrTransfer) {
			logger.Error("Disbursement for campaign %s to %s failed: %v", handle.Hex(), receiver.Hex(), err)
			// 转账期间同步任务可能已写入关闭状态，按回滚后的快照覆盖
			if c, getErr := l.registry.Get(handle); getErr == nil {
				l.persist(c)
			}
		}
		return nil, err
	}

	c, _ := l.registry.Get(handle)
	l.persistMu.Lock()
	state := c.Snapshot()
	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := saveState(tx, state); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.DisbursementModel{
			CampaignHandle:  d.Campaign.Hex(),
			ReceiverAddress: d.Receiver.Hex(),
			Amount:          d.Amount,
			Backend:         l.payout.Name(),
			DisbursedAt:     d.ClosedAt,
		}).Error
	})
	l.persistMu.Unlock()
	if err != nil {
		logger.Error("Failed to record disbursement for campaign %s: %v", handle.Hex(), err)
	}

	logger.Info("Campaign %s closed, %d disbursed to %s via %s", handle.Hex(), d.Amount, receiver.Hex(), l.payout.Name())
	return d, nil
}

// Cancel 中止活动
func (l *CampaignLogic) Cancel(caller, handle common.Address) error {
	err := l.registry.Cancel(caller, handle)
	l.observe("cancel", err)
	if err != nil {
		return err
	}
	c, _ := l.registry.Get(handle)
	l.persist(c)
	logger.Info("Campaign %s canceled by owner", handle.Hex())
	return nil
}

// Deposit 活动不接受创建后的转入
func (l *CampaignLogic) Deposit(handle, from common.Address, amount int64) error {
	c, err := l.registry.Get(handle)
	if err != nil {
		return err
	}
	err = c.Deposit(from, amount)
	l.observe("deposit", err)
	return err
}

// GetDisbursement 查询活动的发放记录
func (l *CampaignLogic) GetDisbursement(handle common.Address) (*model.DisbursementModel, error) {
	var row model.DisbursementModel
	if err := l.db.Where("campaign_handle = ?", handle.Hex()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取发放记录失败: %w", err)
	}
	return &row, nil
}

// Campaigns 全部活动，供同步任务使用
func (l *CampaignLogic) Campaigns() []*campaign.Campaign {
	return l.registry.List()
}

// Restore 启动时从投影重建全部活动
func (l *CampaignLogic) Restore() (int, error) {
	states, err := loadStates(l.db)
	if err != nil {
		return 0, err
	}
	for _, state := range states {
		if _, err := l.registry.Restore(state); err != nil {
			return 0, fmt.Errorf("恢复活动 %s 失败: %w", state.Handle.Hex(), err)
		}
	}
	return len(states), nil
}
