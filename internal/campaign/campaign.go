// Package campaign 实现单个众筹活动的生命周期状态机、贡献者账本与奖池托管发放。
//
// 活动上的每个变更操作都在同一把锁内完成检查与生效，要么全部生效要么不产生任何变化。
// 唯一会把控制权交给外部的是奖池转账：转账前终态（奖池清零、阶段关闭）已经提交并释放锁，
// 转账期间的任何重入调用看到的都是已关闭的活动；转账失败时整体回滚。
package campaign

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// MinDurationDays 活动最短时长
	MinDurationDays = 7
	// MaxDurationDays 活动最长时长，避免结束时间溢出
	MaxDurationDays = 3650
	// SecondsPerDay 一天的秒数
	SecondsPerDay = 86400
	// PerformingPercent 活动被视为表现达标的提交比例
	PerformingPercent = 80
)

// AccessGate 访问控制能力：所有者判断与全局暂停
type AccessGate interface {
	IsOwner(caller common.Address) bool
	IsPaused() bool
}

// Transferer 执行奖池转账的外部交互
type Transferer interface {
	Transfer(ctx context.Context, from, to common.Address, amount int64) error
}

// CreateInput 创建活动参数
type CreateInput struct {
	Name                    string
	Description             string
	ExampleContentRefs      []string
	MinimumContentThreshold int64
}

// Dependencies 活动依赖的外部能力
type Dependencies struct {
	Gate       AccessGate
	Transferer Transferer
	Notifier   Notifier
	Now        func() time.Time
}

// Campaign 众筹活动
type Campaign struct {
	mu sync.Mutex

	handle      common.Address
	owner       common.Address
	name        string
	description string
	exampleRefs []string
	threshold   int64
	createdAt   time.Time

	rewardPool int64
	phase      Phase

	durationDays int64
	endTime      time.Time // 启动前为零值

	contributors  []common.Address
	contributions map[common.Address][]string
	allContent    []Submission

	gate       AccessGate
	transferer Transferer
	notifier   Notifier
	now        func() time.Time
}

// Submission 一次内容提交
type Submission struct {
	Identity   common.Address
	ContentRef string
}

// New 创建活动，deposit 为创建时托管的奖池金额
func New(handle, owner common.Address, input CreateInput, deposit int64, deps Dependencies) (*Campaign, error) {
	if err := validateCreateInput(owner, input, deposit); err != nil {
		return nil, err
	}
	c, err := newCampaign(handle, owner, deps)
	if err != nil {
		return nil, err
	}

	c.name = input.Name
	c.description = input.Description
	c.exampleRefs = append([]string(nil), input.ExampleContentRefs...)
	c.threshold = input.MinimumContentThreshold
	c.rewardPool = deposit
	c.phase = PhaseCreated
	c.createdAt = c.now()
	return c, nil
}

func newCampaign(handle, owner common.Address, deps Dependencies) (*Campaign, error) {
	if deps.Gate == nil {
		return nil, errors.New("campaign: access gate is required")
	}
	if deps.Transferer == nil {
		return nil, errors.New("campaign: transferer is required")
	}
	c := &Campaign{
		handle:        handle,
		owner:         owner,
		contributions: make(map[common.Address][]string),
		gate:          deps.Gate,
		transferer:    deps.Transferer,
		notifier:      deps.Notifier,
		now:           deps.Now,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// validateCreateInput 验证创建参数
func validateCreateInput(owner common.Address, input CreateInput, deposit int64) error {
	if owner == (common.Address{}) {
		return ErrInvalidOwner
	}
	if strings.TrimSpace(input.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(input.Description) == "" {
		return ErrEmptyDescription
	}
	if len(input.ExampleContentRefs) == 0 {
		return ErrNoExampleContent
	}
	for _, ref := range input.ExampleContentRefs {
		if strings.TrimSpace(ref) == "" {
			return ErrEmptyContentRef
		}
	}
	if input.MinimumContentThreshold <= 0 || input.MinimumContentThreshold > math.MaxInt64/PerformingPercent {
		return ErrInvalidThreshold
	}
	if deposit <= 0 {
		return ErrInvalidDeposit
	}
	return nil
}

// Handle 活动句柄
func (c *Campaign) Handle() common.Address {
	return c.handle
}

// Owner 活动所有者
func (c *Campaign) Owner() common.Address {
	return c.owner
}

// Phase 当前阶段
func (c *Campaign) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// RewardPool 当前奖池金额
func (c *Campaign) RewardPool() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rewardPool
}

// transition 推进阶段，调用方需持有锁
func (c *Campaign) transition(to Phase) {
	if !canTransition(c.phase, to) {
		panic("campaign: illegal phase transition " + c.phase.String() + " -> " + to.String())
	}
	c.phase = to
}

// expired 是否已到结束时间，调用方需持有锁
func (c *Campaign) expired(now time.Time) bool {
	return !c.endTime.IsZero() && !now.Before(c.endTime)
}

// State 活动完整快照，用于持久化与恢复
type State struct {
	Handle                  common.Address
	Owner                   common.Address
	Name                    string
	Description             string
	ExampleContentRefs      []string
	MinimumContentThreshold int64
	RewardPool              int64
	Phase                   Phase
	DurationDays            int64
	EndTime                 time.Time
	CreatedAt               time.Time
	Contributors            []common.Address
	Submissions             []Submission
}

// Snapshot 导出完整快照
func (c *Campaign) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Handle:                  c.handle,
		Owner:                   c.owner,
		Name:                    c.name,
		Description:             c.description,
		ExampleContentRefs:      append([]string(nil), c.exampleRefs...),
		MinimumContentThreshold: c.threshold,
		RewardPool:              c.rewardPool,
		Phase:                   c.phase,
		DurationDays:            c.durationDays,
		EndTime:                 c.endTime,
		CreatedAt:               c.createdAt,
		Contributors:            append([]common.Address(nil), c.contributors...),
		Submissions:             append([]Submission(nil), c.allContent...),
	}
}

// Restore 从快照重建活动
func Restore(state State, deps Dependencies) (*Campaign, error) {
	input := CreateInput{
		Name:                    state.Name,
		Description:             state.Description,
		ExampleContentRefs:      state.ExampleContentRefs,
		MinimumContentThreshold: state.MinimumContentThreshold,
	}
	// 奖池可能已发放为0，这里只校验其余创建参数
	if err := validateCreateInput(state.Owner, input, 1); err != nil {
		return nil, err
	}
	if state.RewardPool < 0 {
		return nil, ErrInvalidRestoreState
	}
	switch state.Phase {
	case PhaseCreated:
		if state.RewardPool == 0 || len(state.Submissions) > 0 || !state.EndTime.IsZero() {
			return nil, ErrInvalidRestoreState
		}
	case PhaseActive:
		if state.RewardPool == 0 || state.EndTime.IsZero() {
			return nil, ErrInvalidRestoreState
		}
	case PhaseClosed:
	default:
		return nil, ErrInvalidRestoreState
	}

	c, err := newCampaign(state.Handle, state.Owner, deps)
	if err != nil {
		return nil, err
	}
	c.name = state.Name
	c.description = state.Description
	c.exampleRefs = append([]string(nil), state.ExampleContentRefs...)
	c.threshold = state.MinimumContentThreshold
	c.rewardPool = state.RewardPool
	c.phase = state.Phase
	c.durationDays = state.DurationDays
	c.endTime = state.EndTime
	c.createdAt = state.CreatedAt

	for _, identity := range state.Contributors {
		if _, ok := c.contributions[identity]; ok {
			return nil, ErrInvalidRestoreState
		}
		c.contributors = append(c.contributors, identity)
		c.contributions[identity] = nil
	}
	for _, s := range state.Submissions {
		refs, ok := c.contributions[s.Identity]
		if !ok {
			return nil, ErrInvalidRestoreState
		}
		c.contributions[s.Identity] = append(refs, s.ContentRef)
		c.allContent = append(c.allContent, s)
	}
	return c, nil
}
