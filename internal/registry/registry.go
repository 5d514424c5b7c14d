// Package registry 创建活动实例并按句柄、所有者索引。
//
// 句柄按工厂地址与递增 nonce 派生，与合约工厂部署子合约得到的地址一致。
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blues/crowdcampaign/internal/access"
	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrNotFound 句柄未登记
	ErrNotFound = errors.New("活动不存在")
	// ErrDuplicateHandle 恢复时句柄重复
	ErrDuplicateHandle = errors.New("活动句柄重复")
)

// Options 注册表依赖
type Options struct {
	Factory    common.Address
	Pause      *access.PauseSwitch
	Transferer campaign.Transferer
	Notifier   campaign.Notifier
	Now        func() time.Time
	// OnCreate 在活动登记前调用，返回错误时放弃本次创建
	OnCreate func(c *campaign.Campaign) error
}

// Registry 活动注册表
type Registry struct {
	mu        sync.RWMutex
	opts      Options
	nonce     uint64
	campaigns map[common.Address]*campaign.Campaign
	order     []common.Address
	byOwner   map[common.Address][]common.Address
}

// New 创建注册表
func New(opts Options) *Registry {
	if opts.Pause == nil {
		opts.Pause = access.NewPauseSwitch(false)
	}
	return &Registry{
		opts:      opts,
		campaigns: make(map[common.Address]*campaign.Campaign),
		byOwner:   make(map[common.Address][]common.Address),
	}
}

func (r *Registry) deps(owner common.Address) campaign.Dependencies {
	return campaign.Dependencies{
		Gate:       access.NewOwnable(owner, r.opts.Pause),
		Transferer: r.opts.Transferer,
		Notifier:   r.opts.Notifier,
		Now:        r.opts.Now,
	}
}

// nextHandle 派生下一个未占用的句柄，调用方需持有写锁
func (r *Registry) nextHandle() common.Address {
	for {
		handle := crypto.CreateAddress(r.opts.Factory, r.nonce)
		r.nonce++
		if _, ok := r.campaigns[handle]; !ok {
			return handle
		}
	}
}

func (r *Registry) add(c *campaign.Campaign) {
	r.campaigns[c.Handle()] = c
	r.order = append(r.order, c.Handle())
	r.byOwner[c.Owner()] = append(r.byOwner[c.Owner()], c.Handle())
}

// Create 由 caller 创建活动并托管 deposit
func (r *Registry) Create(caller common.Address, input campaign.CreateInput, deposit int64) (*campaign.Campaign, error) {
	return r.CreateWith(caller, input, deposit, r.opts.OnCreate)
}

// CreateWith 与 Create 相同，但用 admit 代替 Options.OnCreate 决定是否接纳新活动
func (r *Registry) CreateWith(caller common.Address, input campaign.CreateInput, deposit int64, admit func(c *campaign.Campaign) error) (*campaign.Campaign, error) {
	if r.opts.Pause.Paused() {
		return nil, campaign.ErrPaused
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	nonce := r.nonce
	handle := r.nextHandle()
	c, err := campaign.New(handle, caller, input, deposit, r.deps(caller))
	if err == nil && admit != nil {
		err = admit(c)
	}
	if err != nil {
		r.nonce = nonce
		return nil, err
	}
	r.add(c)
	return c, nil
}

// Restore 从快照恢复活动并重新登记
func (r *Registry) Restore(state campaign.State) (*campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.campaigns[state.Handle]; ok {
		return nil, ErrDuplicateHandle
	}
	c, err := campaign.Restore(state, r.deps(state.Owner))
	if err != nil {
		return nil, err
	}
	r.add(c)
	return c, nil
}

// IsKnown 句柄是否由本注册表创建
func (r *Registry) IsKnown(handle common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.campaigns[handle]
	return ok
}

// Get 按句柄查找活动
func (r *Registry) Get(handle common.Address) (*campaign.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Details 代理到活动实例的详情查询
func (r *Registry) Details(handle common.Address) (campaign.Details, error) {
	c, err := r.Get(handle)
	if err != nil {
		return campaign.Details{}, err
	}
	return c.Details(), nil
}

// Close 仅允许活动所有者通过注册表关闭活动
func (r *Registry) Close(ctx context.Context, caller, handle, receiver common.Address) (*campaign.Disbursement, error) {
	c, err := r.Get(handle)
	if err != nil {
		return nil, err
	}
	if caller != c.Owner() {
		return nil, campaign.ErrNotOwner
	}
	return c.Close(ctx, caller, receiver)
}

// Cancel 仅允许活动所有者通过注册表中止活动
func (r *Registry) Cancel(caller, handle common.Address) error {
	c, err := r.Get(handle)
	if err != nil {
		return err
	}
	if caller != c.Owner() {
		return campaign.ErrNotOwner
	}
	return c.Cancel(caller)
}

// ByOwner 按创建顺序返回 owner 名下的活动句柄
func (r *Registry) ByOwner(owner common.Address) []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]common.Address(nil), r.byOwner[owner]...)
}

// List 按创建顺序返回全部活动
func (r *Registry) List() []*campaign.Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*campaign.Campaign, 0, len(r.order))
	for _, handle := range r.order {
		out = append(out, r.campaigns[handle])
	}
	return out
}

// Len 活动数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Pause 暴露共享的暂停开关
func (r *Registry) Pause() *access.PauseSwitch {
	return r.opts.Pause
}
