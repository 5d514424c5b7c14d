// Package access 提供活动的所有者校验与全局暂停开关。
package access

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

// PauseSwitch 进程级暂停开关，所有活动共享同一个实例
type PauseSwitch struct {
	paused atomic.Bool
}

// NewPauseSwitch 创建暂停开关，paused 为初始状态
func NewPauseSwitch(paused bool) *PauseSwitch {
	s := &PauseSwitch{}
	s.paused.Store(paused)
	return s
}

// Pause 暂停，返回调用前是否已经处于暂停状态
func (s *PauseSwitch) Pause() bool {
	return s.paused.Swap(true)
}

// Unpause 恢复，返回调用前是否处于暂停状态
func (s *PauseSwitch) Unpause() bool {
	return s.paused.Swap(false)
}

// Paused 当前是否暂停
func (s *PauseSwitch) Paused() bool {
	return s.paused.Load()
}

// Ownable 单个活动的访问控制，所有者在创建时确定且不可变更
type Ownable struct {
	owner common.Address
	pause *PauseSwitch
}

// NewOwnable 创建活动访问控制，pause 为 nil 时视为从不暂停
func NewOwnable(owner common.Address, pause *PauseSwitch) *Ownable {
	return &Ownable{owner: owner, pause: pause}
}

// Owner 所有者地址
func (o *Ownable) Owner() common.Address {
	return o.owner
}

// IsOwner caller 是否为所有者
func (o *Ownable) IsOwner(caller common.Address) bool {
	return caller != (common.Address{}) && caller == o.owner
}

// IsPaused 系统是否处于暂停状态
func (o *Ownable) IsPaused() bool {
	return o.pause != nil && o.pause.Paused()
}
