package campaign

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType 活动通知类型
type EventType string

const (
	EventCampaignStarted       EventType = "CampaignStarted"
	EventContributorRegistered EventType = "ContributorRegistered"
	EventContentSubmitted      EventType = "ContentSubmitted"
	EventCampaignCanceled      EventType = "CampaignCanceled"
	EventCampaignClosed        EventType = "CampaignClosed"
)

// Event 活动通知，字段按类型填充。
// Seq 在活动锁内分配，同一活动的通知按 Seq 排序即为状态变更的顺序。
type Event struct {
	Seq        uint64         `json:"seq"`
	Type       EventType      `json:"type"`
	Campaign   common.Address `json:"campaign"`
	Owner      common.Address `json:"owner,omitempty"`
	Identity   common.Address `json:"identity,omitempty"`
	Receiver   common.Address `json:"receiver,omitempty"`
	ContentRef string         `json:"content_ref,omitempty"`
	Amount     int64          `json:"amount,omitempty"`
	EndTime    time.Time      `json:"end_time,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Notifier 接收活动通知。通知在释放活动锁之后发出，
// 并发操作的通知到达顺序可能与 Seq 不一致。
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc 函数适配器
type NotifierFunc func(event Event)

func (f NotifierFunc) Notify(event Event) {
	f(event)
}

// Notifiers 依次分发给多个接收者
type Notifiers []Notifier

func (ns Notifiers) Notify(event Event) {
	for _, n := range ns {
		n.Notify(event)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
