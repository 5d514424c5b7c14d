package model

import (
	"time"
)

// EventModel 活动通知记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignHandle string    `json:"campaign_handle" gorm:"index:idx_event_campaign_seq,priority:1;size:42;not null"`
	Seq            int64     `json:"seq" gorm:"index:idx_event_campaign_seq,priority:2;not null;default:0"` // 活动内的状态变更序号
	EventType      string    `json:"event_type" gorm:"size:32;not null"`
	Data           string    `json:"data" gorm:"type:text"`
	OccurredAt     time.Time `json:"occurred_at" gorm:"not null"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
