package model

import (
	"time"
)

// DisbursementModel 奖池发放记录，每个活动至多一条
type DisbursementModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignHandle  string    `json:"campaign_handle" gorm:"uniqueIndex;size:42;not null"`
	ReceiverAddress string    `json:"receiver_address" gorm:"index;size:42;not null"`
	Amount          int64     `json:"amount" gorm:"not null"`
	Backend         string    `json:"backend" gorm:"size:16;not null"` // ledger, chain
	DisbursedAt     time.Time `json:"disbursed_at" gorm:"not null"`
}

// TableName 自定义表名
func (DisbursementModel) TableName() string {
	return "disbursement"
}
