package model

import (
	"time"
)

// FundingModel 链上押金交易，一笔交易只能为一个活动出资
type FundingModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TxHash         string `json:"tx_hash" gorm:"uniqueIndex;size:66;not null"`
	CampaignHandle string `json:"campaign_handle" gorm:"uniqueIndex;size:42;not null"`
	CreatorAddress string `json:"creator_address" gorm:"index;size:42;not null"`
	Amount         int64  `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (FundingModel) TableName() string {
	return "funding"
}
