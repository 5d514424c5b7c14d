package model

import (
	"time"
)

// ContributorModel 活动贡献者
type ContributorModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignHandle string `json:"campaign_handle" gorm:"uniqueIndex:idx_contributor_campaign_address;size:42;not null"`
	Address        string `json:"address" gorm:"uniqueIndex:idx_contributor_campaign_address;size:42;not null"`
	Seq            int    `json:"seq" gorm:"not null"` // 注册顺序
}

// TableName 自定义表名
func (ContributorModel) TableName() string {
	return "contributor"
}
