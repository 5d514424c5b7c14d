package model

import (
	"time"
)

// ContentModel 贡献者提交的内容引用
type ContentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignHandle     string `json:"campaign_handle" gorm:"uniqueIndex:idx_content_campaign_seq;size:42;not null"`
	Seq                int    `json:"seq" gorm:"uniqueIndex:idx_content_campaign_seq;not null"` // 活动内提交顺序
	ContributorAddress string `json:"contributor_address" gorm:"index;size:42;not null"`
	ContentRef         string `json:"content_ref" gorm:"type:text;not null"`
}

// TableName 自定义表名
func (ContentModel) TableName() string {
	return "content"
}
