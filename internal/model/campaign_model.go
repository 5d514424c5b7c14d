package model

import (
	"time"
)

// CampaignModel 众筹活动投影
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Handle             string   `json:"handle" gorm:"uniqueIndex;size:42;not null"`
	OwnerAddress       string   `json:"owner_address" gorm:"index;size:42;not null"`
	Name               string   `json:"name" gorm:"not null"`
	Description        string   `json:"description" gorm:"type:text"`
	ExampleContentRefs []string `json:"example_content_refs" gorm:"serializer:json;type:text"`

	// 目标与奖池
	MinimumContentThreshold int64 `json:"minimum_content_threshold" gorm:"not null"`
	RewardPool              int64 `json:"reward_pool" gorm:"not null"`
	SubmittedCount          int64 `json:"submitted_count" gorm:"default:0"`
	ContributorCount        int64 `json:"contributor_count" gorm:"default:0"`

	// 时间信息
	DurationDays int64      `json:"duration_days" gorm:"default:0"`
	EndTime      *time.Time `json:"end_time"`

	// 状态
	Phase CampaignPhase `json:"phase" gorm:"size:16;default:'created'"`
}

// CampaignPhase 活动阶段
type CampaignPhase string

const (
	CampaignPhaseCreated CampaignPhase = "created" // 已创建
	CampaignPhaseActive  CampaignPhase = "active"  // 进行中
	CampaignPhaseClosed  CampaignPhase = "closed"  // 已关闭
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
