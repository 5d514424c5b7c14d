package logic

import (
	"encoding/json"
	"fmt"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/blues/crowdcampaign/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// EventLogic 活动通知的持久化与查询
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// Notify 实现 campaign.Notifier，写入失败只记录日志，不影响已生效的操作
func (e *EventLogic) Notify(event campaign.Event) {
	if err := e.CreateEvent(event); err != nil {
		logger.Error("Failed to persist %s event for campaign %s: %v", event.Type, event.Campaign.Hex(), err)
	}
}

// CreateEvent 创建事件记录
func (e *EventLogic) CreateEvent(event campaign.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	row := model.EventModel{
		CampaignHandle: event.Campaign.Hex(),
		Seq:            int64(event.Seq),
		EventType:      string(event.Type),
		Data:           string(data),
		OccurredAt:     event.OccurredAt,
	}
	if err := e.db.Create(&row).Error; err != nil {
		return fmt.Errorf("创建事件记录失败: %w", err)
	}
	return nil
}

// GetEvents 按状态变更顺序分页获取活动事件
func (e *EventLogic) GetEvents(handle common.Address, eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	query := e.db.Model(&model.EventModel{}).Where("campaign_handle = ?", handle.Hex())
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("seq ASC, id ASC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}
	return events, total, nil
}
