package logic

import (
	"fmt"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveState 把快照写入投影表。贡献者与内容只追加，已写入的行不会改变
func saveState(tx *gorm.DB, state campaign.State) error {
	row := model.CampaignModel{
		CreatedAt:               state.CreatedAt,
		Handle:                  state.Handle.Hex(),
		OwnerAddress:            state.Owner.Hex(),
		Name:                    state.Name,
		Description:             state.Description,
		ExampleContentRefs:      state.ExampleContentRefs,
		MinimumContentThreshold: state.MinimumContentThreshold,
		RewardPool:              state.RewardPool,
		SubmittedCount:          int64(len(state.Submissions)),
		ContributorCount:        int64(len(state.Contributors)),
		DurationDays:            state.DurationDays,
		Phase:                   model.CampaignPhase(state.Phase.String()),
	}
	if !state.EndTime.IsZero() {
		endTime := state.EndTime
		row.EndTime = &endTime
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "handle"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "reward_pool", "submitted_count", "contributor_count",
			"duration_days", "end_time", "phase",
		}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("保存活动投影失败: %w", err)
	}

	handle := state.Handle.Hex()

	var contributorCount int64
	if err := tx.Model(&model.ContributorModel{}).Where("campaign_handle = ?", handle).Count(&contributorCount).Error; err != nil {
		return fmt.Errorf("统计贡献者失败: %w", err)
	}
	if int(contributorCount) < len(state.Contributors) {
		rows := make([]model.ContributorModel, 0, len(state.Contributors)-int(contributorCount))
		for i := int(contributorCount); i < len(state.Contributors); i++ {
			rows = append(rows, model.ContributorModel{
				CampaignHandle: handle,
				Address:        state.Contributors[i].Hex(),
				Seq:            i,
			})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("保存贡献者失败: %w", err)
		}
	}

	var contentCount int64
	if err := tx.Model(&model.ContentModel{}).Where("campaign_handle = ?", handle).Count(&contentCount).Error; err != nil {
		return fmt.Errorf("统计内容失败: %w", err)
	}
	if int(contentCount) < len(state.Submissions) {
		rows := make([]model.ContentModel, 0, len(state.Submissions)-int(contentCount))
		for i := int(contentCount); i < len(state.Submissions); i++ {
			rows = append(rows, model.ContentModel{
				CampaignHandle:     handle,
				Seq:                i,
				ContributorAddress: state.Submissions[i].Identity.Hex(),
				ContentRef:         state.Submissions[i].ContentRef,
			})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("保存内容失败: %w", err)
		}
	}
	return nil
}

// loadStates 按创建顺序读出全部活动快照
func loadStates(db *gorm.DB) ([]campaign.State, error) {
	var rows []model.CampaignModel
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取活动投影失败: %w", err)
	}

	states := make([]campaign.State, 0, len(rows))
	for _, row := range rows {
		phase, ok := campaign.ParsePhase(string(row.Phase))
		if !ok {
			return nil, fmt.Errorf("活动 %s 的阶段无效: %s", row.Handle, row.Phase)
		}
		state := campaign.State{
			Handle:                  common.HexToAddress(row.Handle),
			Owner:                   common.HexToAddress(row.OwnerAddress),
			Name:                    row.Name,
			Description:             row.Description,
			ExampleContentRefs:      row.ExampleContentRefs,
			MinimumContentThreshold: row.MinimumContentThreshold,
			RewardPool:              row.RewardPool,
			Phase:                   phase,
			DurationDays:            row.DurationDays,
			CreatedAt:               row.CreatedAt,
		}
		if row.EndTime != nil {
			state.EndTime = *row.EndTime
		}

		var contributors []model.ContributorModel
		if err := db.Where("campaign_handle = ?", row.Handle).Order("seq ASC").Find(&contributors).Error; err != nil {
			return nil, fmt.Errorf("获取贡献者失败: %w", err)
		}
		for _, c := range contributors {
			state.Contributors = append(state.Contributors, common.HexToAddress(c.Address))
		}

		var contents []model.ContentModel
		if err := db.Where("campaign_handle = ?", row.Handle).Order("seq ASC").Find(&contents).Error; err != nil {
			return nil, fmt.Errorf("获取内容失败: %w", err)
		}
		for _, c := range contents {
			state.Submissions = append(state.Submissions, campaign.Submission{
				Identity:   common.HexToAddress(c.ContributorAddress),
				ContentRef: c.ContentRef,
			})
		}
		states = append(states, state)
	}
	return states, nil
}
