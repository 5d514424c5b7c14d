package task

import (
	"sync"
	"time"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
)

// CampaignSource 同步任务需要的活动读写能力
type CampaignSource interface {
	Campaigns() []*campaign.Campaign
	Persist(c *campaign.Campaign) error
}

// PhaseGauge 按阶段上报活动数量
type PhaseGauge interface {
	SetPhaseCounts(counts map[campaign.Phase]int)
}

// SyncReport 一轮同步的结果
type SyncReport struct {
	Total   int
	Failed  int
	Expired int
	Phases  map[campaign.Phase]int
}

// CampaignSyncJob 周期性把内存中的活动写入投影并刷新指标。
// 只读取活动状态，从不触发状态变更。
type CampaignSyncJob struct {
	source   CampaignSource
	gauge    PhaseGauge
	interval time.Duration
	workers  int
}

// NewCampaignSyncJob 创建活动同步任务
func NewCampaignSyncJob(source CampaignSource, gauge PhaseGauge, interval time.Duration, workers int) *CampaignSyncJob {
	if interval <= 0 {
		interval = time.Minute
	}
	if workers <= 0 {
		workers = 1
	}
	return &CampaignSyncJob{
		source:   source,
		gauge:    gauge,
		interval: interval,
		workers:  workers,
	}
}

// GetName 获取任务名称
func (j *CampaignSyncJob) GetName() string {
	return "campaign_projection_sync"
}

// GetSchedule 获取调度配置
func (j *CampaignSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *CampaignSyncJob) Execute() {
	report, err := j.Sync()
	if err != nil {
		logger.Error("Campaign sync aborted: %v", err)
		return
	}
	logger.Info("Campaign sync finished: total=%d failed=%d expired=%d", report.Total, report.Failed, report.Expired)
}

// Sync 并发写入全部活动快照
func (j *CampaignSyncJob) Sync() (SyncReport, error) {
	list := j.source.Campaigns()
	report := SyncReport{
		Total:  len(list),
		Phases: map[campaign.Phase]int{},
	}
	if len(list) == 0 {
		j.publish(report.Phases)
		return report, nil
	}

	pool, err := ants.NewPool(j.workers)
	if err != nil {
		return report, err
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range list {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			details := c.Details()
			expired := details.Phase == campaign.PhaseActive && c.Expired()
			if expired {
				logger.Warn("Campaign %s has passed its end time and awaits close by owner", details.Handle.Hex())
			}
			persistErr := j.source.Persist(c)
			if persistErr != nil {
				logger.Error("Failed to sync campaign %s: %v", details.Handle.Hex(), persistErr)
			}

			mu.Lock()
			report.Phases[details.Phase]++
			if expired {
				report.Expired++
			}
			if persistErr != nil {
				report.Failed++
			}
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit sync task to pool: %v", err)
			mu.Lock()
			report.Failed++
			mu.Unlock()
		}
	}
	wg.Wait()

	j.publish(report.Phases)
	return report, nil
}

func (j *CampaignSyncJob) publish(phases map[campaign.Phase]int) {
	if j.gauge != nil {
		j.gauge.SetPhaseCounts(phases)
	}
}
