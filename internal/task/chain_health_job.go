package task

import (
	"context"
	"time"

	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// HealthChecker 链上节点健康检查
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// ChainHealthJob 定期检查链上发放节点，异常时告警
type ChainHealthJob struct {
	checker  HealthChecker
	interval time.Duration
}

func NewChainHealthJob(checker HealthChecker, interval time.Duration) *ChainHealthJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ChainHealthJob{checker: checker, interval: interval}
}

// GetName 获取任务名称
func (j *ChainHealthJob) GetName() string {
	return "chain_health_check"
}

// GetSchedule 获取调度配置
func (j *ChainHealthJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *ChainHealthJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := j.checker.GetHealthStatus(ctx)
	if status["client_status"] != "connected" {
		logger.Warn("Chain endpoint unhealthy: %v", status)
		return
	}
	logger.Debug("Chain endpoint healthy: %v", status)
}
