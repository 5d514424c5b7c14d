// Package metrics 暴露活动操作、通知与发放金额的 Prometheus 指标。
package metrics

import (
	"errors"
	"net/http"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crowdcampaign"

// Metrics 指标集合，使用独立的 Registry 以便测试
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	events     *prometheus.CounterVec
	disbursed  prometheus.Counter
	campaigns  *prometheus.GaugeVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Campaign operations by name and result.",
		}, []string{"operation", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Campaign notifications by type.",
		}, []string{"type"}),
		disbursed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disbursed_amount_total",
			Help:      "Reward pool value released to receivers.",
		}),
		campaigns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "campaigns",
			Help:      "Campaigns by lifecycle phase.",
		}, []string{"phase"}),
	}
	m.registry.MustRegister(
		m.operations,
		m.events,
		m.disbursed,
		m.campaigns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe 记录一次操作结果，result 为 ok 或错误分类
func (m *Metrics) Observe(operation string, err error) {
	m.operations.WithLabelValues(operation, Result(err)).Inc()
}

// Result 把错误映射为指标标签
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	var domainErr *campaign.Error
	if errors.As(err, &domainErr) {
		return string(domainErr.Kind)
	}
	return "internal"
}

// Notify 实现 campaign.Notifier
func (m *Metrics) Notify(event campaign.Event) {
	m.events.WithLabelValues(string(event.Type)).Inc()
	if event.Type == campaign.EventCampaignClosed {
		m.disbursed.Add(float64(event.Amount))
	}
}

// SetPhaseCounts 用同步任务统计的数量覆盖阶段仪表
func (m *Metrics) SetPhaseCounts(counts map[campaign.Phase]int) {
	for _, phase := range []campaign.Phase{campaign.PhaseCreated, campaign.PhaseActive, campaign.PhaseClosed} {
		m.campaigns.WithLabelValues(phase.String()).Set(float64(counts[phase]))
	}
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
