package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blues/crowdcampaign/internal/access"
	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")

type nopTransferer struct{}

func (nopTransferer) Transfer(ctx context.Context, from, to common.Address, amount int64) error {
	return nil
}

type recordingSource struct {
	reg *registry.Registry

	mu        sync.Mutex
	persisted map[common.Address]campaign.Phase
	failFor   common.Address
}

func (s *recordingSource) Campaigns() []*campaign.Campaign {
	return s.reg.List()
}

func (s *recordingSource) Persist(c *campaign.Campaign) error {
	if c.Handle() == s.failFor {
		return errors.New("database is locked")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted[c.Handle()] = c.Details().Phase
	return nil
}

type recordingGauge struct {
	counts map[campaign.Phase]int
}

func (g *recordingGauge) SetPhaseCounts(counts map[campaign.Phase]int) {
	g.counts = counts
}

func newRegistry(now *time.Time) *registry.Registry {
	return registry.New(registry.Options{
		Factory:    common.HexToAddress("0x000000000000000000000000000000000000cf01"),
		Pause:      access.NewPauseSwitch(false),
		Transferer: nopTransferer{},
		Now:        func() time.Time { return *now },
	})
}

func create(t *testing.T, reg *registry.Registry) *campaign.Campaign {
	t.Helper()
	c, err := reg.Create(owner, campaign.CreateInput{
		Name:                    "Night market",
		Description:             "Stalls after dark",
		ExampleContentRefs:      []string{"r1"},
		MinimumContentThreshold: 10,
	}, 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestCampaignSyncPersistsAll(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := newRegistry(&now)
	source := &recordingSource{reg: reg, persisted: map[common.Address]campaign.Phase{}}

	idle := create(t, reg)
	running := create(t, reg)
	if _, err := running.Start(owner, 7); err != nil {
		t.Fatalf("start: %v", err)
	}
	closed := create(t, reg)
	if _, err := reg.Close(context.Background(), owner, closed.Handle(), common.HexToAddress("0xd1")); err != nil {
		t.Fatalf("close: %v", err)
	}

	now = now.Add(8 * 24 * time.Hour)

	gauge := &recordingGauge{}
	report, err := NewCampaignSyncJob(source, gauge, time.Second, 2).Sync()
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Total != 3 || report.Failed != 0 || report.Expired != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(source.persisted) != 3 {
		t.Fatalf("expected 3 campaigns persisted, got %d", len(source.persisted))
	}
	if source.persisted[idle.Handle()] != campaign.PhaseCreated {
		t.Fatal("expected idle campaign persisted as created")
	}
	want := map[campaign.Phase]int{campaign.PhaseCreated: 1, campaign.PhaseActive: 1, campaign.PhaseClosed: 1}
	for phase, n := range want {
		if gauge.counts[phase] != n {
			t.Fatalf("expected %d %s campaigns, got %d", n, phase, gauge.counts[phase])
		}
	}

	// 过期的活动保持进行中，由所有者关闭
	if running.Details().Phase != campaign.PhaseActive {
		t.Fatal("expected sync to leave expired campaign active")
	}
}

func TestCampaignSyncCountsFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := newRegistry(&now)
	first := create(t, reg)
	create(t, reg)
	source := &recordingSource{reg: reg, persisted: map[common.Address]campaign.Phase{}, failFor: first.Handle()}

	report, err := NewCampaignSyncJob(source, nil, 0, 0).Sync()
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Failed != 1 || len(source.persisted) != 1 {
		t.Fatalf("expected one failure and one persisted, got %+v / %d", report, len(source.persisted))
	}
}

func TestCampaignSyncEmpty(t *testing.T) {
	now := time.Now()
	gauge := &recordingGauge{}
	source := &recordingSource{reg: newRegistry(&now), persisted: map[common.Address]campaign.Phase{}}

	report, err := NewCampaignSyncJob(source, gauge, time.Second, 4).Sync()
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Total != 0 || gauge.counts == nil {
		t.Fatalf("expected empty report with published gauge, got %+v", report)
	}
}

type fakeChecker struct{ calls int }

func (f *fakeChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	f.calls++
	return map[string]interface{}{"client_status": "disconnected"}
}

func TestManagerRunsJobs(t *testing.T) {
	checker := &fakeChecker{}
	job := NewChainHealthJob(checker, time.Hour)
	if job.GetName() != "chain_health_check" {
		t.Fatalf("unexpected job name %q", job.GetName())
	}
	job.Execute()
	if checker.calls != 1 {
		t.Fatalf("expected one health check, got %d", checker.calls)
	}

	m, err := NewManager(job)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.Start()
	m.Stop()
}

// overlapJob 记录执行次数以及是否出现并发执行
type overlapJob struct {
	running  atomic.Int32
	runs     atomic.Int32
	overlaps atomic.Int32
}

func (j *overlapJob) GetName() string { return "overlap" }

func (j *overlapJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(5 * time.Millisecond)
}

func (j *overlapJob) Execute() {
	if j.running.Add(1) > 1 {
		j.overlaps.Add(1)
	}
	time.Sleep(10 * time.Millisecond)
	j.runs.Add(1)
	j.running.Add(-1)
}

func TestManagerDrainRunsFinalAfterScheduler(t *testing.T) {
	job := &overlapJob{}
	m, err := NewManager(job)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.Start()
	time.Sleep(40 * time.Millisecond)

	m.Drain(job)
	if job.overlaps.Load() != 0 {
		t.Fatalf("expected final run not to overlap scheduled runs, got %d overlaps", job.overlaps.Load())
	}
	if job.running.Load() != 0 {
		t.Fatal("expected no run in flight after drain")
	}

	after := job.runs.Load()
	if after == 0 {
		t.Fatal("expected final run to execute")
	}
	time.Sleep(30 * time.Millisecond)
	if job.runs.Load() != after {
		t.Fatalf("expected no scheduled run after drain, got %d more", job.runs.Load()-after)
	}
}
