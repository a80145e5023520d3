package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stationery/pkg/core/config"
	errorc "stationery/pkg/core/err"
	"stationery/pkg/monitoring/models"
	"stationery/pkg/monitoring/storage"
	"stationery/pkg/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSampler struct {
	mu    sync.Mutex
	cpu   float64
	empty bool
	calls int32
}

func (s *stubSampler) Sample(context.Context) *models.MetricSample {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.empty {
		return nil
	}
	sample := &models.MetricSample{Timestamp: time.Now()}
	sample.System.CPUPercent = s.cpu
	return sample
}

func (s *stubSampler) Calls() int32 {
	return atomic.LoadInt32(&s.calls)
}

type stubProber struct {
	calls int32
}

func (p *stubProber) Probe(context.Context) models.HealthReport {
	atomic.AddInt32(&p.calls, 1)
	return models.HealthReport{
		Timestamp: time.Now(),
		Status:    models.StatusHealthy,
		Services: &models.ServiceHealth{
			Database:    models.ServiceHealthy,
			Application: models.ServiceHealthy,
			Filesystem:  models.ServiceHealthy,
			Network:     models.ServiceNotConfigured,
		},
	}
}

func newTestApp(t *testing.T, cfg config.MonitorConfig, sampler *stubSampler) (*App, *stubProber) {
	metrics, err := storage.NewMetricStore(t.TempDir())
	require.NoError(t, err)
	reports, err := storage.NewReportStore(t.TempDir())
	require.NoError(t, err)

	prober := &stubProber{}
	a, err := New(Deps{
		Config:      cfg,
		Sampler:     sampler,
		MetricStore: metrics,
		ReportStore: reports,
		Prober:      prober,
	})
	require.NoError(t, err)
	return a, prober
}

func TestNew_ConfigThresholds(t *testing.T) {
	a, _ := newTestApp(t, config.MonitorConfig{Thresholds: map[string]float64{"cpu": 50}}, &stubSampler{})

	th := a.State.Thresholds()
	assert.Equal(t, 50.0, th.CPU)
	assert.Equal(t, 85.0, th.Memory)
	assert.Equal(t, 60, a.Status().Interval)
}

func TestNew_InvalidConfig(t *testing.T) {
	metrics, err := storage.NewMetricStore(t.TempDir())
	require.NoError(t, err)
	reports, err := storage.NewReportStore(t.TempDir())
	require.NoError(t, err)

	_, err = New(Deps{
		Config:      config.MonitorConfig{Thresholds: map[string]float64{"gpu": 10}},
		Sampler:     &stubSampler{},
		MetricStore: metrics,
		ReportStore: reports,
		Prober:      &stubProber{},
	})
	assert.Error(t, err)

	_, err = New(Deps{Sampler: &stubSampler{}, Prober: &stubProber{}})
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	sampler := &stubSampler{}
	a, _ := newTestApp(t, config.MonitorConfig{}, sampler)

	res := a.Start()
	assert.True(t, res.Success)
	assert.True(t, a.IsMonitoring())

	// 启动后立即有一轮采样
	assert.Eventually(t, func() bool {
		return a.State.LastMetrics() != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, a.Start().Success)

	assert.True(t, a.Stop().Success)
	assert.False(t, a.IsMonitoring())
	assert.False(t, a.Stop().Success)

	first := a.State.LastMetrics()
	before := sampler.Calls()
	assert.True(t, a.Start().Success)
	assert.Eventually(t, func() bool {
		return sampler.Calls() > before && a.State.LastMetrics() != first
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSampleTick_GatedByFlag(t *testing.T) {
	sampler := &stubSampler{}
	a, _ := newTestApp(t, config.MonitorConfig{}, sampler)

	require.NoError(t, a.sampleTick(context.Background()))
	assert.Equal(t, int32(0), sampler.Calls())

	a.State.SetMonitoring(true)
	require.NoError(t, a.sampleTick(context.Background()))
	assert.Equal(t, int32(1), sampler.Calls())
	assert.NotNil(t, a.State.LastMetrics())
}

func TestSetThresholds(t *testing.T) {
	a, _ := newTestApp(t, config.MonitorConfig{}, &stubSampler{})
	ctx := context.Background()

	v := 70.0
	merged, err := a.SetThresholds(ctx, models.ThresholdPatch{CPU: &v})
	require.NoError(t, err)
	assert.Equal(t, 70.0, merged.CPU)
	assert.Equal(t, 90.0, merged.Disk)
	assert.Equal(t, 70.0, a.Status().Thresholds.CPU)

	neg := -1.0
	_, err = a.SetThresholds(ctx, models.ThresholdPatch{Memory: &neg})
	require.Error(t, err)
	assert.Equal(t, 85.0, a.Status().Thresholds.Memory)
}

func TestCollectAndAlerts(t *testing.T) {
	sampler := &stubSampler{cpu: 95}
	a, _ := newTestApp(t, config.MonitorConfig{}, sampler)

	res, err := a.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.KindCPU, res.Alerts[0].Type)
	assert.Empty(t, res.Notifications)

	alerts := a.Alerts()
	assert.Equal(t, 1, alerts.Total)
	assert.Equal(t, 1, alerts.Counts.Warning)

	sampler.mu.Lock()
	sampler.cpu = 10
	sampler.mu.Unlock()

	_, err = a.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, a.Alerts().Total)
	assert.NotNil(t, a.Alerts().Alerts)
}

func TestCollect_FailedCycle(t *testing.T) {
	a, _ := newTestApp(t, config.MonitorConfig{}, &stubSampler{empty: true})

	_, err := a.Collect(context.Background())
	require.Error(t, err)
	var e *errorc.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errorc.ErrorCodeUnavailable, e.ErrorCode)
}

func TestLatestMetrics_NotFound(t *testing.T) {
	a, _ := newTestApp(t, config.MonitorConfig{}, &stubSampler{})

	_, err := a.LatestMetrics()
	require.Error(t, err)
	var e *errorc.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errorc.ErrorCodeNotFound, e.ErrorCode)
}

func TestDashboard(t *testing.T) {
	a, prober := newTestApp(t, config.MonitorConfig{Slack: config.SlackChannelConfig{Enabled: true}}, &stubSampler{})

	d := a.Dashboard(context.Background())
	require.NotNil(t, d.Health)
	assert.Equal(t, models.StatusHealthy, d.Health.Status)
	assert.Nil(t, d.LastCycleAt)
	assert.True(t, d.Status.AlertChannels["slack"])
	assert.False(t, d.Status.AlertChannels["email"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&prober.calls))

	_, err := a.Collect(context.Background())
	require.NoError(t, err)

	// 已有探测结果时不再重复探测
	d = a.Dashboard(context.Background())
	assert.NotNil(t, d.Metrics)
	assert.NotNil(t, d.LastCycleAt)
	assert.Equal(t, int32(1), atomic.LoadInt32(&prober.calls))
}

func TestHistoryAndDailyReport(t *testing.T) {
	a, _ := newTestApp(t, config.MonitorConfig{}, &stubSampler{})
	ctx := context.Background()

	history, err := a.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = a.DailyReport(ctx, "")
	require.Error(t, err)
	assert.True(t, errorc.IsNotFound(err))

	sample := &models.MetricSample{Timestamp: time.Now().AddDate(0, 0, -1)}
	sample.System.CPUPercent = 40
	require.NoError(t, a.metrics.Append(sample))

	summary, err := a.DailyReport(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, a.ReportService.Yesterday(), summary.Date)
	assert.Equal(t, 1, summary.SampleCount)

	history, err = a.History(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, summary.Date, history[0].Date)
}

func TestGuard_RecoversPanic(t *testing.T) {
	a, _ := newTestApp(t, config.MonitorConfig{}, &stubSampler{})

	fn := a.guard("boom", func(context.Context) error {
		panic("tick crashed")
	})
	assert.NotPanics(t, func() {
		assert.NoError(t, fn(context.Background()))
	})

	want := errors.New("failed")
	fn = a.guard("fail", func(context.Context) error { return want })
	assert.ErrorIs(t, fn(context.Background()), want)
}

func newRunningScheduler(t *testing.T) *scheduler.Scheduler {
	s := scheduler.NewScheduler(nil, &scheduler.SchedulerConfig{
		NodeID:        "monitoring-test",
		CheckInterval: 10 * time.Millisecond,
	})
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestRegisterTasks_RunWhileStopped(t *testing.T) {
	sampler := &stubSampler{}
	a, prober := newTestApp(t, config.MonitorConfig{
		HealthInterval: 1,
		ReportCron:     "* * * * * *",
		PruneCron:      "* * * * * *",
	}, sampler)
	s := newRunningScheduler(t)

	require.NoError(t, a.RegisterTasks(s))
	assert.Len(t, s.ListTasks(), 4)

	// 监控关闭时健康探测、日报、清理照常执行，采样不执行
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&prober.calls) >= 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return s.GetStats().DistributedTasks >= 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.False(t, a.IsMonitoring())
	assert.Equal(t, int32(0), sampler.Calls())
}

func TestRegisterTasks_InvalidCron(t *testing.T) {
	a, _ := newTestApp(t, config.MonitorConfig{ReportCron: "not a cron"}, &stubSampler{})
	s := newRunningScheduler(t)

	assert.Error(t, a.RegisterTasks(s))
}

func TestKickOff_FailedCycleRunsOnce(t *testing.T) {
	sampler := &stubSampler{empty: true}
	a, _ := newTestApp(t, config.MonitorConfig{}, sampler)
	s := newRunningScheduler(t)
	require.NoError(t, a.RegisterTasks(s))

	require.True(t, a.Start().Success)
	assert.Eventually(t, func() bool { return sampler.Calls() >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), sampler.Calls())
	assert.Nil(t, a.State.LastMetrics())

	// 周期任务之外不应残留首轮任务
	assert.Len(t, s.ListTasks(), 4)
	assert.True(t, a.Stop().Success)
}

func TestKickOff_SkippedAfterStop(t *testing.T) {
	sampler := &stubSampler{}
	a, _ := newTestApp(t, config.MonitorConfig{}, sampler)

	a.State.SetMonitoring(true)
	a.State.SetMonitoring(false)
	a.kickOff()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), sampler.Calls())
}
