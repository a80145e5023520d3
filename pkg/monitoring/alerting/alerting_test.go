package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stationery/pkg/monitoring/models"
	"stationery/pkg/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleAt(cpu, disk float64) *models.MetricSample {
	s := &models.MetricSample{Timestamp: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	s.System.CPUPercent = cpu
	s.System.Disk.Percent = disk
	return s
}

func TestEvaluate_CPUScenario(t *testing.T) {
	th := models.Thresholds{CPU: 80, Memory: 85, Disk: 90, ResponseTime: 2000, ErrorRate: 5, DBConnections: 80}

	alerts := Evaluate(sampleAt(81, 0), th)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.KindCPU, alerts[0].Type)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	assert.Equal(t, 81.0, alerts[0].Value)
	assert.Equal(t, 80.0, alerts[0].Threshold)
	assert.NotEmpty(t, alerts[0].ID)
	assert.Equal(t, sampleAt(0, 0).Timestamp, alerts[0].Timestamp)

	// 等于阈值不告警
	assert.Empty(t, Evaluate(sampleAt(80, 0), th))
}

func TestEvaluate_DiskIsCritical(t *testing.T) {
	th := models.DefaultThresholds()

	alerts := Evaluate(sampleAt(0, 90.5), th)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.KindDisk, alerts[0].Type)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)

	assert.Empty(t, Evaluate(sampleAt(0, 90), th))
}

func TestEvaluate_AllKinds(t *testing.T) {
	s := sampleAt(99, 99)
	s.System.Memory.Percent = 99
	s.Performance.AvgResponseTimeMs = 5000
	s.Performance.ErrorRatePercent = 50
	s.Database.ActiveConnections = 100

	alerts := Evaluate(s, models.DefaultThresholds())
	require.Len(t, alerts, len(models.Kinds))
	for i, kind := range models.Kinds {
		assert.Equal(t, kind, alerts[i].Type)
	}
	assert.Equal(t, models.AlertCounts{Warning: 5, Critical: 1}, models.CountAlerts(alerts))
}

func TestEvaluate_NilSample(t *testing.T) {
	alerts := Evaluate(nil, models.DefaultThresholds())
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

type fakeChannel struct {
	name  string
	err   error
	panic bool

	mu   sync.Mutex
	sent []string
}

func (f *fakeChannel) Send(_ context.Context, n *notifier.Notification) (*notifier.NotificationResult, error) {
	f.mu.Lock()
	f.sent = append(f.sent, n.ID)
	f.mu.Unlock()

	if f.panic {
		panic("channel exploded")
	}
	res := &notifier.NotificationResult{NotificationID: n.ID, NotifierName: f.name, Success: f.err == nil}
	if f.err != nil {
		res.Error = f.err.Error()
		return res, f.err
	}
	return res, nil
}

func (f *fakeChannel) GetType() notifier.NotifierType { return notifier.NotifierType(f.name) }
func (f *fakeChannel) GetName() string               { return f.name }

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func threeAlerts() []models.Alert {
	s := sampleAt(95, 95)
	s.System.Memory.Percent = 95
	return Evaluate(s, models.DefaultThresholds())
}

func TestDispatcher_FailureIsolation(t *testing.T) {
	alerts := threeAlerts()
	require.Len(t, alerts, 3)

	failing := &fakeChannel{name: "email", err: errors.New("smtp down")}
	panicking := &fakeChannel{name: "sms", panic: true}
	healthy := &fakeChannel{name: "slack"}

	d := NewDispatcher([]notifier.Notifier{failing, panicking, healthy}, time.Second, zap.NewNop())
	results := d.Dispatch(context.Background(), alerts)

	// 每条告警都在每个通道上尝试过
	assert.Equal(t, 3, failing.count())
	assert.Equal(t, 3, panicking.count())
	assert.Equal(t, 3, healthy.count())
	require.Len(t, results, 9)

	success := 0
	for _, r := range results {
		if r.Success {
			success++
			assert.Equal(t, "slack", r.NotifierName)
		} else {
			assert.NotEmpty(t, r.Error)
		}
	}
	assert.Equal(t, 3, success)

	stats := d.Statistics()
	assert.Equal(t, int64(9), stats.TotalSent)
	assert.Equal(t, int64(3), stats.TotalSuccess)
	assert.Equal(t, int64(6), stats.TotalFailed)
}

func TestDispatcher_NoAlertsOrChannels(t *testing.T) {
	ch := &fakeChannel{name: "slack"}
	d := NewDispatcher([]notifier.Notifier{ch}, 0, zap.NewNop())
	assert.Nil(t, d.Dispatch(context.Background(), nil))
	assert.Equal(t, 0, ch.count())

	empty := NewDispatcher(nil, 0, zap.NewNop())
	assert.Nil(t, empty.Dispatch(context.Background(), threeAlerts()))
	assert.Empty(t, empty.Channels())
}

func TestToNotification(t *testing.T) {
	a := threeAlerts()[2]
	n := toNotification(&a)
	assert.Equal(t, a.ID, n.ID)
	assert.Equal(t, notifier.NotificationLevelCritical, n.Level)
	assert.Equal(t, models.KindDisk, n.Labels["type"])
	assert.Equal(t, a.Message, n.Content)
}
