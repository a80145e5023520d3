package service

import (
	"sync"
	"time"

	"stationery/pkg/monitoring/models"
)

// Snapshot 某一时刻的控制器状态副本
type Snapshot struct {
	IsMonitoring bool
	Thresholds   models.Thresholds
	LastMetrics  *models.MetricSample
	ActiveAlerts []models.Alert
	LastHealth   *models.HealthReport
	LastCycleAt  time.Time
}

// State 监控控制器的共享状态，进程启动时创建一次，传给每个定时任务
type State struct {
	mu           sync.RWMutex
	monitoring   bool
	thresholds   models.Thresholds
	lastMetrics  *models.MetricSample
	activeAlerts []models.Alert
	lastHealth   *models.HealthReport
	lastCycleAt  time.Time
}

func NewState(thresholds models.Thresholds) *State {
	return &State{
		thresholds:   thresholds,
		activeAlerts: []models.Alert{},
	}
}

// SetMonitoring 返回切换前的值
func (s *State) SetMonitoring(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.monitoring
	s.monitoring = on
	return prev
}

func (s *State) IsMonitoring() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitoring
}

func (s *State) Thresholds() models.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// MergeThresholds 整体替换阈值，下一轮评估立即生效
func (s *State) MergeThresholds(patch models.ThresholdPatch) (models.Thresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := s.thresholds.Merge(patch)
	if err != nil {
		return s.thresholds, err
	}
	s.thresholds = merged
	return merged, nil
}

// RecordCycle 用本轮结果整体替换活动告警，比当前快照旧的样本直接丢弃
func (s *State) RecordCycle(sample *models.MetricSample, alerts []models.Alert, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastMetrics != nil && sample.Timestamp.Before(s.lastMetrics.Timestamp) {
		return false
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	s.lastMetrics = sample
	s.activeAlerts = alerts
	s.lastCycleAt = at
	return true
}

func (s *State) RecordHealth(report models.HealthReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHealth = &report
}

func (s *State) LastMetrics() *models.MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMetrics
}

func (s *State) ActiveAlerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Alert(nil), s.activeAlerts...)
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		IsMonitoring: s.monitoring,
		Thresholds:   s.thresholds,
		LastMetrics:  s.lastMetrics,
		ActiveAlerts: append(make([]models.Alert, 0, len(s.activeAlerts)), s.activeAlerts...),
		LastCycleAt:  s.lastCycleAt,
	}
	if s.lastHealth != nil {
		h := *s.lastHealth
		snap.LastHealth = &h
	}
	return snap
}
