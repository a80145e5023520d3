package service

import (
	"context"

	"stationery/pkg/core/logger"
	"stationery/pkg/monitoring/models"
)

type HealthProber interface {
	Probe(ctx context.Context) models.HealthReport
}

type HealthService struct {
	state    *State
	prober   HealthProber
	observer Observer
	log      *logger.Log
}

func NewHealthService(state *State, prober HealthProber, observer Observer, log *logger.Log) *HealthService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &HealthService{state: state, prober: prober, observer: observer, log: log}
}

// Probe 每次都重新探测，不与上一次结果合并
func (s *HealthService) Probe(ctx context.Context) models.HealthReport {
	report := s.prober.Probe(ctx)
	s.state.RecordHealth(report)
	s.observer.ObserveHealth(report)

	if report.Status != models.StatusHealthy {
		entry := s.log.WithField("status", report.Status)
		if report.Services != nil {
			entry = entry.WithFields(report.Services)
		}
		entry.Warn("健康检查未通过")
	}
	return report
}
