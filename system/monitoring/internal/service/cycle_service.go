package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stationery/pkg/core/logger"
	"stationery/pkg/monitoring/alerting"
	"stationery/pkg/monitoring/models"
	"stationery/pkg/monitoring/storage"
	"stationery/pkg/notifier"

	"golang.org/x/sync/singleflight"
)

type Sampler interface {
	Sample(ctx context.Context) *models.MetricSample
}

type MetricSink interface {
	Append(sample *models.MetricSample) error
}

type AlertSink interface {
	Append(alerts []models.Alert) error
}

type AlertDispatcher interface {
	Dispatch(ctx context.Context, alerts []models.Alert) []notifier.NotificationResult
}

// Observer 指标导出
type Observer interface {
	ObserveSample(s *models.MetricSample)
	ObserveAlerts(alerts []models.Alert)
	ObserveHealth(r models.HealthReport)
}

type nopObserver struct{}

func (nopObserver) ObserveSample(*models.MetricSample) {}
func (nopObserver) ObserveAlerts([]models.Alert)       {}
func (nopObserver) ObserveHealth(models.HealthReport)  {}

type CycleResult struct {
	Sample        *models.MetricSample          `json:"sample"`
	Alerts        []models.Alert                `json:"alerts"`
	Notifications []notifier.NotificationResult `json:"notifications"`
	Shared        bool                          `json:"shared"`
}

// CycleService 一轮完整的 采样 -> 存储 -> 评估 -> 分发。
// 同一时刻只有一轮在执行，并发调用共享同一轮的结果。
type CycleService struct {
	state      *State
	sampler    Sampler
	metrics    MetricSink
	alerts     AlertSink
	dispatcher AlertDispatcher
	observer   Observer
	log        *logger.Log
	now        func() time.Time

	group singleflight.Group
}

func NewCycleService(state *State, sampler Sampler, metrics MetricSink, alerts AlertSink,
	dispatcher AlertDispatcher, observer Observer, log *logger.Log) *CycleService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &CycleService{
		state:      state,
		sampler:    sampler,
		metrics:    metrics,
		alerts:     alerts,
		dispatcher: dispatcher,
		observer:   observer,
		log:        log,
		now:        time.Now,
	}
}

// Run 调用方取消 ctx 不会中断正在执行的一轮
func (s *CycleService) Run(ctx context.Context) (*CycleResult, error) {
	v, err, shared := s.group.Do("cycle", func() (interface{}, error) {
		return s.run(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*CycleResult)
	res.Shared = shared
	return &res, nil
}

func (s *CycleService) run(ctx context.Context) (res *CycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("监控周期异常: %v", r)
			s.log.WithField("panic", r).Error("监控周期执行异常，本轮跳过")
		}
	}()

	sample := s.sampler.Sample(ctx)
	if sample == nil {
		return nil, errors.New("采样结果为空")
	}

	if err := s.metrics.Append(sample); err != nil {
		if errors.Is(err, storage.ErrOutOfOrder) {
			s.log.WithField("timestamp", sample.Timestamp).Warn("样本时间早于分区最后一条，未写入")
		} else {
			s.log.WithErr(err).Error("写入指标分区失败")
		}
	}

	alerts := alerting.Evaluate(sample, s.state.Thresholds())
	// 过期样本不更新快照，也不刷新导出的指标
	if s.state.RecordCycle(sample, alerts, s.now()) {
		s.observer.ObserveSample(sample)
		s.observer.ObserveAlerts(alerts)
	} else {
		s.log.WithField("timestamp", sample.Timestamp).Warn("样本早于当前快照，已忽略")
	}

	res = &CycleResult{Sample: sample, Alerts: alerts, Notifications: []notifier.NotificationResult{}}
	if len(alerts) == 0 {
		return res, nil
	}

	for _, a := range alerts {
		s.log.WithFields(map[string]interface{}{
			"type":      a.Type,
			"severity":  a.Severity,
			"value":     a.Value,
			"threshold": a.Threshold,
		}).Warn(a.Message)
	}
	if s.alerts != nil {
		if err := s.alerts.Append(alerts); err != nil {
			s.log.WithErr(err).Error("写入告警日志失败")
		}
	}
	if s.dispatcher != nil {
		if results := s.dispatcher.Dispatch(ctx, alerts); results != nil {
			res.Notifications = results
		}
	}
	return res, nil
}
