package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"stationery/pkg/monitoring/models"
)

// ErrOutOfOrder 同一天内样本时间戳必须单调不减
var ErrOutOfOrder = errors.New("样本时间早于当日最后一条记录")

type Option func(*options)

type options struct {
	loc *time.Location
}

// WithLocation 指定划分自然日所用的时区，默认本地时区
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MetricStore 每天一个 metrics-YYYY-MM-DD.json，内容为 MetricSample 数组
type MetricStore struct {
	metrics partitions
	alerts  partitions

	mu sync.Mutex
	// 每个分区最后一条样本的时间，避免每次追加都解析整个文件
	last map[string]time.Time
}

func NewMetricStore(dir string, opts ...Option) (*MetricStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建指标目录失败: %w", err)
	}
	o := buildOptions(opts)
	return &MetricStore{
		metrics: partitions{dir: dir, prefix: "metrics-", loc: o.loc},
		alerts:  partitions{dir: dir, prefix: "alerts-", loc: o.loc},
		last:    make(map[string]time.Time),
	}, nil
}

// Append 写入样本所在日期的分区
func (s *MetricStore) Append(sample *models.MetricSample) error {
	if sample == nil {
		return errors.New("sample 不能为空")
	}
	date := s.metrics.dateOf(sample.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.last[date]; ok && sample.Timestamp.Before(last) {
		return ErrOutOfOrder
	}

	var samples []*models.MetricSample
	if _, err := readJSON(s.metrics.path(date), &samples); err != nil {
		return err
	}
	if n := len(samples); n > 0 && sample.Timestamp.Before(samples[n-1].Timestamp) {
		return ErrOutOfOrder
	}

	samples = append(samples, sample)
	if err := writeJSON(s.metrics.path(date), samples); err != nil {
		return fmt.Errorf("写入指标分区 %s 失败: %w", date, err)
	}
	s.last[date] = sample.Timestamp
	return nil
}

// Load 读取某天全部样本，分区不存在时返回空
func (s *MetricStore) Load(date string) ([]*models.MetricSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(date)
}

func (s *MetricStore) load(date string) ([]*models.MetricSample, error) {
	var samples []*models.MetricSample
	if _, err := readJSON(s.metrics.path(date), &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// History 返回最近 days 个非空分区，日期倒序；没有数据时返回空切片
func (s *MetricStore) History(days int) ([]models.DayMetrics, error) {
	result := make([]models.DayMetrics, 0)
	if days <= 0 {
		return result, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := s.metrics.list()
	if err != nil {
		return nil, err
	}
	for _, date := range dates {
		if len(result) >= days {
			break
		}
		samples, err := s.load(date)
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			continue
		}
		result = append(result, models.DayMetrics{Date: date, Metrics: samples})
	}
	return result, nil
}

// Prune 删除 now 所在自然日 retentionDays 天之前的指标与告警分区，返回被删除的指标日期
func (s *MetricStore) Prune(retentionDays int, now time.Time) ([]string, error) {
	if retentionDays < 0 {
		return nil, fmt.Errorf("保留天数不能为负数: %d", retentionDays)
	}
	cutoff := startOfDay(now, s.metrics.loc).AddDate(0, 0, -retentionDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.metrics.removeBefore(cutoff)
	for _, date := range removed {
		delete(s.last, date)
	}
	if err != nil {
		return removed, err
	}
	if _, err := s.alerts.removeBefore(cutoff); err != nil {
		return removed, err
	}
	return removed, nil
}

// AlertLog 返回与指标同目录的告警日志
func (s *MetricStore) AlertLog() *AlertLog {
	return &AlertLog{store: s}
}

// AlertLog 每天一个 alerts-YYYY-MM-DD.json，供日报汇总当天告警
type AlertLog struct {
	store *MetricStore
}

func (l *AlertLog) Append(alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	byDate := make(map[string][]models.Alert)
	for _, a := range alerts {
		date := l.store.alerts.dateOf(a.Timestamp)
		byDate[date] = append(byDate[date], a)
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	for date, batch := range byDate {
		var existing []models.Alert
		if _, err := readJSON(l.store.alerts.path(date), &existing); err != nil {
			return err
		}
		if err := writeJSON(l.store.alerts.path(date), append(existing, batch...)); err != nil {
			return fmt.Errorf("写入告警分区 %s 失败: %w", date, err)
		}
	}
	return nil
}

func (l *AlertLog) Load(date string) ([]models.Alert, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	var alerts []models.Alert
	if _, err := readJSON(l.store.alerts.path(date), &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
