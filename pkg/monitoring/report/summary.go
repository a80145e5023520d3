// Package report 生成单日指标汇总
package report

import (
	"math"
	"time"

	"stationery/pkg/monitoring/models"
)

type extractor struct {
	name  string
	value func(s *models.MetricSample) (float64, bool)
}

func always(f func(s *models.MetricSample) float64) func(s *models.MetricSample) (float64, bool) {
	return func(s *models.MetricSample) (float64, bool) { return f(s), true }
}

// 数据库未连接时的样本不参与数据库类指标统计
func connected(f func(s *models.MetricSample) float64) func(s *models.MetricSample) (float64, bool) {
	return func(s *models.MetricSample) (float64, bool) {
		return f(s), s.Database.Status == models.DatabaseConnected
	}
}

var extractors = []extractor{
	{"cpuPercent", always(func(s *models.MetricSample) float64 { return s.System.CPUPercent })},
	{"memoryPercent", always(func(s *models.MetricSample) float64 { return s.System.Memory.Percent })},
	{"memoryUsedMB", always(func(s *models.MetricSample) float64 { return s.System.Memory.UsedMB })},
	{"diskPercent", always(func(s *models.MetricSample) float64 { return s.System.Disk.Percent })},
	{"diskUsedGB", always(func(s *models.MetricSample) float64 { return s.System.Disk.UsedGB })},
	{"loadAverage1m", func(s *models.MetricSample) (float64, bool) {
		if len(s.System.LoadAverage) == 0 {
			return 0, false
		}
		return s.System.LoadAverage[0], true
	}},
	{"dbActiveConnections", connected(func(s *models.MetricSample) float64 { return s.Database.ActiveConnections })},
	{"dbSlowQueries", connected(func(s *models.MetricSample) float64 { return s.Database.SlowQueries })},
	{"dbSizeMB", connected(func(s *models.MetricSample) float64 { return s.Database.SizeMB })},
	{"heapUsedMB", always(func(s *models.MetricSample) float64 { return s.Application.HeapUsedMB })},
	{"rssMB", always(func(s *models.MetricSample) float64 { return s.Application.RSSMB })},
	{"avgResponseTimeMs", always(func(s *models.MetricSample) float64 { return s.Performance.AvgResponseTimeMs })},
	{"requestsPerMinute", always(func(s *models.MetricSample) float64 { return s.Performance.RequestsPerMinute })},
	{"errorRatePercent", always(func(s *models.MetricSample) float64 { return s.Performance.ErrorRatePercent })},
}

// Summarize 计算每项指标的最小/平均/最大值，并附带当天告警
func Summarize(date string, samples []*models.MetricSample, alerts []models.Alert, now time.Time) models.DailyReportSummary {
	if alerts == nil {
		alerts = []models.Alert{}
	}

	summary := models.DailyReportSummary{
		Date:        date,
		Metrics:     make(map[string]models.Stat),
		Alerts:      alerts,
		AlertCounts: models.CountAlerts(alerts),
		GeneratedAt: now,
	}

	for _, s := range samples {
		if s != nil {
			summary.SampleCount++
		}
	}

	for _, e := range extractors {
		var (
			n        int
			sum      float64
			min, max float64
		)
		for _, s := range samples {
			if s == nil {
				continue
			}
			v, ok := e.value(s)
			if !ok {
				continue
			}
			if n == 0 || v < min {
				min = v
			}
			if n == 0 || v > max {
				max = v
			}
			sum += v
			n++
		}
		if n == 0 {
			continue
		}
		summary.Metrics[e.name] = models.Stat{
			Min: min,
			Avg: math.Round(sum/float64(n)*100) / 100,
			Max: max,
		}
	}

	return summary
}
