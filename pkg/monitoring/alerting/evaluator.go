// Package alerting 负责阈值判断与告警分发
package alerting

import (
	"fmt"

	"stationery/pkg/monitoring/models"

	"github.com/google/uuid"
)

type rule struct {
	kind     string
	label    string
	unit     string
	severity models.Severity
	value    func(s *models.MetricSample) float64
}

// 严重级别按指标固定，磁盘为 critical，其余为 warning
var rules = []rule{
	{models.KindCPU, "CPU使用率", "%", models.SeverityWarning,
		func(s *models.MetricSample) float64 { return s.System.CPUPercent }},
	{models.KindMemory, "内存使用率", "%", models.SeverityWarning,
		func(s *models.MetricSample) float64 { return s.System.Memory.Percent }},
	{models.KindDisk, "磁盘使用率", "%", models.SeverityCritical,
		func(s *models.MetricSample) float64 { return s.System.Disk.Percent }},
	{models.KindResponseTime, "平均响应时间", "ms", models.SeverityWarning,
		func(s *models.MetricSample) float64 { return s.Performance.AvgResponseTimeMs }},
	{models.KindErrorRate, "错误率", "%", models.SeverityWarning,
		func(s *models.MetricSample) float64 { return s.Performance.ErrorRatePercent }},
	{models.KindDBConnections, "数据库活跃连接数", "", models.SeverityWarning,
		func(s *models.MetricSample) float64 { return s.Database.ActiveConnections }},
}

// Evaluate 逐项比较样本与阈值，仅在严格大于阈值时产生告警。
// 无副作用，相同输入除 ID 外产生相同输出。
func Evaluate(sample *models.MetricSample, th models.Thresholds) []models.Alert {
	alerts := make([]models.Alert, 0)
	if sample == nil {
		return alerts
	}

	for _, r := range rules {
		limit, _ := th.Get(r.kind)
		value := r.value(sample)
		if value <= limit {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:        uuid.New().String(),
			Type:      r.kind,
			Severity:  r.severity,
			Message:   fmt.Sprintf("%s %.2f%s 超过阈值 %.2f%s", r.label, value, r.unit, limit, r.unit),
			Value:     value,
			Threshold: limit,
			Timestamp: sample.Timestamp,
		})
	}
	return alerts
}
