package dto

import (
	"time"

	"stationery/pkg/monitoring/models"
	"stationery/pkg/notifier"
)

// StatusDTO 监控状态
type StatusDTO struct {
	IsMonitoring  bool                 `json:"isMonitoring" comment:"是否正在监控"`
	Interval      int                  `json:"interval" comment:"采样间隔（秒）"`
	Thresholds    models.Thresholds    `json:"thresholds" comment:"告警阈值"`
	AlertChannels map[string]bool      `json:"alertChannels" comment:"告警通道开关"`
	LastMetrics   *models.MetricSample `json:"lastMetrics" comment:"最近一次采样"`
	ActiveAlerts  []models.Alert       `json:"activeAlerts" comment:"当前告警"`
}

// AlertsDTO 当前告警及按级别统计
type AlertsDTO struct {
	Alerts []models.Alert     `json:"alerts" comment:"告警列表"`
	Total  int                `json:"total" comment:"告警总数"`
	Counts models.AlertCounts `json:"counts" comment:"按级别统计"`
}

// DashboardDTO 面板聚合数据
type DashboardDTO struct {
	Status      StatusDTO            `json:"status"`
	Metrics     *models.MetricSample `json:"metrics"`
	Alerts      AlertsDTO            `json:"alerts"`
	Health      *models.HealthReport `json:"health"`
	LastCycleAt *time.Time           `json:"lastCycleAt,omitempty"`
}

// ToggleDTO 启停结果
type ToggleDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CollectDTO 手动采样结果
type CollectDTO struct {
	Sample        *models.MetricSample          `json:"sample"`
	Alerts        []models.Alert                `json:"alerts"`
	Notifications []notifier.NotificationResult `json:"notifications"`
}

// HistoryQuery 历史指标查询
type HistoryQuery struct {
	Days int `query:"days" validate:"omitempty,min=1,max=365" comment:"天数"`
}

// DailyReportQuery 日报查询，日期为空时取前一天
type DailyReportQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02" comment:"日期"`
}

// ThresholdsReq 阈值局部更新
type ThresholdsReq struct {
	Thresholds *models.ThresholdPatch `json:"thresholds" validate:"required" comment:"阈值"`
}
