package app

import (
	"context"
	"time"

	"stationery/pkg/monitoring/models"
	"stationery/pkg/scheduler"
	"stationery/system/monitoring/api/dto"
)

const defaultHistoryDays = 7

// Start 开启监控并立即执行一轮采样，不等待下一个采样点
func (a *App) Start() dto.ToggleDTO {
	if a.State.SetMonitoring(true) {
		return dto.ToggleDTO{Success: false, Message: "监控已在运行中"}
	}

	a.log.Info("监控已启动")
	a.kickOff()
	return dto.ToggleDTO{Success: true, Message: "监控已启动"}
}

// Stop 只阻止后续采样，正在执行的一轮会正常完成
func (a *App) Stop() dto.ToggleDTO {
	if !a.State.SetMonitoring(false) {
		return dto.ToggleDTO{Success: false, Message: "监控未在运行"}
	}

	a.log.Info("监控已停止")
	return dto.ToggleDTO{Success: true, Message: "监控已停止"}
}

func (a *App) IsMonitoring() bool {
	return a.State.IsMonitoring()
}

// kickOff 调度器运行中时交给调度器执行，否则单独起协程
func (a *App) kickOff() {
	// 首轮失败只记录日志，后续由定时采样继续
	run := a.guard("monitoring-kickoff", func(ctx context.Context) error {
		if err := a.sampleTick(ctx); err != nil {
			a.log.WithErr(err).Warn("首轮采样失败")
		}
		return nil
	})

	if a.scheduler != nil && a.scheduler.IsRunning() {
		task := scheduler.NewOnceTask("monitoring-kickoff", time.Now(), scheduler.TaskExecuteModeLocal, a.Interval(), run)
		err := a.scheduler.AddTask(task)
		if err == nil {
			return
		}
		a.log.WithErr(err).Warn("提交首轮采样任务失败，改为直接执行")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Interval())
		defer cancel()
		_ = run(ctx)
	}()
}

// SetThresholds 合并后的阈值对下一轮评估立即可见
func (a *App) SetThresholds(ctx context.Context, patch models.ThresholdPatch) (models.Thresholds, error) {
	merged, err := a.State.MergeThresholds(patch)
	if err != nil {
		return models.Thresholds{}, a.err.New(err.Error(), err).ValidWithCtx().WithTraceID(ctx)
	}
	a.log.WithTrace(ctx).WithFields(merged).Info("告警阈值已更新")
	return merged, nil
}

func (a *App) Status() dto.StatusDTO {
	snap := a.State.Snapshot()
	return dto.StatusDTO{
		IsMonitoring:  snap.IsMonitoring,
		Interval:      a.cfg.Interval,
		Thresholds:    snap.Thresholds,
		AlertChannels: a.AlertChannels(),
		LastMetrics:   snap.LastMetrics,
		ActiveAlerts:  snap.ActiveAlerts,
	}
}

// LatestMetrics 还没有任何采样时返回 404
func (a *App) LatestMetrics() (*models.MetricSample, error) {
	sample := a.State.LastMetrics()
	if sample == nil {
		return nil, a.err.NotFound("暂无监控数据")
	}
	return sample, nil
}

func (a *App) Alerts() dto.AlertsDTO {
	return alertsDTO(a.State.ActiveAlerts())
}

func alertsDTO(alerts []models.Alert) dto.AlertsDTO {
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return dto.AlertsDTO{
		Alerts: alerts,
		Total:  len(alerts),
		Counts: models.CountAlerts(alerts),
	}
}

// Collect 计划外立即执行一轮，和定时采样共用同一轮
func (a *App) Collect(ctx context.Context) (*dto.CollectDTO, error) {
	res, err := a.CycleService.Run(ctx)
	if err != nil {
		return nil, a.err.New("执行采样失败", err).Unavailable().WithTraceID(ctx)
	}
	return &dto.CollectDTO{
		Sample:        res.Sample,
		Alerts:        res.Alerts,
		Notifications: res.Notifications,
	}, nil
}

// Dashboard 状态、指标、告警合并返回，健康结果取最近一次探测
func (a *App) Dashboard(ctx context.Context) dto.DashboardDTO {
	snap := a.State.Snapshot()
	health := snap.LastHealth
	if health == nil {
		h := a.HealthService.Probe(ctx)
		health = &h
	}

	d := dto.DashboardDTO{
		Status: dto.StatusDTO{
			IsMonitoring:  snap.IsMonitoring,
			Interval:      a.cfg.Interval,
			Thresholds:    snap.Thresholds,
			AlertChannels: a.AlertChannels(),
			LastMetrics:   snap.LastMetrics,
			ActiveAlerts:  snap.ActiveAlerts,
		},
		Metrics: snap.LastMetrics,
		Alerts:  alertsDTO(snap.ActiveAlerts),
		Health:  health,
	}
	if !snap.LastCycleAt.IsZero() {
		at := snap.LastCycleAt
		d.LastCycleAt = &at
	}
	return d
}

// DailyReport 日期为空时取前一天
func (a *App) DailyReport(ctx context.Context, date string) (*models.DailyReportSummary, error) {
	if date == "" {
		date = a.ReportService.Yesterday()
	}
	summary, err := a.ReportService.Get(ctx, date)
	if err != nil {
		return nil, a.err.New("获取日报失败: "+date, err).WithTraceID(ctx)
	}
	return summary, nil
}

func (a *App) History(ctx context.Context, days int) ([]models.DayMetrics, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	history, err := a.metrics.History(days)
	if err != nil {
		return nil, a.err.New("读取历史指标失败", err).WithTraceID(ctx)
	}
	return history, nil
}

// Health 每次请求都重新探测
func (a *App) Health(ctx context.Context) models.HealthReport {
	return a.HealthService.Probe(ctx)
}
