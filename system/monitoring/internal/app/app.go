package app

import (
	"errors"
	"fmt"
	"time"

	"stationery/base"
	"stationery/pkg/core/config"
	errorc "stationery/pkg/core/err"
	"stationery/pkg/core/logger"
	"stationery/pkg/monitoring/alerting"
	"stationery/pkg/monitoring/collector"
	"stationery/pkg/monitoring/exporter"
	"stationery/pkg/monitoring/health"
	"stationery/pkg/monitoring/models"
	"stationery/pkg/monitoring/storage"
	"stationery/pkg/notifier"
	"stationery/pkg/scheduler"
	"stationery/system/monitoring/internal/service"

	"go.uber.org/zap"
)

// Deps 组装监控应用所需的组件，可选项为空时对应功能关闭
type Deps struct {
	Config      config.MonitorConfig
	Sampler     service.Sampler
	MetricStore *storage.MetricStore
	ReportStore *storage.ReportStore
	Prober      service.HealthProber
	Channels    []notifier.Notifier
	Archiver    service.Archiver
	Cache       service.ReportCache
	Exporter    *exporter.Exporter
	Location    *time.Location
	Logger      *zap.Logger
}

// App 监控组件应用层
type App struct {
	State            *service.State
	CycleService     *service.CycleService
	HealthService    *service.HealthService
	ReportService    *service.ReportService
	RetentionService *service.RetentionService
	Dispatcher       *alerting.Dispatcher
	Exporter         *exporter.Exporter
	Recorder         *collector.RequestRecorder

	cfg       config.MonitorConfig
	metrics   *storage.MetricStore
	scheduler *scheduler.Scheduler
	log       *logger.Log
	err       *errorc.ErrorBuilder
}

// NewApp 使用全局基础设施创建监控应用
func NewApp() *App {
	log := logger.GetLogger().WithEntryName("MonitoringApp")
	cfg := base.Configures.Config.Monitor.WithDefaults()

	zlog := base.ZapLogger
	if zlog == nil {
		zlog = zap.NewNop()
	}

	recorder := collector.NewRequestRecorder(time.Minute)

	var (
		dbStats collector.DatabaseStatsProvider
		pinger  health.Pinger
	)
	if base.DB != nil {
		dbStats = collector.NewGormDatabaseStats(base.DB)
		pinger = health.NewGormPinger(base.DB)
	}

	metricStore, err := storage.NewMetricStore(cfg.MetricsDir)
	if err != nil {
		log.Panic(fmt.Sprintf("初始化指标存储失败: %v", err))
	}
	reportStore, err := storage.NewReportStore(cfg.ReportsDir)
	if err != nil {
		log.Panic(fmt.Sprintf("初始化日报存储失败: %v", err))
	}

	deps := Deps{
		Config: cfg,
		Sampler: collector.NewSampler(collector.SamplerConfig{
			Database: dbStats,
			Requests: recorder,
			DiskPath: cfg.DiskPath,
			Logger:   zlog,
		}),
		MetricStore: metricStore,
		ReportStore: reportStore,
		Prober: health.NewProber(health.ProberConfig{
			Pinger:        pinger,
			ScratchDir:    cfg.ScratchDir,
			NetworkTarget: cfg.NetworkTarget,
			Logger:        zlog,
		}),
		Channels: notifier.NewNotifiers(cfg, zlog),
		Exporter: exporter.New(),
		Logger:   zlog,
	}
	if base.OSS != nil {
		deps.Archiver = base.OSS
	}
	if base.Cache != nil {
		deps.Cache = base.Cache
	}

	a, err := New(deps)
	if err != nil {
		log.Panic(fmt.Sprintf("初始化监控应用失败: %v", err))
	}
	a.Recorder = recorder
	return a
}

func New(deps Deps) (*App, error) {
	log := logger.GetLogger().WithEntryName("MonitoringApp")
	cfg := deps.Config.WithDefaults()

	if deps.Sampler == nil || deps.Prober == nil {
		return nil, errors.New("采样器和健康探测器不能为空")
	}
	if deps.MetricStore == nil || deps.ReportStore == nil {
		return nil, errors.New("指标存储和日报存储不能为空")
	}

	patch, err := models.PatchFromMap(cfg.Thresholds)
	if err != nil {
		return nil, err
	}
	thresholds, err := models.DefaultThresholds().Merge(patch)
	if err != nil {
		return nil, err
	}

	var observer service.Observer
	if deps.Exporter != nil {
		observer = deps.Exporter
	}

	state := service.NewState(thresholds)
	dispatcher := alerting.NewDispatcher(deps.Channels, 0, deps.Logger)

	a := &App{
		State:      state,
		Dispatcher: dispatcher,
		Exporter:   deps.Exporter,
		cfg:        cfg,
		metrics:    deps.MetricStore,
		log:        log,
		err:        errorc.NewErrorBuilder("MonitoringApp"),
	}
	a.CycleService = service.NewCycleService(state, deps.Sampler, deps.MetricStore, deps.MetricStore.AlertLog(),
		dispatcher, observer, log.WithEntryName("MonitoringCycle"))
	a.HealthService = service.NewHealthService(state, deps.Prober, observer, log.WithEntryName("MonitoringHealth"))
	a.ReportService = service.NewReportService(service.ReportServiceConfig{
		Samples:       deps.MetricStore,
		Alerts:        deps.MetricStore.AlertLog(),
		Reports:       deps.ReportStore,
		Archiver:      deps.Archiver,
		ArchivePrefix: cfg.ArchivePrefix,
		Cache:         deps.Cache,
		Location:      deps.Location,
	}, log.WithEntryName("MonitoringReport"))
	a.RetentionService = service.NewRetentionService(deps.MetricStore, cfg.RetentionDays, log.WithEntryName("MonitoringRetention"))

	return a, nil
}

// Interval 采样间隔
func (a *App) Interval() time.Duration {
	return time.Duration(a.cfg.Interval) * time.Second
}

// AlertChannels 各通道是否启用
func (a *App) AlertChannels() map[string]bool {
	return map[string]bool{
		string(notifier.NotifierTypeEmail): a.cfg.Email.Enabled,
		string(notifier.NotifierTypeSlack): a.cfg.Slack.Enabled,
		string(notifier.NotifierTypeSMS):   a.cfg.Sms.Enabled,
	}
}
