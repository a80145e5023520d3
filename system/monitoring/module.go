package monitoring

import (
	"net/http"

	"stationery/pkg/core/logger"
	"stationery/pkg/monitoring/collector"
	"stationery/pkg/scheduler"
	internalapp "stationery/system/monitoring/internal/app"
)

// Module 运维监控组件模块
type Module struct {
	internalApp *internalapp.App
}

// NewModule 创建运维监控组件模块
func NewModule() *Module {
	log := logger.GetLogger().WithEntryName("MonitoringModule")

	app := internalapp.NewApp()
	log.WithField("channels", len(app.Dispatcher.Channels())).Info("运维监控模块初始化完成")

	return &Module{internalApp: app}
}

// Recorder 接口耗时记录器，供 API 监控中间件使用
func (m *Module) Recorder() *collector.RequestRecorder {
	return m.internalApp.Recorder
}

// MetricsHandler Prometheus 指标输出
func (m *Module) MetricsHandler() http.Handler {
	return m.internalApp.Exporter.Handler()
}

// RegisterTasks 注册采样、健康探测、日报和清理任务
func (m *Module) RegisterTasks(s *scheduler.Scheduler) error {
	return m.internalApp.RegisterTasks(s)
}

// StartMonitoring 进程启动时直接开启采样
func (m *Module) StartMonitoring() {
	m.internalApp.Start()
}
