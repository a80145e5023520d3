package app

import (
	"stationery/system/monitoring"
)

// App 业务编排入口，持有各组件模块
type App struct {
	MonitoringModule *monitoring.Module
}

// NewApp 创建应用组合根，依赖 base 中的全局基础设施已初始化
func NewApp() *App {
	return &App{
		MonitoringModule: monitoring.NewModule(),
	}
}
