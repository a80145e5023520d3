package app

import (
	"stationery/base"
	"stationery/pkg/core/start"

	"github.com/gofiber/fiber/v2"
)

// GetApp 创建 Fiber 应用，并把业务路由的耗时与状态码交给监控模块统计
func GetApp(a *App) *fiber.App {
	f := start.GetApp(base.Configures.Config.OpsWebhook)
	f.Use(start.UseMonitor(a.MonitoringModule.Recorder()))
	return f
}
