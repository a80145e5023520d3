package router

import (
	"stationery/app"
	"stationery/base"
	"stationery/pkg/core/fiber_handle"
	"stationery/pkg/core/logger"
	"stationery/system/monitoring"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Register 负责集中注册所有 HTTP 路由。
//   - 只依赖 app.App（业务编排入口）和 fiber.App（HTTP Server）。
//   - 不包含业务逻辑，只做分组与路由绑定。
func Register(a *app.App, f *fiber.App) {
	tracer := fiber_handle.NewApiTracer(fiber_handle.TracerConfig{
		Tracer:  base.Tracer,
		AppName: base.Configures.Config.AppName,
	})

	api := f.Group("/api", tracer, logger.NewApiLogger(logger.Config{Logger: base.Logger}))
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"msg": "ok"})
	})

	admin := f.Group("/admin", tracer, logger.NewAdminLogger(logger.AdminConfig{Logger: base.Logger}))

	// Prometheus 拉取
	f.Get("/metrics", adaptor.HTTPHandler(a.MonitoringModule.MetricsHandler()))

	// 注册运维监控组件路由
	monitoring.RegisterRoutes(a.MonitoringModule, api, admin)
}
