package start

import (
	"fmt"

	"stationery/pkg/core/fiber_handle"
	"stationery/pkg/core/util"

	"github.com/gofiber/fiber/v2"
	recover2 "github.com/gofiber/fiber/v2/middleware/recover"
)

// GetApp 创建带统一错误处理、跨域与崩溃恢复的 Fiber 应用
func GetApp(opsWebhook string) *fiber.App {
	app := fiber.New(
		fiber.Config{
			BodyLimit:    4 * 1024 * 1024,
			ErrorHandler: fiber_handle.ErrHandler,
		})
	app.Use(fiber_handle.Cors())
	app.Use(recover2.New(recover2.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			if opsWebhook == "" {
				return
			}
			go util.SendOpsMessage(util.Context(c), opsWebhook, fmt.Sprintf("url：%s崩溃了。%+v", c.Path(), e))
		},
	}))
	return app
}

// UseMonitor 请求耗时与状态码采集中间件，只统计业务路由
func UseMonitor(client fiber_handle.MonitorClient) fiber.Handler {
	return fiber_handle.NewAPIMonitorWithFilters(fiber_handle.MonitorConfig{
		Client: client,
	}, fiber_handle.SkipMethods("OPTIONS"), fiber_handle.SkipHealthCheck, fiber_handle.OnlyPathStartWith("/api", "/admin"))
}
