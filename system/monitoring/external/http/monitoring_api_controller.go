package http

import (
	"stationery/pkg/core/result"
	"stationery/pkg/core/util"
	internalapp "stationery/system/monitoring/internal/app"

	"github.com/gofiber/fiber/v2"
)

// MonitoringAPIController 不需要登录的探活接口，供负载均衡使用
type MonitoringAPIController struct {
	app *internalapp.App
}

func NewMonitoringAPIController(app *internalapp.App) *MonitoringAPIController {
	return &MonitoringAPIController{app: app}
}

func (c *MonitoringAPIController) RegisterRoutes(api fiber.Router) {
	api.Get("/monitoring/health", c.Health)
}

// Health 状态码 200/206/503 对应 healthy/degraded/unhealthy
func (c *MonitoringAPIController) Health(ctx *fiber.Ctx) error {
	report := c.app.Health(util.Context(ctx))
	return result.Status(ctx, report.Status.HTTPCode(), report)
}
