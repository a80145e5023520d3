package monitoring

import (
	controller "stationery/system/monitoring/external/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册运维监控组件的所有 HTTP 路由
func RegisterRoutes(m *Module, api, admin fiber.Router) {
	// 后台管理接口
	adminController := controller.NewMonitoringAdminController(m.internalApp)
	adminController.RegisterRoutes(admin)

	// 探活接口，不做鉴权
	apiController := controller.NewMonitoringAPIController(m.internalApp)
	apiController.RegisterRoutes(api)
}
