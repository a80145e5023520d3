package logger

import (
	"time"

	"stationery/pkg/core/consts"
	errorc "stationery/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

type AdminConfig struct {
	Logger *Log
}

// NewAdminLogger 后台接口请求日志中间件，非 GET 请求额外记录请求体和响应体
func NewAdminLogger(config AdminConfig) fiber.Handler {
	log := config.Logger.WithEntryName("Admin")

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		cLog := log.WithField("status", c.Response().StatusCode()).
			WithField("latency", time.Since(start).Round(time.Millisecond)).
			WithField("method", c.Method()).
			WithField("path", c.OriginalURL()).
			WithField("user_id", c.Locals("user_id")).
			WithField("TraceId", c.Locals(consts.TraceKey))

		if c.Method() != fiber.MethodGet {
			cLog = cLog.WithField("req", string(c.Request().Body())).
				WithField("resp", string(c.Response().Body()))
		}

		if err != nil {
			errc := errorc.ParseError(err)
			errc.ToLog(log.WithTrace(c.UserContext()).Entry)
			cLog = cLog.WithField("Err", errc.RootCause())
		}

		cLog.Info("请求处理完毕")
		return err
	}
}
