package logger

import (
	"strings"
	"time"

	"stationery/pkg/core/consts"
	errorc "stationery/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	Logger *Log
}

// NewApiLogger 公共接口请求日志中间件
func NewApiLogger(config Config) fiber.Handler {
	log := config.Logger.WithEntryName("API")

	return func(c *fiber.Ctx) error {
		url := strings.SplitN(c.OriginalURL(), "?", 2)[0]
		start := time.Now()

		err := c.Next()

		cLog := log.WithField("status", c.Response().StatusCode()).
			WithField("latency", time.Since(start).Round(time.Millisecond)).
			WithField("method", c.Method()).
			WithField("path", url).
			WithField("TraceId", c.Locals(consts.TraceKey))

		if err != nil {
			errc := errorc.ParseError(err)
			cLog = cLog.WithField("Err", errc.RootCause())
		}

		cLog.Debug("请求处理完毕")
		return err
	}
}
