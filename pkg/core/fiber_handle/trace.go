package fiber_handle

import (
	"strings"

	"stationery/pkg/core/consts"
	"stationery/pkg/core/tracer"

	"github.com/gofiber/fiber/v2"
)

type TracerConfig struct {
	Tracer  tracer.Tracer
	AppName string
}

// NewApiTracer 每个请求一个 span，trace id 同时放进 UserContext 和 Locals
func NewApiTracer(config TracerConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := strings.TrimPrefix(c.Path(), "/")
		ctx, traceID, finish := config.Tracer.StartTrace(c.UserContext(), name, c.Get(consts.TraceHeaderName))
		defer finish()

		c.SetUserContext(ctx)
		c.Locals(consts.TraceKey, traceID)
		return c.Next()
	}
}
