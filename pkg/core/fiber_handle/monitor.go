package fiber_handle

import (
	"fmt"
	"strings"
	"time"

	"stationery/pkg/core/consts"
	"stationery/pkg/monitoring/collector"

	"github.com/gofiber/fiber/v2"
)

// MonitorClient 接收每次请求的耗时与状态
type MonitorClient interface {
	RecordAPICall(call *collector.RequestSample)
}

type MonitorConfig struct {
	Client MonitorClient
}

// FilterFunc 返回 false 的请求不计入统计
type FilterFunc func(c *fiber.Ctx) bool

// NewAPIMonitorWithFilters 所有过滤器都通过的请求才会记录
func NewAPIMonitorWithFilters(config MonitorConfig, filters ...FilterFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if config.Client == nil {
			return c.Next()
		}
		for _, keep := range filters {
			if !keep(c) {
				return c.Next()
			}
		}

		start := time.Now()
		err := c.Next()
		config.Client.RecordAPICall(requestSample(c, start, err))
		return err
	}
}

func requestSample(c *fiber.Ctx, start time.Time, handlerErr error) *collector.RequestSample {
	// 按路由模板归并，/reports/daily?date=... 这类请求算同一个接口
	path := c.Route().Path
	if path == "" {
		path = c.Path()
	}

	sample := &collector.RequestSample{
		Timestamp:  start,
		Method:     c.Method(),
		Path:       path,
		StatusCode: c.Response().StatusCode(),
		DurationMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	// 返回错误时状态码要等 ErrHandler 才写入，这里按同样的规则提前换算
	if handlerErr != nil {
		sample.StatusCode, _ = Classify(handlerErr)
		sample.ErrorMessage = handlerErr.Error()
	}
	if traceID := c.Locals(consts.TraceKey); traceID != nil {
		sample.TraceID = fmt.Sprint(traceID)
	}
	return sample
}

// SkipHealthCheck 探活请求频率高，计入会拉低平均耗时
func SkipHealthCheck(c *fiber.Ctx) bool {
	return !strings.Contains(strings.ToLower(c.Path()), "/health")
}

func OnlyPathStartWith(prefixes ...string) FilterFunc {
	return func(c *fiber.Ctx) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(c.Path(), prefix) {
				return true
			}
		}
		return false
	}
}

func SkipMethods(methods ...string) FilterFunc {
	skip := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		skip[strings.ToUpper(m)] = struct{}{}
	}
	return func(c *fiber.Ctx) bool {
		_, ok := skip[c.Method()]
		return !ok
	}
}
