package fiber_handle

import (
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	errorc "stationery/pkg/core/err"
	"stationery/pkg/monitoring/collector"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureClient struct {
	mu    sync.Mutex
	calls []*collector.RequestSample
}

func (c *captureClient) RecordAPICall(call *collector.RequestSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func newMonitoredApp(client MonitorClient) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrHandler})
	app.Use(NewAPIMonitorWithFilters(MonitorConfig{Client: client}, SkipHealthCheck, OnlyPathStartWith("/api")))
	app.Get("/api/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/boom", func(c *fiber.Ctx) error {
		return errorc.New("内部错误", errors.New("boom"))
	})
	app.Get("/api/missing", func(c *fiber.Ctx) error {
		return errorc.NewErrorBuilder("test").NotFound("不存在")
	})
	app.Get("/api/monitoring/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/other", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestAPIMonitor_RecordsStatus(t *testing.T) {
	client := &captureClient{}
	app := newMonitoredApp(client)

	for _, path := range []string{"/api/ok", "/api/boom", "/api/missing", "/api/monitoring/health", "/other"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	// 健康检查和非 /api 路径不计入
	require.Len(t, client.calls, 3)
	assert.Equal(t, 200, client.calls[0].StatusCode)
	assert.Equal(t, 500, client.calls[1].StatusCode)
	assert.NotEmpty(t, client.calls[1].ErrorMessage)
	assert.Equal(t, 404, client.calls[2].StatusCode)
	assert.Equal(t, "/api/ok", client.calls[0].Path)
}

func TestErrHandler_Body(t *testing.T) {
	app := newMonitoredApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/missing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, jsonDecode(resp, &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(404), body["status"])
	assert.Equal(t, "不存在", body["message"])
}

func TestClassify_FiberError(t *testing.T) {
	status, msg := Classify(fiber.NewError(fiber.StatusMethodNotAllowed, "nope"))
	assert.Equal(t, 405, status)
	assert.Equal(t, "nope", msg)

	status, msg = Classify(errors.New("plain"))
	assert.Equal(t, 500, status)
	assert.Equal(t, "plain", msg)
}

func TestSkipMethods(t *testing.T) {
	client := &captureClient{}
	app := fiber.New()
	app.Use(NewAPIMonitorWithFilters(MonitorConfig{Client: client}, SkipMethods("options")))
	app.All("/api/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for _, method := range []string{"OPTIONS", "POST"} {
		resp, err := app.Test(httptest.NewRequest(method, "/api/ok", nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	require.Len(t, client.calls, 1)
	assert.Equal(t, "POST", client.calls[0].Method)
}

func TestCors_Preflight(t *testing.T) {
	app := fiber.New()
	app.Use(Cors())
	app.Post("/admin/monitoring/start", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/admin/monitoring/start", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
