package http

import (
	"stationery/base"
	errorc "stationery/pkg/core/err"
	"stationery/pkg/core/logger"
	"stationery/pkg/core/result"
	"stationery/pkg/core/security"
	"stationery/pkg/core/util"
	"stationery/system/monitoring/api/dto"
	internalapp "stationery/system/monitoring/internal/app"
	"stationery/utils"

	"github.com/gofiber/fiber/v2"
)

// MonitoringAdminController 运维监控后台接口
type MonitoringAdminController struct {
	app *internalapp.App
	err *errorc.ErrorBuilder
	log *logger.Log
}

func NewMonitoringAdminController(app *internalapp.App) *MonitoringAdminController {
	return &MonitoringAdminController{
		app: app,
		err: errorc.NewErrorBuilder("MonitoringAdminController"),
		log: logger.GetLogger().WithEntryName("MonitoringAdminController"),
	}
}

// RegisterRoutes 注册路由
func (c *MonitoringAdminController) RegisterRoutes(admin fiber.Router) {
	read := base.AdminAuth.RequireAdminAuth("admin:monitoring:read")
	write := base.AdminAuth.RequireAdminAuth("admin:monitoring:write")

	router := admin.Group("/monitoring")
	router.Get("/status", read, c.Status)
	router.Get("/metrics", read, c.Metrics)
	router.Get("/metrics/history", read, c.History)
	router.Get("/alerts", read, c.Alerts)
	router.Get("/reports/daily", read, c.DailyReport)
	router.Get("/dashboard", read, c.Dashboard)
	router.Post("/start", write, c.Start)
	router.Post("/stop", write, c.Stop)
	router.Post("/thresholds", write, c.SetThresholds)
	router.Post("/collect", write, c.Collect)
}

func (c *MonitoringAdminController) Status(ctx *fiber.Ctx) error {
	return result.OK(ctx, c.app.Status())
}

// Metrics 最近一次采样
func (c *MonitoringAdminController) Metrics(ctx *fiber.Ctx) error {
	sample, err := c.app.LatestMetrics()
	if err != nil {
		return err
	}
	return result.OK(ctx, sample)
}

// History 最近 N 天的指标，默认 7 天
func (c *MonitoringAdminController) History(ctx *fiber.Ctx) error {
	var req dto.HistoryQuery
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析查询参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.Entry)
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.Entry)
	}

	history, err := c.app.History(util.Context(ctx), req.Days)
	if err != nil {
		return err
	}
	return result.OK(ctx, history)
}

func (c *MonitoringAdminController) Alerts(ctx *fiber.Ctx) error {
	return result.OK(ctx, c.app.Alerts())
}

// DailyReport 指定日期的日报，未传日期时返回前一天
func (c *MonitoringAdminController) DailyReport(ctx *fiber.Ctx) error {
	var req dto.DailyReportQuery
	if err := ctx.QueryParser(&req); err != nil {
		return c.err.New("解析查询参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.Entry)
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.Entry)
	}

	summary, err := c.app.DailyReport(util.Context(ctx), req.Date)
	if err != nil {
		return err
	}
	return result.OK(ctx, summary)
}

func (c *MonitoringAdminController) Dashboard(ctx *fiber.Ctx) error {
	return result.OK(ctx, c.app.Dashboard(util.Context(ctx)))
}

func (c *MonitoringAdminController) Start(ctx *fiber.Ctx) error {
	res := c.app.Start()
	c.operationLog(ctx, "start", res)
	return result.OK(ctx, res)
}

func (c *MonitoringAdminController) Stop(ctx *fiber.Ctx) error {
	res := c.app.Stop()
	c.operationLog(ctx, "stop", res)
	return result.OK(ctx, res)
}

// SetThresholds 局部更新阈值，返回合并后的完整阈值
func (c *MonitoringAdminController) SetThresholds(ctx *fiber.Ctx) error {
	var req dto.ThresholdsReq
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.Entry)
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).ValidWithCtx().WithTraceID(util.Context(ctx)).ToLog(c.log.Entry)
	}

	merged, err := c.app.SetThresholds(util.Context(ctx), *req.Thresholds)
	if err != nil {
		return err
	}
	return result.OK(ctx, merged)
}

// Collect 立即执行一轮采样
func (c *MonitoringAdminController) Collect(ctx *fiber.Ctx) error {
	res, err := c.app.Collect(util.Context(ctx))
	if err != nil {
		return err
	}
	return result.OK(ctx, res)
}

func (c *MonitoringAdminController) operationLog(ctx *fiber.Ctx, action string, res dto.ToggleDTO) {
	account, _ := security.GetAdminAccountByCtx(ctx.UserContext())
	c.log.WithTrace(util.Context(ctx)).
		WithField("action", action).
		WithField("account", account).
		WithField("success", res.Success).
		Info(res.Message)
}
