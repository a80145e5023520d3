package app

import (
	"context"
	"fmt"
	"time"

	"stationery/pkg/scheduler"
)

const (
	healthTimeout = 30 * time.Second
	reportTimeout = 10 * time.Minute
	pruneTimeout  = 5 * time.Minute
)

// RegisterTasks 注册定时任务，调度器需已启动。
// 只有采样受监控开关控制，健康探测、日报、清理始终执行
func (a *App) RegisterTasks(s *scheduler.Scheduler) error {
	a.scheduler = s
	now := time.Now()

	sampling := scheduler.NewIntervalTask("monitoring-sampling", now.Add(a.Interval()), a.Interval(),
		scheduler.TaskExecuteModeLocal, a.Interval(), a.guard("monitoring-sampling", a.sampleTick))

	healthInterval := time.Duration(a.cfg.HealthInterval) * time.Second
	probe := scheduler.NewIntervalTask("monitoring-health", now, healthInterval,
		scheduler.TaskExecuteModeLocal, healthTimeout, a.guard("monitoring-health", func(ctx context.Context) error {
			a.HealthService.Probe(ctx)
			return nil
		}))

	// 多实例部署时日报只需生成一份
	report, err := scheduler.NewCronTask("monitoring-daily-report", a.cfg.ReportCron,
		scheduler.TaskExecuteModeDistributed, reportTimeout, a.guard("monitoring-daily-report", a.ReportService.GenerateYesterday))
	if err != nil {
		return fmt.Errorf("日报任务 cron 表达式无效: %w", err)
	}

	prune, err := scheduler.NewCronTask("monitoring-prune", a.cfg.PruneCron,
		scheduler.TaskExecuteModeLocal, pruneTimeout, a.guard("monitoring-prune", func(ctx context.Context) error {
			_, err := a.RetentionService.Prune(ctx)
			return err
		}))
	if err != nil {
		return fmt.Errorf("清理任务 cron 表达式无效: %w", err)
	}

	for _, task := range []scheduler.Task{sampling, probe, report, prune} {
		if err := s.AddTask(task); err != nil {
			return fmt.Errorf("注册任务 %s 失败: %w", task.GetName(), err)
		}
	}

	a.log.WithField("interval", a.cfg.Interval).
		WithField("reportCron", a.cfg.ReportCron).
		WithField("pruneCron", a.cfg.PruneCron).
		Info("监控定时任务已注册")
	return nil
}

// sampleTick 监控关闭时本轮直接跳过
func (a *App) sampleTick(ctx context.Context) error {
	if !a.State.IsMonitoring() {
		return nil
	}
	_, err := a.CycleService.Run(ctx)
	return err
}

// guard 任务内 panic 只记录日志，当作本轮空跑，下一轮照常执行
func (a *App) guard(name string, fn scheduler.TaskFunc) scheduler.TaskFunc {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				a.log.WithField("task", name).WithField("panic", fmt.Sprint(r)).Error("定时任务异常")
				err = nil
			}
		}()
		return fn(ctx)
	}
}
