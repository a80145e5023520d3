package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stationery/app"
	"stationery/base"
	"stationery/pkg/core/start"
	"stationery/pkg/core/system"
	"stationery/pkg/lock"
	"stationery/pkg/oss"
	"stationery/pkg/scheduler"
	"stationery/router"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	env := flag.String("env", "dev", "运行环境 (dev, test, prod)")
	configFile := flag.String("config", "", "配置文件路径，默认 ./resources/{env}.yaml")
	flag.Parse()

	path := *configFile
	if path == "" {
		path = filepath.Join("resources", *env+".yaml")
	}
	file, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("读取配置文件 %s 失败: %v", path, err))
	}

	configures := start.NewConfigures(file, *env)
	base.Configures = configures
	base.Logger = configures.Logger
	base.ENV = *env
	base.AdminAuth = configures.AdminAuth
	base.Tracer = configures.EnableTracer()

	if base.ZapLogger, err = newZapLogger(*env); err != nil {
		base.Logger.Panic(fmt.Sprintf("创建 zap logger 失败: %v", err))
	}
	system.RegisterClose(func() { _ = base.ZapLogger.Sync() })

	initStores(configures)
	initScheduler(configures)

	appRoot := app.NewApp()
	if err := appRoot.MonitoringModule.RegisterTasks(base.Scheduler); err != nil {
		base.Logger.Panic(fmt.Sprintf("注册监控定时任务失败: %v", err))
	}
	if configures.Config.Monitor.AutoStart {
		appRoot.MonitoringModule.StartMonitoring()
	}

	fiberApp := app.GetApp(appRoot)
	router.Register(appRoot, fiberApp)
	system.RegisterClose(func() {
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			base.Logger.WithErr(err).Error("关闭 HTTP 服务失败")
		}
	})

	addr := fmt.Sprintf(":%d", configures.Config.Port)
	base.Logger.Infof("HTTP 服务启动，监听地址: %s", addr)
	if err := fiberApp.Listen(addr); err != nil {
		base.Logger.WithErr(err).Error("HTTP 服务异常退出")
		system.Shutdown()
		os.Exit(1)
	}
}

// initStores 数据库、redis、OSS 都是可选的，缺失时对应功能降级
func initStores(configures *start.Configures) {
	if base.DB = configures.EnableDatabase(); base.DB != nil {
		system.RegisterClose(func() {
			if sqlDB, err := base.DB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	}

	if base.RDB = configures.EnableRedis(); base.RDB != nil {
		base.Cache = configures.EnableCache(base.RDB)
		system.RegisterClose(func() { _ = base.RDB.Close() })
	}

	if configures.Config.Oss.Enabled() {
		svc, err := oss.NewAliyunService(&configures.Config.Oss)
		if err != nil {
			base.Logger.WithErr(err).Warn("初始化 OSS 失败，日报不归档")
		} else {
			base.OSS = svc
		}
	}
}

// initScheduler 有 redis 时多实例竞争领导者，分布式任务只在一个实例上执行
func initScheduler(configures *start.Configures) {
	var lockManager lock.LockManager = lock.NewLocalLockManager()
	if locker := configures.EnableLocker(base.RDB); locker != nil {
		lockManager = lock.NewRedisLockManager(locker)
	}

	base.Scheduler = scheduler.NewScheduler(lockManager, scheduler.DefaultSchedulerConfig())
	if err := base.Scheduler.Start(); err != nil {
		base.Logger.Panic(fmt.Sprintf("启动调度器失败: %v", err))
	}
	system.RegisterClose(func() {
		if err := base.Scheduler.Stop(); err != nil {
			base.Logger.WithErr(err).Error("停止调度器失败")
		}
		_ = lockManager.Close()
	})

	// 开发环境经代理连库，空闲连接容易被代理断开
	if base.ENV == "dev" && base.DB != nil {
		keepAlive := scheduler.NewIntervalTask("db-keepalive", time.Now(), 10*time.Second,
			scheduler.TaskExecuteModeLocal, 5*time.Second, func(ctx context.Context) error {
				sqlDB, err := base.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			})
		if err := base.Scheduler.AddTask(keepAlive); err != nil {
			base.Logger.WithErr(err).Warn("添加数据库保活任务失败")
		}
	}
}

// newZapLogger 采集器与告警通道使用
func newZapLogger(env string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
