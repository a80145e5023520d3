package base

import (
	"stationery/pkg/core/logger"
	"stationery/pkg/core/security"
	"stationery/pkg/core/start"
	"stationery/pkg/core/tracer"
	"stationery/pkg/oss"
	"stationery/pkg/scheduler"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	Configures *start.Configures
	Logger     *logger.Log
	ZapLogger  *zap.Logger // 监控采集与告警通道使用
	ENV        string
	AdminAuth  *security.AdminAuth
	Tracer     tracer.Tracer
	DB         *gorm.DB
	RDB        *redis.Client
	Cache      *cache.Cache
	OSS        *oss.AliyunService
	Scheduler  *scheduler.Scheduler
)
