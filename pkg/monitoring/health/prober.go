// Package health 依赖子系统健康探测
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"stationery/pkg/monitoring/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultDatabaseTimeout = 5 * time.Second
	defaultNetworkTimeout  = 3 * time.Second
)

type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ProberConfig Pinger 为空表示未配置数据库，NetworkTarget 为空表示不做网络探测
type ProberConfig struct {
	Pinger          Pinger
	ScratchDir      string
	NetworkTarget   string
	DatabaseTimeout time.Duration
	NetworkTimeout  time.Duration
	Dial            DialFunc
	Logger          *zap.Logger
	Now             func() time.Time
}

type Prober struct {
	cfg    ProberConfig
	logger *zap.Logger
}

func NewProber(cfg ProberConfig) *Prober {
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	if cfg.DatabaseTimeout <= 0 {
		cfg.DatabaseTimeout = defaultDatabaseTimeout
	}
	if cfg.NetworkTimeout <= 0 {
		cfg.NetworkTimeout = defaultNetworkTimeout
	}
	if cfg.Dial == nil {
		var d net.Dialer
		cfg.Dial = d.DialContext
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Prober{cfg: cfg, logger: logger}
}

// Probe 子项失败最多把整体状态降到 degraded；
// 只有探测过程本身出现 panic 时才返回 unhealthy，且不带子项明细。
func (p *Prober) Probe(ctx context.Context) (report models.HealthReport) {
	report.Timestamp = p.cfg.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("健康探测异常", zap.Any("panic", r))
			report = models.HealthReport{
				Timestamp: p.cfg.Now(),
				Status:    models.StatusUnhealthy,
				Error:     fmt.Sprint(r),
			}
		}
	}()

	services := &models.ServiceHealth{
		Database:    p.checkDatabase(ctx),
		Application: models.ServiceHealthy,
		Filesystem:  p.checkFilesystem(),
		Network:     p.checkNetwork(ctx),
	}

	report.Status = models.StatusHealthy
	for _, s := range []models.ServiceStatus{services.Database, services.Application, services.Filesystem, services.Network} {
		if s == models.ServiceUnhealthy {
			report.Status = models.StatusDegraded
			break
		}
	}
	report.Services = services
	return report
}

// checkDatabase pinger 不响应 ctx 时也会在超时后返回
func (p *Prober) checkDatabase(ctx context.Context) models.ServiceStatus {
	if p.cfg.Pinger == nil {
		return models.ServiceNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.DatabaseTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("ping panic: %v", r)
			}
		}()
		done <- p.cfg.Pinger.Ping(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Warn("数据库健康检查超时", zap.Duration("timeout", p.cfg.DatabaseTimeout))
		} else {
			p.logger.Warn("数据库健康检查失败", zap.Error(err))
		}
		return models.ServiceUnhealthy
	}
	return models.ServiceHealthy
}

// checkFilesystem 写入并删除一个临时文件
func (p *Prober) checkFilesystem() models.ServiceStatus {
	if err := os.MkdirAll(p.cfg.ScratchDir, 0o755); err != nil {
		p.logger.Warn("创建探测目录失败", zap.String("dir", p.cfg.ScratchDir), zap.Error(err))
		return models.ServiceUnhealthy
	}

	path := filepath.Join(p.cfg.ScratchDir, "health-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(path, []byte(p.cfg.Now().Format(time.RFC3339)), 0o644); err != nil {
		p.logger.Warn("文件系统写入检查失败", zap.String("path", path), zap.Error(err))
		return models.ServiceUnhealthy
	}
	if err := os.Remove(path); err != nil {
		p.logger.Warn("文件系统删除检查失败", zap.String("path", path), zap.Error(err))
		return models.ServiceUnhealthy
	}
	return models.ServiceHealthy
}

func (p *Prober) checkNetwork(ctx context.Context) models.ServiceStatus {
	if p.cfg.NetworkTarget == "" {
		return models.ServiceNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.NetworkTimeout)
	defer cancel()

	conn, err := p.cfg.Dial(ctx, "tcp", p.cfg.NetworkTarget)
	if err != nil {
		p.logger.Warn("网络连通性检查失败", zap.String("target", p.cfg.NetworkTarget), zap.Error(err))
		return models.ServiceUnhealthy
	}
	_ = conn.Close()
	return models.ServiceHealthy
}
