package collector

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"
	"time"

	"stationery/pkg/monitoring/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	mb = 1024 * 1024
	gb = 1024 * 1024 * 1024
)

// SamplerConfig Host/Disk/Process 为空时使用 gopsutil 实现；Database 为空表示未配置数据库
type SamplerConfig struct {
	Host         HostProvider
	Disk         DiskStatProvider
	Process      ProcessProvider
	Database     DatabaseStatsProvider
	Requests     *RequestRecorder
	DiskPath     string
	ProbeTimeout time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// Sampler 每个周期生成一份 MetricSample，子项失败时填零继续
type Sampler struct {
	cfg       SamplerConfig
	logger    *zap.Logger
	startTime time.Time

	mu      sync.Mutex
	prevCPU []cpu.TimesStat
}

func NewSampler(cfg SamplerConfig) *Sampler {
	if cfg.Host == nil {
		cfg.Host = NewGopsutilHost()
	}
	if cfg.Disk == nil {
		cfg.Disk = NewGopsutilDisk()
	}
	if cfg.Process == nil {
		cfg.Process = NewGopsutilProcess()
	}
	if cfg.DiskPath == "" {
		cfg.DiskPath = "/"
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Sampler{
		cfg:       cfg,
		logger:    logger,
		startTime: cfg.Now(),
	}
}

// Sample 并发执行各子采集项，单项超时或失败不影响其他项
func (s *Sampler) Sample(ctx context.Context) *models.MetricSample {
	now := s.cfg.Now()
	sample := &models.MetricSample{
		Timestamp: now,
		System: models.SystemMetrics{
			LoadAverage: []float64{0, 0, 0},
		},
		Database: models.DatabaseMetrics{Status: models.DatabaseNotConfigured},
	}

	var g errgroup.Group
	g.Go(func() error {
		sample.System.CPUPercent = s.sampleCPU(ctx)
		return nil
	})
	g.Go(func() error {
		sample.System.Memory = s.sampleMemory(ctx)
		return nil
	})
	g.Go(func() error {
		sample.System.Disk = s.sampleDisk(ctx)
		return nil
	})
	g.Go(func() error {
		sample.System.Network = s.sampleNetwork(ctx)
		return nil
	})
	g.Go(func() error {
		if avg, err := probe(ctx, s.cfg.ProbeTimeout, s.cfg.Host.LoadAverage); err != nil {
			s.logger.Warn("采集系统负载失败", zap.Error(err))
		} else {
			sample.System.LoadAverage = []float64{round2(avg.Load1), round2(avg.Load5), round2(avg.Load15)}
		}
		return nil
	})
	g.Go(func() error {
		if uptime, err := probe(ctx, s.cfg.ProbeTimeout, s.cfg.Host.Uptime); err != nil {
			s.logger.Warn("采集系统运行时间失败", zap.Error(err))
		} else {
			sample.System.UptimeSeconds = uptime
		}
		return nil
	})
	g.Go(func() error {
		sample.Database = s.sampleDatabase(ctx)
		return nil
	})
	g.Go(func() error {
		sample.Application = s.sampleApplication(ctx, now)
		return nil
	})
	_ = g.Wait()

	if s.cfg.Requests != nil {
		sample.Performance = s.cfg.Requests.Snapshot(now)
	}
	return sample
}

func (s *Sampler) sampleCPU(ctx context.Context) float64 {
	times, err := probe(ctx, s.cfg.ProbeTimeout, s.cfg.Host.CPUTimes)
	if err != nil {
		s.logger.Warn("采集CPU指标失败", zap.Error(err))
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	usage := CPUUsage(s.prevCPU, times)
	s.prevCPU = times
	return usage
}

func (s *Sampler) sampleMemory(ctx context.Context) models.MemoryMetrics {
	vm, err := probe(ctx, s.cfg.ProbeTimeout, s.cfg.Host.VirtualMemory)
	if err != nil {
		s.logger.Warn("采集内存指标失败", zap.Error(err))
		return models.MemoryMetrics{}
	}
	if vm.Total == 0 {
		return models.MemoryMetrics{}
	}

	free := vm.Available
	if free > vm.Total {
		free = vm.Total
	}
	used := vm.Total - free
	return models.MemoryMetrics{
		TotalMB: round2(float64(vm.Total) / mb),
		FreeMB:  round2(float64(free) / mb),
		UsedMB:  round2(float64(used) / mb),
		Percent: math.Round(float64(used) / float64(vm.Total) * 100),
	}
}

func (s *Sampler) sampleDisk(ctx context.Context) models.DiskMetrics {
	usage, err := probe(ctx, s.cfg.ProbeTimeout, func(ctx context.Context) (*diskUsage, error) {
		u, err := s.cfg.Disk.Usage(ctx, s.cfg.DiskPath)
		if err != nil {
			return nil, err
		}
		return &diskUsage{total: u.Total, free: u.Free, used: u.Used}, nil
	})
	if err != nil {
		s.logger.Warn("采集磁盘指标失败", zap.String("path", s.cfg.DiskPath), zap.Error(err))
		return models.DiskMetrics{}
	}
	if usage.total == 0 {
		return models.DiskMetrics{}
	}

	return models.DiskMetrics{
		TotalGB: round2(float64(usage.total) / gb),
		FreeGB:  round2(float64(usage.free) / gb),
		UsedGB:  round2(float64(usage.used) / gb),
		Percent: math.Round(float64(usage.used) / float64(usage.total) * 100),
	}
}

type diskUsage struct {
	total, free, used uint64
}

func (s *Sampler) sampleNetwork(ctx context.Context) models.NetworkMetrics {
	counters, err := probe(ctx, s.cfg.ProbeTimeout, s.cfg.Host.NetIO)
	if err != nil {
		s.logger.Warn("采集网络指标失败", zap.Error(err))
		return models.NetworkMetrics{}
	}

	var sent, recv uint64
	for _, c := range counters {
		sent += c.BytesSent
		recv += c.BytesRecv
	}
	return models.NetworkMetrics{
		BytesSentMB: round2(float64(sent) / mb),
		BytesRecvMB: round2(float64(recv) / mb),
	}
}

func (s *Sampler) sampleDatabase(ctx context.Context) models.DatabaseMetrics {
	if s.cfg.Database == nil {
		return models.DatabaseMetrics{Status: models.DatabaseNotConfigured}
	}

	stats, err := probe(ctx, s.cfg.ProbeTimeout, s.cfg.Database.Stats)
	if err != nil {
		s.logger.Warn("采集数据库指标失败", zap.Error(err))
		return models.DatabaseMetrics{Status: models.DatabaseError}
	}
	return models.DatabaseMetrics{
		ActiveConnections: stats.ActiveConnections,
		TotalQueries:      stats.TotalQueries,
		SlowQueries:       stats.SlowQueries,
		SizeMB:            stats.SizeMB,
		Status:            models.DatabaseConnected,
	}
}

func (s *Sampler) sampleApplication(ctx context.Context, now time.Time) models.ApplicationMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	app := models.ApplicationMetrics{
		HeapUsedMB:    round2(float64(ms.HeapAlloc) / mb),
		UptimeSeconds: math.Round(now.Sub(s.startTime).Seconds()),
		PID:           os.Getpid(),
	}

	if rss, err := probe(ctx, s.cfg.ProbeTimeout, s.cfg.Process.RSS); err != nil {
		s.logger.Warn("采集进程内存失败", zap.Error(err))
	} else {
		app.RSSMB = round2(float64(rss) / mb)
	}
	return app
}

// probe 在超时内执行 fn；超时后直接返回，fn 的结果被丢弃。fn 内的 panic 按失败处理
func probe[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("probe panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
