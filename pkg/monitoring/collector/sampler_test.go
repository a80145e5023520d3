package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"stationery/pkg/monitoring/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	netutil "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHost struct {
	cpuTimes [][]cpu.TimesStat
	calls    int
	memErr   error
	loadErr  error
	block    bool
}

func (f *fakeHost) CPUTimes(ctx context.Context) ([]cpu.TimesStat, error) {
	t := f.cpuTimes[f.calls]
	if f.calls < len(f.cpuTimes)-1 {
		f.calls++
	}
	return t, nil
}

func (f *fakeHost) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	if f.memErr != nil {
		return nil, f.memErr
	}
	return &mem.VirtualMemoryStat{Total: 8 * gb, Available: 2 * gb}, nil
}

func (f *fakeHost) LoadAverage(ctx context.Context) (*load.AvgStat, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &load.AvgStat{Load1: 1.5, Load5: 1.25, Load15: 1}, nil
}

func (f *fakeHost) Uptime(ctx context.Context) (uint64, error) {
	return 3600, nil
}

func (f *fakeHost) NetIO(ctx context.Context) ([]netutil.IOCountersStat, error) {
	return []netutil.IOCountersStat{{Name: "all", BytesSent: 10 * mb, BytesRecv: 20 * mb}}, nil
}

type fakeDisk struct {
	err error
}

func (f fakeDisk) Usage(ctx context.Context, path string) (*disk.UsageStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &disk.UsageStat{Path: path, Total: 100 * gb, Used: 91 * gb, Free: 9 * gb}, nil
}

type fakeProcess struct{}

func (fakeProcess) RSS(ctx context.Context) (uint64, error) {
	return 64 * mb, nil
}

type fakeDB struct {
	err error
}

func (f fakeDB) Stats(ctx context.Context) (*DatabaseStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &DatabaseStats{ActiveConnections: 12, TotalQueries: 1000, SlowQueries: 2, SizeMB: 48.5}, nil
}

type panicDB struct{}

func (panicDB) Stats(ctx context.Context) (*DatabaseStats, error) {
	panic("driver bug")
}

func newHost() *fakeHost {
	return &fakeHost{cpuTimes: [][]cpu.TimesStat{
		{{CPU: "cpu0", User: 50, Idle: 50}},
		{{CPU: "cpu0", User: 60, Idle: 140}},
	}}
}

func TestSampler_Sample(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRequestRecorder(time.Minute)
	rec.RecordAPICall(&RequestSample{Timestamp: now.Add(-time.Second), DurationMs: 120, StatusCode: 200})

	s := NewSampler(SamplerConfig{
		Host:     newHost(),
		Disk:     fakeDisk{},
		Process:  fakeProcess{},
		Database: fakeDB{},
		Requests: rec,
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return now },
	})

	sample := s.Sample(context.Background())
	assert.Equal(t, now, sample.Timestamp)
	assert.Equal(t, 50.0, sample.System.CPUPercent)
	assert.Equal(t, models.MemoryMetrics{TotalMB: 8192, FreeMB: 2048, UsedMB: 6144, Percent: 75}, sample.System.Memory)
	assert.Equal(t, 91.0, sample.System.Disk.Percent)
	assert.Equal(t, 100.0, sample.System.Disk.TotalGB)
	assert.Equal(t, []float64{1.5, 1.25, 1}, sample.System.LoadAverage)
	assert.Equal(t, uint64(3600), sample.System.UptimeSeconds)
	assert.Equal(t, 10.0, sample.System.Network.BytesSentMB)
	assert.Equal(t, models.DatabaseConnected, sample.Database.Status)
	assert.Equal(t, 12.0, sample.Database.ActiveConnections)
	assert.Equal(t, 64.0, sample.Application.RSSMB)
	assert.NotZero(t, sample.Application.PID)
	assert.Equal(t, 120.0, sample.Performance.AvgResponseTimeMs)

	// 第二次采样按差值计算: 10 个 busy tick / 100 个总 tick
	second := s.Sample(context.Background())
	assert.Equal(t, 10.0, second.System.CPUPercent)
}

func TestSampler_PartialFailure(t *testing.T) {
	host := newHost()
	host.memErr = errors.New("no meminfo")
	host.loadErr = errors.New("unsupported")

	s := NewSampler(SamplerConfig{
		Host:     host,
		Disk:     fakeDisk{err: errors.New("df failed")},
		Process:  fakeProcess{},
		Database: fakeDB{err: errors.New("connection refused")},
		Logger:   zap.NewNop(),
	})

	sample := s.Sample(context.Background())
	require.NotNil(t, sample)
	assert.Equal(t, models.MemoryMetrics{}, sample.System.Memory)
	assert.Equal(t, models.DiskMetrics{}, sample.System.Disk)
	assert.Equal(t, []float64{0, 0, 0}, sample.System.LoadAverage)
	assert.Equal(t, models.DatabaseMetrics{Status: models.DatabaseError}, sample.Database)
	// 其他子项不受影响
	assert.Equal(t, 50.0, sample.System.CPUPercent)
	assert.Equal(t, 64.0, sample.Application.RSSMB)
}

func TestSampler_DatabaseNotConfigured(t *testing.T) {
	s := NewSampler(SamplerConfig{
		Host:    newHost(),
		Disk:    fakeDisk{},
		Process: fakeProcess{},
		Logger:  zap.NewNop(),
	})
	sample := s.Sample(context.Background())
	assert.Equal(t, models.DatabaseNotConfigured, sample.Database.Status)
	assert.Zero(t, sample.Database.ActiveConnections)
}

func TestSampler_ProbeTimeout(t *testing.T) {
	host := newHost()
	host.block = true

	s := NewSampler(SamplerConfig{
		Host:         host,
		Disk:         fakeDisk{},
		Process:      fakeProcess{},
		ProbeTimeout: 20 * time.Millisecond,
		Logger:       zap.NewNop(),
	})

	start := time.Now()
	sample := s.Sample(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []float64{0, 0, 0}, sample.System.LoadAverage)
	assert.Equal(t, 75.0, sample.System.Memory.Percent)
}

func TestSampler_ProviderPanic(t *testing.T) {
	s := NewSampler(SamplerConfig{
		Host:     newHost(),
		Disk:     fakeDisk{},
		Process:  fakeProcess{},
		Database: panicDB{},
		Logger:   zap.NewNop(),
	})

	var sample *models.MetricSample
	require.NotPanics(t, func() {
		sample = s.Sample(context.Background())
	})
	require.NotNil(t, sample)
	assert.Equal(t, models.DatabaseError, sample.Database.Status)
	assert.Equal(t, 75.0, sample.System.Memory.Percent)
}
