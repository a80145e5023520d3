// Package collector 采集主机、进程、数据库与请求指标
package collector

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	netutil "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// HostProvider 主机级计数器
type HostProvider interface {
	// CPUTimes 每个逻辑核的累计 tick
	CPUTimes(ctx context.Context) ([]cpu.TimesStat, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	LoadAverage(ctx context.Context) (*load.AvgStat, error)
	Uptime(ctx context.Context) (uint64, error)
	NetIO(ctx context.Context) ([]netutil.IOCountersStat, error)
}

// DiskStatProvider 按挂载路径读取磁盘用量
type DiskStatProvider interface {
	Usage(ctx context.Context, path string) (*disk.UsageStat, error)
}

// ProcessProvider 当前进程的常驻内存
type ProcessProvider interface {
	RSS(ctx context.Context) (uint64, error)
}

// GopsutilHost 基于 gopsutil 的主机指标实现
type GopsutilHost struct{}

func NewGopsutilHost() *GopsutilHost {
	return &GopsutilHost{}
}

func (GopsutilHost) CPUTimes(ctx context.Context) ([]cpu.TimesStat, error) {
	return cpu.TimesWithContext(ctx, true)
}

func (GopsutilHost) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (GopsutilHost) LoadAverage(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

func (GopsutilHost) Uptime(ctx context.Context) (uint64, error) {
	return host.UptimeWithContext(ctx)
}

func (GopsutilHost) NetIO(ctx context.Context) ([]netutil.IOCountersStat, error) {
	return netutil.IOCountersWithContext(ctx, false)
}

type GopsutilDisk struct{}

func NewGopsutilDisk() *GopsutilDisk {
	return &GopsutilDisk{}
}

func (GopsutilDisk) Usage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

// GopsutilProcess 读取指定进程的内存信息
type GopsutilProcess struct {
	pid int32
}

// NewGopsutilProcess 默认当前进程
func NewGopsutilProcess() *GopsutilProcess {
	return &GopsutilProcess{pid: int32(os.Getpid())}
}

func (p *GopsutilProcess) RSS(ctx context.Context) (uint64, error) {
	proc, err := process.NewProcessWithContext(ctx, p.pid)
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
