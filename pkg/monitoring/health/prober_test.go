package health

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stationery/pkg/monitoring/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestProbe_AllHealthy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	dir := t.TempDir()
	p := NewProber(ProberConfig{
		Pinger:        pingerFunc(func(context.Context) error { return nil }),
		ScratchDir:    dir,
		NetworkTarget: ln.Addr().String(),
		Logger:        zap.NewNop(),
	})

	report := p.Probe(context.Background())
	assert.Equal(t, models.StatusHealthy, report.Status)
	require.NotNil(t, report.Services)
	assert.Equal(t, models.ServiceHealthy, report.Services.Database)
	assert.Equal(t, models.ServiceHealthy, report.Services.Application)
	assert.Equal(t, models.ServiceHealthy, report.Services.Filesystem)
	assert.Equal(t, models.ServiceHealthy, report.Services.Network)

	// 临时文件已清理
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProbe_NotConfiguredDoesNotDegrade(t *testing.T) {
	p := NewProber(ProberConfig{ScratchDir: t.TempDir(), Logger: zap.NewNop()})

	report := p.Probe(context.Background())
	assert.Equal(t, models.StatusHealthy, report.Status)
	assert.Equal(t, models.ServiceNotConfigured, report.Services.Database)
	assert.Equal(t, models.ServiceNotConfigured, report.Services.Network)
}

func TestProbe_DatabaseTimeoutDegrades(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// 忽略 ctx 的慢查询
	p := NewProber(ProberConfig{
		Pinger: pingerFunc(func(context.Context) error {
			<-release
			return nil
		}),
		ScratchDir:      t.TempDir(),
		DatabaseTimeout: 50 * time.Millisecond,
		Logger:          zap.NewNop(),
	})

	start := time.Now()
	report := p.Probe(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, models.StatusDegraded, report.Status)
	assert.Equal(t, models.ServiceUnhealthy, report.Services.Database)
	assert.Equal(t, models.ServiceHealthy, report.Services.Filesystem)
}

func TestProbe_MultipleFailuresStayDegraded(t *testing.T) {
	dir := t.TempDir()
	// 用普通文件占住探测目录路径，写入必然失败
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	p := NewProber(ProberConfig{
		Pinger:        pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
		ScratchDir:    blocked,
		NetworkTarget: "10.255.255.1:9",
		Dial: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("unreachable")
		},
		Logger: zap.NewNop(),
	})

	report := p.Probe(context.Background())
	assert.Equal(t, models.StatusDegraded, report.Status)
	assert.Equal(t, models.ServiceUnhealthy, report.Services.Database)
	assert.Equal(t, models.ServiceUnhealthy, report.Services.Filesystem)
	assert.Equal(t, models.ServiceUnhealthy, report.Services.Network)
	assert.Equal(t, models.ServiceHealthy, report.Services.Application)
}

func TestProbe_PanicIsUnhealthy(t *testing.T) {
	p := NewProber(ProberConfig{
		ScratchDir:    t.TempDir(),
		NetworkTarget: "example:80",
		Dial: func(context.Context, string, string) (net.Conn, error) {
			panic("dialer broken")
		},
		Logger: zap.NewNop(),
	})

	report := p.Probe(context.Background())
	assert.Equal(t, models.StatusUnhealthy, report.Status)
	assert.Nil(t, report.Services)
	assert.Contains(t, report.Error, "dialer broken")
	assert.Equal(t, 503, report.Status.HTTPCode())
}
