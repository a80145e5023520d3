package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stationery/pkg/monitoring/models"
	"stationery/pkg/notifier"

	"go.uber.org/zap"
)

const defaultSendTimeout = 15 * time.Second

// DispatchStatistics 累计的分发统计
type DispatchStatistics struct {
	TotalSent    int64 `json:"total_sent"`
	TotalSuccess int64 `json:"total_success"`
	TotalFailed  int64 `json:"total_failed"`
	LastSentAt   int64 `json:"last_sent_at"`
}

// Dispatcher 把告警扇出到所有已启用通道。
// 单个通道的失败（返回错误或 panic）只记录日志，不影响其他通道和其他告警，不重试。
type Dispatcher struct {
	channels []notifier.Notifier
	timeout  time.Duration
	logger   *zap.Logger

	mu    sync.RWMutex
	stats DispatchStatistics
}

func NewDispatcher(channels []notifier.Notifier, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Dispatcher{
		channels: channels,
		timeout:  timeout,
		logger:   logger,
	}
}

// Channels 已启用通道名称
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, c := range d.channels {
		names = append(names, c.GetName())
	}
	return names
}

// Dispatch 每个通道一个 goroutine，通道内按顺序逐条发送
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []models.Alert) []notifier.NotificationResult {
	if len(alerts) == 0 {
		return nil
	}
	if len(d.channels) == 0 {
		d.logger.Warn("没有可用的告警通道", zap.Int("alerts", len(alerts)))
		return nil
	}

	notifications := make([]*notifier.Notification, 0, len(alerts))
	for i := range alerts {
		notifications = append(notifications, toNotification(&alerts[i]))
	}

	results := make([]notifier.NotificationResult, 0, len(alerts)*len(d.channels))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch notifier.Notifier) {
			defer wg.Done()
			for _, n := range notifications {
				result := d.send(ctx, ch, n)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}(ch)
	}
	wg.Wait()

	d.updateStatistics(results)
	return results
}

func (d *Dispatcher) send(ctx context.Context, ch notifier.Notifier, n *notifier.Notification) (result notifier.NotificationResult) {
	result = notifier.NotificationResult{
		NotificationID: n.ID,
		NotifierName:   ch.GetName(),
		NotifierType:   ch.GetType(),
		Timestamp:      time.Now().Unix(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("通道发送panic: %v", r)
			d.logger.Error("告警通道发送panic",
				zap.String("channel", ch.GetName()),
				zap.String("alert", n.ID),
				zap.Any("panic", r))
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := ch.Send(sendCtx, n)
	if res != nil {
		result = *res
	}
	if err != nil {
		result.Success = false
		if result.Error == "" {
			result.Error = err.Error()
		}
		d.logger.Error("发送告警通知失败",
			zap.String("channel", ch.GetName()),
			zap.String("alert", n.ID),
			zap.Error(err))
		return result
	}
	if res == nil {
		result.Success = true
	}
	d.logger.Info("告警通知发送成功",
		zap.String("channel", ch.GetName()),
		zap.String("alert", n.ID))
	return result
}

func (d *Dispatcher) updateStatistics(results []notifier.NotificationResult) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.TotalSent += int64(len(results))
	d.stats.LastSentAt = time.Now().Unix()
	for _, r := range results {
		if r.Success {
			d.stats.TotalSuccess++
		} else {
			d.stats.TotalFailed++
		}
	}
}

// Statistics 获取分发统计
func (d *Dispatcher) Statistics() DispatchStatistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

func toNotification(a *models.Alert) *notifier.Notification {
	return &notifier.Notification{
		ID:        a.ID,
		Title:     fmt.Sprintf("监控告警: %s", a.Type),
		Content:   a.Message,
		Level:     notifier.NotificationLevel(a.Severity),
		CreatedAt: a.Timestamp,
		Labels: map[string]string{
			"type":     a.Type,
			"severity": string(a.Severity),
		},
		Data: map[string]interface{}{
			"value":     a.Value,
			"threshold": a.Threshold,
		},
	}
}
