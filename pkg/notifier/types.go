// Package notifier 告警外发通道：邮件、Slack、短信网关
package notifier

import (
	"context"
	"time"
)

type NotifierType string

const (
	NotifierTypeEmail NotifierType = "email"
	NotifierTypeSlack NotifierType = "slack"
	NotifierTypeSMS   NotifierType = "sms"
)

type NotificationLevel string

const (
	NotificationLevelInfo     NotificationLevel = "info"
	NotificationLevelWarning  NotificationLevel = "warning"
	NotificationLevelCritical NotificationLevel = "critical"
)

// Notification 一条告警对应一条通知；Labels 和 Data 由各通道自行决定是否展示
type Notification struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Level     NotificationLevel      `json:"level"`
	Labels    map[string]string      `json:"labels,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

type NotificationResult struct {
	NotificationID string       `json:"notification_id"`
	NotifierName   string       `json:"notifier_name"`
	NotifierType   NotifierType `json:"notifier_type"`
	Success        bool         `json:"success"`
	Error          string       `json:"error,omitempty"`
	Timestamp      int64        `json:"timestamp"`
	ResponseTime   int64        `json:"response_time,omitempty"` // 毫秒
}

// Notifier 的 Send 总是返回非空结果，失败时同时返回 error
type Notifier interface {
	Send(ctx context.Context, notification *Notification) (*NotificationResult, error)
	GetType() NotifierType
	GetName() string
}

func newResult(name string, typ NotifierType, notification *Notification) *NotificationResult {
	return &NotificationResult{
		NotificationID: notification.ID,
		NotifierName:   name,
		NotifierType:   typ,
		Timestamp:      time.Now().Unix(),
	}
}

func (r *NotificationResult) finish(start time.Time, err error) (*NotificationResult, error) {
	r.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		r.Error = err.Error()
		return r, err
	}
	r.Success = true
	return r, nil
}

// timeoutFrom 取 ctx 剩余时间和 def 中较小的一个
func timeoutFrom(ctx context.Context, def time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remain := time.Until(deadline); remain < def {
			return remain
		}
	}
	return def
}
