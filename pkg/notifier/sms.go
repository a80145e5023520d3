package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"stationery/pkg/core/config"
	"stationery/pkg/core/util"

	"go.uber.org/zap"
)

// 短信正文上限，超出部分截断
const smsMaxRunes = 300

// SMSNotifier 通过 JSON 短信网关发送告警
type SMSNotifier struct {
	config  config.SmsChannelConfig
	logger  *zap.Logger
	name    string
	timeout time.Duration
}

type smsRequest struct {
	Sender     string   `json:"sender,omitempty"`
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

func NewSMSNotifier(cfg config.SmsChannelConfig, logger *zap.Logger) (*SMSNotifier, error) {
	if cfg.GatewayURL == "" {
		return nil, errors.New("短信网关地址不能为空")
	}
	if len(cfg.Recipients) == 0 {
		return nil, errors.New("短信接收人不能为空")
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &SMSNotifier{
		config:  cfg,
		logger:  logger,
		name:    "sms",
		timeout: defaultChannelTimeout,
	}, nil
}

// Send 发送短信
func (n *SMSNotifier) Send(ctx context.Context, notification *Notification) (*NotificationResult, error) {
	result := newResult(n.name, NotifierTypeSMS, notification)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return result.finish(start, err)
	}

	req := smsRequest{
		Sender:     n.config.Sender,
		Recipients: n.config.Recipients,
		Message:    truncate(fmt.Sprintf("[%s] %s: %s", notification.Level, notification.Title, notification.Content), smsMaxRunes),
	}

	var headers []util.Header
	if n.config.ApiKey != "" {
		headers = append(headers, util.Header{Key: "Authorization", Value: "Bearer " + n.config.ApiKey})
	}

	h := util.NewHttp(n.config.GatewayURL, req, headers...).WithTimeout(timeoutFrom(ctx, n.timeout))
	if err := h.Post(); err != nil {
		return result.finish(start, fmt.Errorf("调用短信网关失败: %w", err))
	}

	res, err := h.Result()
	if err != nil {
		return result.finish(start, fmt.Errorf("解析短信网关响应失败: %w", err))
	}
	if success := res.Get("success"); success.Exists() && !success.Bool() {
		return result.finish(start, fmt.Errorf("短信网关返回失败: %s", res.Get("message").String()))
	}

	n.logger.Info("短信通知发送成功",
		zap.String("id", notification.ID),
		zap.Strings("recipients", n.config.Recipients))

	return result.finish(start, nil)
}

func (n *SMSNotifier) GetType() NotifierType {
	return NotifierTypeSMS
}

func (n *SMSNotifier) GetName() string {
	return n.name
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
