package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stationery/pkg/core/config"
	"stationery/pkg/core/util"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const defaultChannelTimeout = 10 * time.Second

// SlackNotifier 通过 incoming webhook 推送到 Slack
type SlackNotifier struct {
	config  config.SlackChannelConfig
	logger  *zap.Logger
	name    string
	timeout time.Duration
}

type slackMessage struct {
	Text     string `json:"text"`
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
}

func NewSlackNotifier(cfg config.SlackChannelConfig, logger *zap.Logger) (*SlackNotifier, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New("Slack Webhook URL不能为空")
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &SlackNotifier{
		config:  cfg,
		logger:  logger,
		name:    "slack",
		timeout: defaultChannelTimeout,
	}, nil
}

// Send 发送 Slack 消息
func (n *SlackNotifier) Send(ctx context.Context, notification *Notification) (*NotificationResult, error) {
	result := newResult(n.name, NotifierTypeSlack, notification)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return result.finish(start, err)
	}

	msg := slackMessage{
		Text:     fmt.Sprintf("*[%s] %s*\n%s", notification.Level, notification.Title, notification.Content),
		Channel:  n.config.Channel,
		Username: n.config.Username,
	}

	h := util.NewHttp(n.config.WebhookURL, msg).WithTimeout(timeoutFrom(ctx, n.timeout))
	if err := h.Post(); err != nil {
		return result.finish(start, fmt.Errorf("发送Slack消息失败: %w", err))
	}

	// Slack 正常返回纯文本 ok，兼容返回 JSON 的网关
	body := h.Text()
	if gjson.Valid(body) {
		if ok := gjson.Get(body, "ok"); ok.Exists() && !ok.Bool() {
			return result.finish(start, fmt.Errorf("Slack返回失败: %s", gjson.Get(body, "error").String()))
		}
	}

	n.logger.Info("Slack通知发送成功",
		zap.String("id", notification.ID),
		zap.String("title", notification.Title))

	return result.finish(start, nil)
}

func (n *SlackNotifier) GetType() NotifierType {
	return NotifierTypeSlack
}

func (n *SlackNotifier) GetName() string {
	return n.name
}
