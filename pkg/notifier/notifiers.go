package notifier

import (
	"stationery/pkg/core/config"

	"go.uber.org/zap"
)

// NewNotifiers 按配置创建已启用的通道，配置不完整的通道记录日志后跳过
func NewNotifiers(cfg config.MonitorConfig, logger *zap.Logger) []Notifier {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	var notifiers []Notifier

	if cfg.Email.Enabled {
		if n, err := NewEmailNotifier(cfg.Email, logger); err != nil {
			logger.Warn("邮件通道配置无效，已跳过", zap.Error(err))
		} else {
			notifiers = append(notifiers, n)
		}
	}
	if cfg.Slack.Enabled {
		if n, err := NewSlackNotifier(cfg.Slack, logger); err != nil {
			logger.Warn("Slack通道配置无效，已跳过", zap.Error(err))
		} else {
			notifiers = append(notifiers, n)
		}
	}
	if cfg.Sms.Enabled {
		if n, err := NewSMSNotifier(cfg.Sms, logger); err != nil {
			logger.Warn("短信通道配置无效，已跳过", zap.Error(err))
		} else {
			notifiers = append(notifiers, n)
		}
	}

	return notifiers
}
