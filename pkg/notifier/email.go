package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"stationery/pkg/core/config"

	"go.uber.org/zap"
)

// SendMailFunc 与 smtp.SendMail 签名一致
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailNotifier struct {
	cfg      config.EmailChannelConfig
	logger   *zap.Logger
	subject  *template.Template
	body     *template.Template
	sendMail SendMailFunc
}

const emailSubject = "【{{.Level}}】{{.Title}}"

const emailBody = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: {{levelColor .Level}};">【{{.Level}}】{{.Title}}</h2>
  <p>{{.Content}}</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0;">告警时间</td><td>{{formatTime .CreatedAt}}</td></tr>
    {{range $k, $v := .Labels}}<tr><td style="padding: 4px 12px 4px 0;">{{$k}}</td><td>{{$v}}</td></tr>
    {{end}}{{range $k, $v := .Data}}<tr><td style="padding: 4px 12px 4px 0;">{{$k}}</td><td>{{$v}}</td></tr>
    {{end}}
  </table>
  <p style="font-size: 12px; color: #999;">监控服务自动发送，请勿回复</p>
</body>
</html>
`

var levelColors = map[NotificationLevel]string{
	NotificationLevelInfo:     "#2196F3",
	NotificationLevelWarning:  "#FF9800",
	NotificationLevelCritical: "#F44336",
}

func NewEmailNotifier(cfg config.EmailChannelConfig, logger *zap.Logger) (*EmailNotifier, error) {
	switch {
	case len(cfg.Recipients) == 0:
		return nil, errors.New("收件人列表不能为空")
	case cfg.SMTPServer == "":
		return nil, errors.New("SMTP服务器地址不能为空")
	case cfg.SMTPPort == 0:
		return nil, errors.New("SMTP服务器端口不能为0")
	case cfg.From == "":
		return nil, errors.New("发件人地址不能为空")
	}

	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		"levelColor": func(l NotificationLevel) string { return levelColors[l] },
	}
	subject := template.Must(template.New("subject").Parse(emailSubject))
	body := template.Must(template.New("body").Funcs(funcs).Parse(emailBody))

	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{
		cfg:      cfg,
		logger:   logger,
		subject:  subject,
		body:     body,
		sendMail: smtp.SendMail,
	}, nil
}

// WithSendMail 测试时替换 SMTP 发送
func (n *EmailNotifier) WithSendMail(f SendMailFunc) *EmailNotifier {
	if f != nil {
		n.sendMail = f
	}
	return n
}

func (n *EmailNotifier) GetType() NotifierType { return NotifierTypeEmail }
func (n *EmailNotifier) GetName() string       { return string(NotifierTypeEmail) }

func (n *EmailNotifier) Send(ctx context.Context, notification *Notification) (*NotificationResult, error) {
	result := newResult(n.GetName(), NotifierTypeEmail, notification)
	start := time.Now()

	var subject, body bytes.Buffer
	if err := n.subject.Execute(&subject, notification); err != nil {
		return result.finish(start, fmt.Errorf("渲染邮件主题失败: %w", err))
	}
	if err := n.body.Execute(&body, notification); err != nil {
		return result.finish(start, fmt.Errorf("渲染邮件正文失败: %w", err))
	}

	if err := n.deliver(ctx, n.buildMessage(subject.String(), body.String())); err != nil {
		return result.finish(start, fmt.Errorf("发送邮件失败: %w", err))
	}

	n.logger.Info("邮件通知发送成功",
		zap.String("id", notification.ID),
		zap.Strings("recipients", n.cfg.Recipients))
	return result.finish(start, nil)
}

// buildMessage 主题按 RFC 2047 编码，正文为 UTF-8 HTML
func (n *EmailNotifier) buildMessage(subject, body string) []byte {
	headers := [][2]string{
		{"From", n.cfg.From},
		{"To", strings.Join(n.cfg.Recipients, ", ")},
		{"Subject", mime.QEncoding.Encode("UTF-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var msg bytes.Buffer
	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.Bytes()
}

// deliver net/smtp 不接受 ctx，超时后不再等待，后台发送自行结束
func (n *EmailNotifier) deliver(ctx context.Context, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" && n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPServer)
	}
	addr := n.cfg.SMTPServer + ":" + strconv.Itoa(n.cfg.SMTPPort)

	done := make(chan error, 1)
	go func() {
		done <- n.sendMail(addr, auth, n.cfg.From, n.cfg.Recipients, message)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
