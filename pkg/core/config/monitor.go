package config

// MonitorConfig 运维监控配置
type MonitorConfig struct {
	Interval       int    `yaml:"interval"`        // 采样间隔（秒）
	HealthInterval int    `yaml:"health-interval"` // 健康探测间隔（秒）
	RetentionDays  int    `yaml:"retention-days"`  // 指标保留天数
	MetricsDir     string `yaml:"metrics-dir"`
	ReportsDir     string `yaml:"reports-dir"`
	ScratchDir     string `yaml:"scratch-dir"`
	DiskPath       string `yaml:"disk-path"`
	NetworkTarget  string `yaml:"network-target"` // host:port，为空表示不探测
	ReportCron     string `yaml:"report-cron"`
	PruneCron      string `yaml:"prune-cron"`
	ArchivePrefix  string `yaml:"archive-prefix"`
	AutoStart      bool   `yaml:"auto-start"` // 启动后立即开始采样

	Email      EmailChannelConfig `yaml:"email"`
	Slack      SlackChannelConfig `yaml:"slack"`
	Sms        SmsChannelConfig   `yaml:"sms"`
	Thresholds map[string]float64 `yaml:"thresholds"`
}

type EmailChannelConfig struct {
	Enabled    bool     `yaml:"enabled"`
	SMTPServer string   `yaml:"smtp-server"`
	SMTPPort   int      `yaml:"smtp-port"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
}

type SlackChannelConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook-url"`
	Channel    string `yaml:"channel"`
	Username   string `yaml:"username"`
}

type SmsChannelConfig struct {
	Enabled    bool     `yaml:"enabled"`
	GatewayURL string   `yaml:"gateway-url"`
	ApiKey     string   `yaml:"api-key"`
	Sender     string   `yaml:"sender"`
	Recipients []string `yaml:"recipients"`
}

// WithDefaults 补齐未配置的默认值
func (c MonitorConfig) WithDefaults() MonitorConfig {
	if c.Interval <= 0 {
		c.Interval = 60
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 300
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.MetricsDir == "" {
		c.MetricsDir = "./data/metrics"
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "./data/reports"
	}
	if c.ScratchDir == "" {
		c.ScratchDir = "./data/tmp"
	}
	if c.DiskPath == "" {
		c.DiskPath = "/"
	}
	if c.ReportCron == "" {
		c.ReportCron = "0 5 0 * * *"
	}
	if c.PruneCron == "" {
		c.PruneCron = "0 0 2 * * *"
	}
	if c.ArchivePrefix == "" {
		c.ArchivePrefix = "monitoring/reports"
	}
	return c
}
