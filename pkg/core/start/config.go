package start

import (
	"fmt"
	"net"
	"time"

	"stationery/pkg/core/config"
	"stationery/pkg/core/logger"
	"stationery/pkg/core/security"
	"stationery/pkg/core/tracer"

	"github.com/bsm/redislock"
	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Config struct {
	AppName    string               `yaml:"app-name"`
	Env        string               `yaml:"env"`
	Host       string               `yaml:"host"`
	Port       int                  `yaml:"port"`
	OpsWebhook string               `yaml:"ops-webhook"`
	Jwt        config.JwtConfig     `yaml:"jwt"`
	Redis      config.RedisConfig   `yaml:"redis"`
	Database   config.Database      `yaml:"db"`
	Oss        config.OssConfig     `yaml:"oss"`
	Log        config.LogConfig     `yaml:"log"`
	Zipkin     config.ZipkinConfig  `yaml:"zipkin"`
	Proxy      config.ProxyConfig   `yaml:"proxy"`
	Monitor    config.MonitorConfig `yaml:"monitor"`
}

type Configures struct {
	Config    Config
	Logger    *logger.Log
	AdminAuth *security.AdminAuth
}

func NewConfigures(file []byte, env string) *Configures {
	cfg, err := ParseConfig(file, env)
	if err != nil {
		panic(fmt.Sprintf("读取文件信息失败，因为%v", err))
	}

	level := cfg.Log.Level
	if level == "" {
		level = "debug"
	}

	c := &Configures{
		Config: *cfg,
		Logger: logger.InitLogger(level),
	}

	if cfg.Log.Sls {
		c.Logger.Send2Cloud(cfg.AppName, cfg.Host, cfg.Log)
	}

	c.AdminAuth = c.EnableAdminAuth()

	return c
}

// ParseConfig 解析 YAML 配置，再用环境变量覆盖
func ParseConfig(file []byte, env string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	cfg.Env = env
	cfg.Host, _ = getLocalIP()
	if cfg.AppName == "" {
		cfg.AppName = "stationery-monitor"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	applyEnv(&cfg)
	cfg.Monitor = cfg.Monitor.WithDefaults()

	return &cfg, nil
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(cfg *Config) {
	v := viper.New()
	v.AutomaticEnv()

	if v.IsSet("DB_HOST") {
		cfg.Database.Host = v.GetString("DB_HOST")
	}
	if v.IsSet("DB_PORT") {
		cfg.Database.Port = v.GetInt64("DB_PORT")
	}
	if v.IsSet("DB_USER") {
		cfg.Database.User = v.GetString("DB_USER")
	}
	if v.IsSet("DB_PASSWORD") {
		cfg.Database.Password = v.GetString("DB_PASSWORD")
	}
	if v.IsSet("DB_NAME") {
		cfg.Database.DbName = v.GetString("DB_NAME")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
		if cfg.Database.GetDialect() == config.DialectPostgres {
			cfg.Database.Port = 5432
		}
	}

	if v.IsSet("MONITOR_INTERVAL") {
		cfg.Monitor.Interval = v.GetInt("MONITOR_INTERVAL")
	}
	if v.IsSet("METRICS_RETENTION_DAYS") {
		cfg.Monitor.RetentionDays = v.GetInt("METRICS_RETENTION_DAYS")
	}
	if v.IsSet("MONITOR_EMAIL_ENABLED") {
		cfg.Monitor.Email.Enabled = v.GetBool("MONITOR_EMAIL_ENABLED")
	}
	if v.IsSet("MONITOR_SLACK_ENABLED") {
		cfg.Monitor.Slack.Enabled = v.GetBool("MONITOR_SLACK_ENABLED")
	}
	if v.IsSet("MONITOR_SMS_ENABLED") {
		cfg.Monitor.Sms.Enabled = v.GetBool("MONITOR_SMS_ENABLED")
	}
}

// getLocalIP 获取本机IP地址（优先获取内网IP）
func getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil && ipnet.IP.IsPrivate() {
				return ipnet.IP.String(), nil
			}
		}
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "127.0.0.1", nil
}

func (c *Configures) EnableAdminAuth() *security.AdminAuth {
	return security.NewAdminAuth([]byte(c.Config.Jwt.AdminSecret), time.Duration(c.Config.Jwt.ExpireTime)*24*time.Hour)
}

func (c *Configures) EnableTracer() tracer.Tracer {
	return tracer.New(c.Config.Zipkin, c.Config.AppName, c.Config.Host)
}

// EnableRedis 未配置 redis 时返回 nil
func (c *Configures) EnableRedis() *redis.Client {
	if !c.Config.Redis.Enabled() {
		return nil
	}
	return config.NewRedisClient(c.Config.Redis, c.Config.Proxy)
}

func (c *Configures) EnableCache(rdb *redis.Client) *cache.Cache {
	if rdb == nil {
		return nil
	}
	return cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(1000, time.Minute),
	})
}

func (c *Configures) EnableLocker(rdb *redis.Client) *redislock.Client {
	if rdb == nil {
		return nil
	}
	return redislock.New(rdb)
}

// EnableDatabase 按 dialect 初始化数据库，未配置连接参数时返回 nil
func (c *Configures) EnableDatabase() *gorm.DB {
	if !c.Config.Database.Configured() {
		c.Logger.Warn("未配置数据库连接参数，数据库相关指标将标记为 not_configured")
		return nil
	}

	db, err := config.OpenDatabase(c.Config.Database, c.Config.Proxy)
	if err != nil {
		c.Logger.WithField("database", c.Config.Database.Host).WithErr(err).Error("初始化数据库连接失败")
		return nil
	}
	c.Logger.Info("connect database success")
	return db
}
