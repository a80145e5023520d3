package config

import (
	"strings"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Mode     string `yaml:"mode"` // single 为单机，其余按哨兵模式，host 逗号分隔
	Host     string `yaml:"host"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// NewRedisClient 报表缓存与分布式锁共用的 redis 客户端
func NewRedisClient(r RedisConfig, p ProxyConfig) *redis.Client {
	var dial DialFunc
	if p.Enabled {
		dial = p.DialContext()
	}

	if r.Mode == "single" {
		return redis.NewClient(&redis.Options{
			Addr:     r.Host,
			Password: r.Password,
			DB:       r.DB,
			Dialer:   dial,
		})
	}
	return redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       "mymaster",
		SentinelAddrs:    strings.Split(r.Host, ","),
		Password:         r.Password,
		SentinelPassword: r.Password,
		DB:               r.DB,
		Dialer:           dial,
	})
}
