package config

import (
	"context"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// DialFunc 数据库驱动与 redis 共用的拨号函数
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ProxyConfig SOCKS5 代理，本地开发经跳板机连接数据库和 redis
type ProxyConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"` // 可选
	Password string `yaml:"password" json:"password"`
}

// DialContext 未启用代理或代理参数无效时直连
func (p ProxyConfig) DialContext() DialFunc {
	direct := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	if !p.Enabled {
		return direct.DialContext
	}

	var auth *proxy.Auth
	if p.Username != "" {
		auth = &proxy.Auth{User: p.Username, Password: p.Password}
	}
	dialer, err := proxy.SOCKS5("tcp", net.JoinHostPort(p.Host, strconv.Itoa(p.Port)), auth, direct)
	if err != nil {
		return direct.DialContext
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
}
