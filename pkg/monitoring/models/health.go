package models

import (
	"net/http"
	"time"
)

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HTTPCode 健康检查接口返回的状态码
func (s HealthStatus) HTTPCode() int {
	switch s {
	case StatusHealthy:
		return http.StatusOK
	case StatusDegraded:
		return http.StatusPartialContent
	default:
		return http.StatusServiceUnavailable
	}
}

type ServiceStatus string

const (
	ServiceHealthy       ServiceStatus = "healthy"
	ServiceUnhealthy     ServiceStatus = "unhealthy"
	ServiceNotConfigured ServiceStatus = "not_configured"
)

type ServiceHealth struct {
	Database    ServiceStatus `json:"database"`
	Application ServiceStatus `json:"application"`
	Filesystem  ServiceStatus `json:"filesystem"`
	Network     ServiceStatus `json:"network"`
}

// HealthReport 每次探测都重新生成；Services 为空表示探测器自身故障
type HealthReport struct {
	Timestamp time.Time      `json:"timestamp"`
	Status    HealthStatus   `json:"status"`
	Services  *ServiceHealth `json:"services,omitempty"`
	Error     string         `json:"error,omitempty"`
}
