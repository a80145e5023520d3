// Package models 定义监控子系统使用的数据模型
package models

import "time"

// 数据库状态
const (
	DatabaseConnected     = "connected"
	DatabaseNotConfigured = "not_configured"
	DatabaseError         = "error"
)

// MetricSample 某一时刻的指标快照，写入存储后不再修改
type MetricSample struct {
	Timestamp   time.Time          `json:"timestamp"`
	System      SystemMetrics      `json:"system"`
	Database    DatabaseMetrics    `json:"database"`
	Application ApplicationMetrics `json:"application"`
	Performance PerformanceMetrics `json:"performance"`
}

type SystemMetrics struct {
	CPUPercent    float64        `json:"cpuPercent"`
	Memory        MemoryMetrics  `json:"memory"`
	Disk          DiskMetrics    `json:"disk"`
	Network       NetworkMetrics `json:"network"`
	LoadAverage   []float64      `json:"loadAverage"`
	UptimeSeconds uint64         `json:"uptimeSeconds"`
}

type MemoryMetrics struct {
	TotalMB float64 `json:"totalMB"`
	FreeMB  float64 `json:"freeMB"`
	UsedMB  float64 `json:"usedMB"`
	Percent float64 `json:"percent"`
}

type DiskMetrics struct {
	TotalGB float64 `json:"totalGB"`
	FreeGB  float64 `json:"freeGB"`
	UsedGB  float64 `json:"usedGB"`
	Percent float64 `json:"percent"`
}

// NetworkMetrics 网卡累计收发量
type NetworkMetrics struct {
	BytesSentMB float64 `json:"bytesSentMB"`
	BytesRecvMB float64 `json:"bytesRecvMB"`
}

type DatabaseMetrics struct {
	ActiveConnections float64 `json:"activeConnections"`
	TotalQueries      float64 `json:"totalQueries"`
	SlowQueries       float64 `json:"slowQueries"`
	SizeMB            float64 `json:"sizeMB"`
	Status            string  `json:"status"`
}

type ApplicationMetrics struct {
	HeapUsedMB    float64 `json:"heapUsedMB"`
	RSSMB         float64 `json:"rssMB"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	PID           int     `json:"pid"`
}

type PerformanceMetrics struct {
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	RequestsPerMinute float64 `json:"requestsPerMinute"`
	ErrorRatePercent  float64 `json:"errorRatePercent"`
}

// DayMetrics 某一天的全部样本
type DayMetrics struct {
	Date    string          `json:"date"`
	Metrics []*MetricSample `json:"metrics"`
}
