// Package exporter 以 Prometheus 指标暴露最近一次采样、健康与告警
package exporter

import (
	"net/http"

	"stationery/pkg/monitoring/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stationery_monitor"

// Exporter 使用独立 registry，避免与全局默认 registry 冲突
type Exporter struct {
	registry *prometheus.Registry

	sample        *prometheus.GaugeVec
	samplesTotal  prometheus.Counter
	databaseUp    prometheus.Gauge
	serviceHealth *prometheus.GaugeVec
	healthStatus  prometheus.Gauge
	activeAlerts  *prometheus.GaugeVec
}

func New() *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Exporter{
		registry: reg,
		sample: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sample_value",
				Help:      "Latest sampled value by metric",
			},
			[]string{"metric"},
		),
		samplesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Number of samples collected",
		}),
		databaseUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_up",
			Help:      "1 connected, 0 error, -1 not configured",
		}),
		serviceHealth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_health",
				Help:      "1 healthy, 0 unhealthy, -1 not configured",
			},
			[]string{"service"},
		),
		healthStatus: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_status",
			Help:      "2 healthy, 1 degraded, 0 unhealthy",
		}),
		activeAlerts: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_alerts",
				Help:      "Active alerts by severity",
			},
			[]string{"severity"},
		),
	}
}

func (e *Exporter) ObserveSample(s *models.MetricSample) {
	if s == nil {
		return
	}
	e.samplesTotal.Inc()

	values := map[string]float64{
		"cpu_percent":           s.System.CPUPercent,
		"memory_percent":        s.System.Memory.Percent,
		"memory_used_mb":        s.System.Memory.UsedMB,
		"disk_percent":          s.System.Disk.Percent,
		"disk_used_gb":          s.System.Disk.UsedGB,
		"network_sent_mb":       s.System.Network.BytesSentMB,
		"network_recv_mb":       s.System.Network.BytesRecvMB,
		"uptime_seconds":        float64(s.System.UptimeSeconds),
		"db_active_connections": s.Database.ActiveConnections,
		"db_total_queries":      s.Database.TotalQueries,
		"db_slow_queries":       s.Database.SlowQueries,
		"db_size_mb":            s.Database.SizeMB,
		"app_heap_used_mb":      s.Application.HeapUsedMB,
		"app_rss_mb":            s.Application.RSSMB,
		"avg_response_time_ms":  s.Performance.AvgResponseTimeMs,
		"requests_per_minute":   s.Performance.RequestsPerMinute,
		"error_rate_percent":    s.Performance.ErrorRatePercent,
	}
	if len(s.System.LoadAverage) > 0 {
		values["load1"] = s.System.LoadAverage[0]
	}
	for name, v := range values {
		e.sample.WithLabelValues(name).Set(v)
	}

	switch s.Database.Status {
	case models.DatabaseConnected:
		e.databaseUp.Set(1)
	case models.DatabaseError:
		e.databaseUp.Set(0)
	default:
		e.databaseUp.Set(-1)
	}
}

func (e *Exporter) ObserveHealth(r models.HealthReport) {
	switch r.Status {
	case models.StatusHealthy:
		e.healthStatus.Set(2)
	case models.StatusDegraded:
		e.healthStatus.Set(1)
	default:
		e.healthStatus.Set(0)
	}

	if r.Services == nil {
		e.serviceHealth.Reset()
		return
	}
	for name, st := range map[string]models.ServiceStatus{
		"database":    r.Services.Database,
		"application": r.Services.Application,
		"filesystem":  r.Services.Filesystem,
		"network":     r.Services.Network,
	} {
		e.serviceHealth.WithLabelValues(name).Set(serviceValue(st))
	}
}

// ObserveAlerts 每轮整体替换
func (e *Exporter) ObserveAlerts(alerts []models.Alert) {
	c := models.CountAlerts(alerts)
	e.activeAlerts.WithLabelValues(string(models.SeverityInfo)).Set(float64(c.Info))
	e.activeAlerts.WithLabelValues(string(models.SeverityWarning)).Set(float64(c.Warning))
	e.activeAlerts.WithLabelValues(string(models.SeverityCritical)).Set(float64(c.Critical))
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func serviceValue(s models.ServiceStatus) float64 {
	switch s {
	case models.ServiceHealthy:
		return 1
	case models.ServiceUnhealthy:
		return 0
	default:
		return -1
	}
}
