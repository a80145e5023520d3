package collector

import (
	"sync"
	"time"

	"stationery/pkg/monitoring/models"
)

// RequestSample 一次 HTTP 请求的耗时与结果
type RequestSample struct {
	Timestamp    time.Time
	Method       string
	Path         string
	StatusCode   int
	DurationMs   float64
	TraceID      string
	ErrorMessage string
}

type requestEntry struct {
	at         time.Time
	durationMs float64
	status     int
}

// RequestRecorder 在滑动窗口内统计请求耗时、吞吐和 5xx 比例
type RequestRecorder struct {
	window time.Duration

	mu      sync.Mutex
	entries []requestEntry
}

func NewRequestRecorder(window time.Duration) *RequestRecorder {
	if window <= 0 {
		window = time.Minute
	}
	return &RequestRecorder{window: window}
}

// RecordAPICall 由 API 监控中间件调用
func (r *RequestRecorder) RecordAPICall(call *RequestSample) {
	if call == nil {
		return
	}
	at := call.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, requestEntry{at: at, durationMs: call.DurationMs, status: call.StatusCode})
	r.trim(at)
}

// Snapshot 统计 now 之前一个窗口内的请求
func (r *RequestRecorder) Snapshot(now time.Time) models.PerformanceMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trim(now)

	// 慢请求完成得晚，可能排在较新的记录后面，trim 不一定清理到
	cutoff := now.Add(-r.window)
	var count, errors int
	var total float64
	for _, e := range r.entries {
		if e.at.After(now) || !e.at.After(cutoff) {
			continue
		}
		count++
		total += e.durationMs
		if e.status >= 500 {
			errors++
		}
	}
	if count == 0 {
		return models.PerformanceMetrics{}
	}

	return models.PerformanceMetrics{
		AvgResponseTimeMs: round2(total / float64(count)),
		RequestsPerMinute: round2(float64(count) * float64(time.Minute) / float64(r.window)),
		ErrorRatePercent:  round2(float64(errors) / float64(count) * 100),
	}
}

// trim 丢弃窗口之外的记录，entries 按写入顺序近似有序
func (r *RequestRecorder) trim(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.entries) && !r.entries[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		r.entries = append(r.entries[:0], r.entries[i:]...)
	}
}
