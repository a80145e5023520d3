package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestRecorder_Snapshot(t *testing.T) {
	r := NewRequestRecorder(time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// 窗口外的请求不计入
	r.RecordAPICall(&RequestSample{Timestamp: now.Add(-2 * time.Minute), DurationMs: 9999, StatusCode: 500})
	r.RecordAPICall(&RequestSample{Timestamp: now.Add(-30 * time.Second), DurationMs: 100, StatusCode: 200})
	r.RecordAPICall(&RequestSample{Timestamp: now.Add(-20 * time.Second), DurationMs: 300, StatusCode: 502})
	r.RecordAPICall(&RequestSample{Timestamp: now.Add(-10 * time.Second), DurationMs: 200, StatusCode: 404})
	r.RecordAPICall(&RequestSample{Timestamp: now.Add(-5 * time.Second), DurationMs: 400, StatusCode: 200})

	p := r.Snapshot(now)
	assert.Equal(t, 250.0, p.AvgResponseTimeMs)
	assert.Equal(t, 4.0, p.RequestsPerMinute)
	// 只有 5xx 计为错误
	assert.Equal(t, 25.0, p.ErrorRatePercent)
}

func TestRequestRecorder_Empty(t *testing.T) {
	r := NewRequestRecorder(0)
	p := r.Snapshot(time.Now())
	assert.Zero(t, p.AvgResponseTimeMs)
	assert.Zero(t, p.RequestsPerMinute)
	assert.Zero(t, p.ErrorRatePercent)

	r.RecordAPICall(nil)
	assert.Zero(t, r.Snapshot(time.Now()).RequestsPerMinute)
}

func TestRequestRecorder_SlowRequestRecordedLate(t *testing.T) {
	r := NewRequestRecorder(time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	r.RecordAPICall(&RequestSample{Timestamp: now.Add(-10 * time.Second), DurationMs: 100, StatusCode: 200})
	// 开始于窗口之外的慢请求在较新的请求之后才完成
	r.RecordAPICall(&RequestSample{Timestamp: now.Add(-90 * time.Second), DurationMs: 80000, StatusCode: 500})

	p := r.Snapshot(now)
	assert.Equal(t, 100.0, p.AvgResponseTimeMs)
	assert.Equal(t, 1.0, p.RequestsPerMinute)
	assert.Equal(t, 0.0, p.ErrorRatePercent)
}
