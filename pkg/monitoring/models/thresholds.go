package models

import "fmt"

// 指标类型
const (
	KindCPU           = "cpu"
	KindMemory        = "memory"
	KindDisk          = "disk"
	KindResponseTime  = "responseTime"
	KindErrorRate     = "errorRate"
	KindDBConnections = "dbConnections"
)

// Kinds 参与阈值判断的指标，顺序即告警输出顺序
var Kinds = []string{KindCPU, KindMemory, KindDisk, KindResponseTime, KindErrorRate, KindDBConnections}

// Thresholds 阈值集合，整体替换，不做局部加锁
type Thresholds struct {
	CPU           float64 `json:"cpu"`
	Memory        float64 `json:"memory"`
	Disk          float64 `json:"disk"`
	ResponseTime  float64 `json:"responseTime"`
	ErrorRate     float64 `json:"errorRate"`
	DBConnections float64 `json:"dbConnections"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CPU:           80,
		Memory:        85,
		Disk:          90,
		ResponseTime:  2000,
		ErrorRate:     5,
		DBConnections: 80,
	}
}

// ThresholdPatch 局部更新，未出现的键保持不变
type ThresholdPatch struct {
	CPU           *float64 `json:"cpu,omitempty" validate:"omitempty,gte=0"`
	Memory        *float64 `json:"memory,omitempty" validate:"omitempty,gte=0"`
	Disk          *float64 `json:"disk,omitempty" validate:"omitempty,gte=0"`
	ResponseTime  *float64 `json:"responseTime,omitempty" validate:"omitempty,gte=0"`
	ErrorRate     *float64 `json:"errorRate,omitempty" validate:"omitempty,gte=0"`
	DBConnections *float64 `json:"dbConnections,omitempty" validate:"omitempty,gte=0"`
}

// Get 按指标类型取阈值
func (t Thresholds) Get(kind string) (float64, bool) {
	switch kind {
	case KindCPU:
		return t.CPU, true
	case KindMemory:
		return t.Memory, true
	case KindDisk:
		return t.Disk, true
	case KindResponseTime:
		return t.ResponseTime, true
	case KindErrorRate:
		return t.ErrorRate, true
	case KindDBConnections:
		return t.DBConnections, true
	}
	return 0, false
}

// Merge 合并局部更新，任何负值都会让整次合并失败
func (t Thresholds) Merge(patch ThresholdPatch) (Thresholds, error) {
	fields := []struct {
		kind string
		src  *float64
		dst  *float64
	}{
		{KindCPU, patch.CPU, &t.CPU},
		{KindMemory, patch.Memory, &t.Memory},
		{KindDisk, patch.Disk, &t.Disk},
		{KindResponseTime, patch.ResponseTime, &t.ResponseTime},
		{KindErrorRate, patch.ErrorRate, &t.ErrorRate},
		{KindDBConnections, patch.DBConnections, &t.DBConnections},
	}
	for _, f := range fields {
		if f.src != nil && *f.src < 0 {
			return Thresholds{}, fmt.Errorf("阈值 %s 不能为负数: %v", f.kind, *f.src)
		}
	}
	for _, f := range fields {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return t, nil
}

// PatchFromMap 把配置文件里的 map 转成局部更新，未知键返回错误
func PatchFromMap(m map[string]float64) (ThresholdPatch, error) {
	var p ThresholdPatch
	for k, v := range m {
		v := v
		switch k {
		case KindCPU:
			p.CPU = &v
		case KindMemory:
			p.Memory = &v
		case KindDisk:
			p.Disk = &v
		case KindResponseTime:
			p.ResponseTime = &v
		case KindErrorRate:
			p.ErrorRate = &v
		case KindDBConnections:
			p.DBConnections = &v
		default:
			return ThresholdPatch{}, fmt.Errorf("未知的阈值类型: %s", k)
		}
	}
	return p, nil
}
