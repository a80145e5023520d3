package models

import "time"

type Stat struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// DailyReportSummary 单日汇总，生成后不再修改
type DailyReportSummary struct {
	Date        string          `json:"date"`
	SampleCount int             `json:"sampleCount"`
	Metrics     map[string]Stat `json:"metrics"`
	Alerts      []Alert         `json:"alerts"`
	AlertCounts AlertCounts     `json:"alertCounts"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
