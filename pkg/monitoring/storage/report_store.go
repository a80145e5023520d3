package storage

import (
	"errors"
	"fmt"
	"os"

	"stationery/pkg/monitoring/models"

	json "github.com/json-iterator/go"
)

// ErrReportExists 包含 os.ErrExist
var ErrReportExists = fmt.Errorf("日报已存在: %w", os.ErrExist)

// ReportStore 每天一个 report-YYYY-MM-DD.json，写入后不再覆盖
type ReportStore struct {
	reports partitions
}

func NewReportStore(dir string, opts ...Option) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建日报目录失败: %w", err)
	}
	o := buildOptions(opts)
	return &ReportStore{reports: partitions{dir: dir, prefix: "report-", loc: o.loc}}, nil
}

// Save 保存日报，返回写入的 JSON 内容供归档使用。
// 当天日报已存在时返回 ErrReportExists，原文件保持不变
func (s *ReportStore) Save(summary *models.DailyReportSummary) ([]byte, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	if err := createFile(s.reports.path(summary.Date), data); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("日报 %s: %w", summary.Date, ErrReportExists)
		}
		return nil, fmt.Errorf("写入日报 %s 失败: %w", summary.Date, err)
	}
	return data, nil
}

// Load 日报不存在时返回的错误包含 os.ErrNotExist
func (s *ReportStore) Load(date string) (*models.DailyReportSummary, error) {
	var summary models.DailyReportSummary
	found, err := readJSON(s.reports.path(date), &summary)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("日报 %s: %w", date, os.ErrNotExist)
	}
	return &summary, nil
}

// Dates 已生成日报的日期，倒序
func (s *ReportStore) Dates() ([]string, error) {
	return s.reports.list()
}
