package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"stationery/pkg/core/logger"
	"stationery/pkg/monitoring/models"
	"stationery/pkg/monitoring/report"
	"stationery/pkg/monitoring/storage"

	"github.com/go-redis/cache/v9"
	json "github.com/json-iterator/go"
)

// ErrNoData 所选日期没有任何样本
var ErrNoData = fmt.Errorf("没有监控数据: %w", os.ErrNotExist)

const reportCacheTTL = 24 * time.Hour

type SampleSource interface {
	Load(date string) ([]*models.MetricSample, error)
}

type AlertSource interface {
	Load(date string) ([]models.Alert, error)
}

type ReportRepository interface {
	Save(summary *models.DailyReportSummary) ([]byte, error)
	Load(date string) (*models.DailyReportSummary, error)
}

// Archiver 日报归档，对应 OSS
type Archiver interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader) error
	DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// ReportCache 对应 go-redis/cache
type ReportCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(item *cache.Item) error
}

type ReportServiceConfig struct {
	Samples       SampleSource
	Alerts        AlertSource
	Reports       ReportRepository
	Archiver      Archiver
	ArchivePrefix string
	Cache         ReportCache
	Location      *time.Location
}

type ReportService struct {
	samples       SampleSource
	alerts        AlertSource
	reports       ReportRepository
	archiver      Archiver
	archivePrefix string
	cache         ReportCache
	loc           *time.Location
	now           func() time.Time
	log           *logger.Log
}

func NewReportService(cfg ReportServiceConfig, log *logger.Log) *ReportService {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		samples:       cfg.Samples,
		alerts:        cfg.Alerts,
		reports:       cfg.Reports,
		archiver:      cfg.Archiver,
		archivePrefix: cfg.ArchivePrefix,
		cache:         cfg.Cache,
		loc:           loc,
		now:           time.Now,
		log:           log,
	}
}

// Yesterday 默认日报日期
func (s *ReportService) Yesterday() string {
	return s.now().In(s.loc).AddDate(0, 0, -1).Format(storage.DateLayout)
}

func (s *ReportService) today() string {
	return s.now().In(s.loc).Format(storage.DateLayout)
}

// GenerateYesterday 定时任务入口，前一天没有数据时只记录日志
func (s *ReportService) GenerateYesterday(ctx context.Context) error {
	date := s.Yesterday()
	summary, err := s.Generate(ctx, date)
	if errors.Is(err, ErrNoData) {
		s.log.WithTrace(ctx).WithField("date", date).Info("前一天没有监控数据，跳过日报生成")
		return nil
	}
	if err != nil {
		return err
	}
	s.log.WithTrace(ctx).WithField("date", date).WithField("samples", summary.SampleCount).Info("日报生成完成")
	return nil
}

// Generate 汇总 -> 落盘 -> 归档 -> 缓存；归档与缓存失败只记录日志。
// 已落盘的日报不会重新生成
func (s *ReportService) Generate(ctx context.Context, date string) (*models.DailyReportSummary, error) {
	if existing, err := s.reports.Load(date); err == nil {
		return existing, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	summary, err := s.summarize(date)
	if err != nil {
		return nil, err
	}

	data, err := s.reports.Save(summary)
	if errors.Is(err, os.ErrExist) {
		// 并发生成时以先落盘的为准
		return s.reports.Load(date)
	}
	if err != nil {
		return nil, err
	}
	s.archive(ctx, date, data)
	s.setCache(ctx, summary)
	return summary, nil
}

// Get 缓存 -> 文件 -> 归档 -> 按需生成；过去的日期按需生成后会落盘，当天的只做临时汇总
func (s *ReportService) Get(ctx context.Context, date string) (*models.DailyReportSummary, error) {
	if summary := s.getCache(ctx, date); summary != nil {
		return summary, nil
	}

	summary, err := s.reports.Load(date)
	if err == nil {
		s.setCache(ctx, summary)
		return summary, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if summary := s.restore(ctx, date); summary != nil {
		return summary, nil
	}
	if date < s.today() {
		return s.Generate(ctx, date)
	}
	return s.summarize(date)
}

func (s *ReportService) summarize(date string) (*models.DailyReportSummary, error) {
	samples, err := s.samples.Load(date)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 指标失败: %w", date, err)
	}
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	var alerts []models.Alert
	if s.alerts != nil {
		if alerts, err = s.alerts.Load(date); err != nil {
			return nil, fmt.Errorf("读取 %s 告警失败: %w", date, err)
		}
	}

	summary := report.Summarize(date, samples, alerts, s.now())
	return &summary, nil
}

func (s *ReportService) archive(ctx context.Context, date string, data []byte) {
	if s.archiver == nil {
		return
	}
	key := s.archiveKey(date)
	if err := s.archiver.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		s.log.WithTrace(ctx).WithErr(err).WithField("key", key).Error("日报归档失败")
		return
	}
	s.log.WithTrace(ctx).WithField("key", key).Info("日报已归档")
}

func (s *ReportService) archiveKey(date string) string {
	return path.Join(s.archivePrefix, "report-"+date+".json")
}

// restore 本地文件丢失时从归档取回，取回后重新落盘
func (s *ReportService) restore(ctx context.Context, date string) *models.DailyReportSummary {
	if s.archiver == nil {
		return nil
	}
	key := s.archiveKey(date)
	body, err := s.archiver.DownloadFile(ctx, key)
	if err != nil {
		s.log.WithTrace(ctx).WithErr(err).WithField("key", key).Debug("归档中没有该日报")
		return nil
	}
	defer body.Close()

	var summary models.DailyReportSummary
	if err := json.NewDecoder(body).Decode(&summary); err != nil || summary.Date != date {
		s.log.WithTrace(ctx).WithErr(err).WithField("key", key).Warn("归档日报内容无效")
		return nil
	}
	if _, err := s.reports.Save(&summary); err != nil && !errors.Is(err, os.ErrExist) {
		s.log.WithTrace(ctx).WithErr(err).WithField("date", date).Warn("归档日报回写本地失败")
	}
	s.setCache(ctx, &summary)
	s.log.WithTrace(ctx).WithField("key", key).Info("已从归档恢复日报")
	return &summary
}

func cacheKey(date string) string {
	return "stationery:monitoring:report:" + date
}

func (s *ReportService) getCache(ctx context.Context, date string) *models.DailyReportSummary {
	if s.cache == nil {
		return nil
	}
	var summary models.DailyReportSummary
	if err := s.cache.Get(ctx, cacheKey(date), &summary); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithTrace(ctx).WithErr(err).Warn("读取日报缓存失败")
		}
		return nil
	}
	return &summary
}

func (s *ReportService) setCache(ctx context.Context, summary *models.DailyReportSummary) {
	if s.cache == nil {
		return
	}
	err := s.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   cacheKey(summary.Date),
		Value: summary,
		TTL:   reportCacheTTL,
	})
	if err != nil {
		s.log.WithTrace(ctx).WithErr(err).Warn("写入日报缓存失败")
	}
}
