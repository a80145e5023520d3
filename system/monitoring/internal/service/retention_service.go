package service

import (
	"context"
	"time"

	"stationery/pkg/core/logger"
)

type Pruner interface {
	Prune(retentionDays int, now time.Time) ([]string, error)
}

// RetentionService 按保留天数整天删除过期分区
type RetentionService struct {
	store         Pruner
	retentionDays int
	now           func() time.Time
	log           *logger.Log
}

func NewRetentionService(store Pruner, retentionDays int, log *logger.Log) *RetentionService {
	return &RetentionService{store: store, retentionDays: retentionDays, now: time.Now, log: log}
}

func (s *RetentionService) Prune(ctx context.Context) ([]string, error) {
	removed, err := s.store.Prune(s.retentionDays, s.now())
	if err != nil {
		s.log.WithTrace(ctx).WithErr(err).Error("清理过期指标失败")
		return removed, err
	}
	if len(removed) > 0 {
		s.log.WithField("dates", removed).WithField("retentionDays", s.retentionDays).Info("已清理过期指标分区")
	}
	return removed, nil
}
