package health

import (
	"context"

	"gorm.io/gorm"
)

// Pinger 数据库连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// GormPinger 执行一条 SELECT 1
type GormPinger struct {
	db *gorm.DB
}

func NewGormPinger(db *gorm.DB) *GormPinger {
	return &GormPinger{db: db}
}

func (p *GormPinger) Ping(ctx context.Context) error {
	var one int
	return p.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}
