package collector

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// DatabaseStats 数据库侧计数
type DatabaseStats struct {
	ActiveConnections float64
	TotalQueries      float64
	SlowQueries       float64
	SizeMB            float64
}

// DatabaseStatsProvider 未配置数据库时不注入
type DatabaseStatsProvider interface {
	Stats(ctx context.Context) (*DatabaseStats, error)
}

// GormDatabaseStats 通过 GORM 查询服务端状态，支持 mysql 与 postgres
type GormDatabaseStats struct {
	db *gorm.DB
}

func NewGormDatabaseStats(db *gorm.DB) *GormDatabaseStats {
	return &GormDatabaseStats{db: db}
}

func (g *GormDatabaseStats) Stats(ctx context.Context) (*DatabaseStats, error) {
	db := g.db.WithContext(ctx)
	switch name := g.db.Dialector.Name(); name {
	case "mysql":
		return mysqlStats(db)
	case "postgres":
		return postgresStats(db)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", name)
	}
}

func mysqlStats(db *gorm.DB) (*DatabaseStats, error) {
	rows, err := db.Raw("SHOW GLOBAL STATUS WHERE Variable_name IN ('Threads_connected', 'Questions', 'Slow_queries')").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &DatabaseStats{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		switch name {
		case "Threads_connected":
			stats.ActiveConnections = value
		case "Questions":
			stats.TotalQueries = value
		case "Slow_queries":
			stats.SlowQueries = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.Raw("SELECT COALESCE(SUM(data_length + index_length), 0) / 1024 / 1024 FROM information_schema.tables WHERE table_schema = DATABASE()").
		Row().Scan(&stats.SizeMB)
	if err != nil {
		return nil, err
	}
	stats.SizeMB = round2(stats.SizeMB)
	return stats, nil
}

func postgresStats(db *gorm.DB) (*DatabaseStats, error) {
	stats := &DatabaseStats{}

	queries := []struct {
		sql  string
		dest *float64
	}{
		{"SELECT count(*) FROM pg_stat_activity WHERE datname = current_database()", &stats.ActiveConnections},
		{"SELECT COALESCE(xact_commit + xact_rollback, 0) FROM pg_stat_database WHERE datname = current_database()", &stats.TotalQueries},
		{"SELECT count(*) FROM pg_stat_activity WHERE datname = current_database() AND state = 'active' AND now() - query_start > interval '1 second'", &stats.SlowQueries},
		{"SELECT pg_database_size(current_database()) / 1024.0 / 1024.0", &stats.SizeMB},
	}
	for _, q := range queries {
		if err := db.Raw(q.sql).Row().Scan(q.dest); err != nil {
			return nil, err
		}
	}
	stats.SizeMB = round2(stats.SizeMB)
	return stats, nil
}
