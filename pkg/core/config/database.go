package config

import (
	"context"
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	Dialect  string `yaml:"dialect" json:"dialect,omitempty"`
	Host     string `yaml:"host" json:"host,omitempty"`
	Port     int64  `yaml:"port" json:"port,omitempty"`
	User     string `yaml:"user" json:"user,omitempty"`
	Password string `yaml:"password" json:"password,omitempty"`
	DbName   string `yaml:"db-name" json:"db-name,omitempty"`
}

const (
	DialectMysql    = "mysql"
	DialectPostgres = "postgres"
)

// Configured 是否提供了数据库连接参数
func (d Database) Configured() bool {
	return d.Host != "" && d.DbName != ""
}

// GetDialect 未配置时默认 MySQL
func (d Database) GetDialect() string {
	if d.Dialect == DialectPostgres {
		return DialectPostgres
	}
	return DialectMysql
}

// OpenDatabase 按 dialect 打开连接池；连接在首次使用时才建立，数据库不可达不会阻止服务启动
func OpenDatabase(d Database, p ProxyConfig) (*gorm.DB, error) {
	var dial DialFunc
	if p.Enabled {
		dial = p.DialContext()
	}

	dialector, err := d.dialector(dial)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{DisableAutomaticPing: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// 监控只做统计查询，连接池不需要太大
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func (d Database) dialector(dial DialFunc) (gorm.Dialector, error) {
	if d.GetDialect() == DialectPostgres {
		dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable password=%s",
			d.Host, d.Port, d.User, d.DbName, d.Password)
		if dial == nil {
			return postgres.Open(dsn), nil
		}
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, err
		}
		cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dial(ctx, network, addr)
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*cfg)}), nil
	}

	network := "tcp"
	if dial != nil {
		// 驱动按名称查找拨号函数
		network = "proxy"
		mysqldriver.RegisterDialContext(network, func(ctx context.Context, addr string) (net.Conn, error) {
			return dial(ctx, "tcp", addr)
		})
	}
	dsn := fmt.Sprintf("%s:%s@%s(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, network, d.Host, d.Port, d.DbName)
	// 跳过版本查询，打开时不连接数据库
	return mysql.New(mysql.Config{DSN: dsn, SkipInitializeWithVersion: true}), nil
}
