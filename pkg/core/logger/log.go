package logger

import (
	"context"
	"sync"

	"stationery/pkg/core/config"
	"stationery/pkg/core/consts"

	json "github.com/json-iterator/go"
	"github.com/openzipkin/zipkin-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// Log 在 logrus.Entry 上约定字段名：EntryName、Err、TraceId
type Log struct {
	*logrus.Entry
}

var (
	log *Log
	mu  sync.Mutex
)

func newLog(level logrus.Level) *Log {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(level)
	return &Log{Entry: logrus.NewEntry(l)}
}

// InitLogger 替换全局 logger，无法识别的级别按 info 处理
func InitLogger(level string) *Log {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	mu.Lock()
	defer mu.Unlock()
	log = newLog(lvl)
	return log
}

// GetLogger 未初始化时返回 debug 级别的临时 logger，测试里直接可用
func GetLogger() *Log {
	mu.Lock()
	defer mu.Unlock()
	if log != nil {
		return log
	}
	return newLog(logrus.DebugLevel)
}

// Send2Cloud 日志同时投递到阿里云 SLS
func (l *Log) Send2Cloud(appName, host string, cfg config.LogConfig) {
	l.Entry.Logger.AddHook(NewSlsHook(appName, host, cfg))
}

func (l *Log) WithField(key string, value interface{}) *Log {
	return &Log{l.Entry.WithField(key, value)}
}

// WithFields 结构体按 json 字段展开，展开失败时整体放在 arg 下
func (l *Log) WithFields(arg interface{}) *Log {
	raw, err := json.Marshal(arg)
	if err != nil {
		return l.WithField("arg", arg)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return l.WithField("arg", arg)
	}
	return &Log{l.Entry.WithFields(fields)}
}

func (l *Log) WithEntryName(entryName string) *Log {
	return l.WithField("EntryName", entryName)
}

func (l *Log) WithErr(err error) *Log {
	if err == nil {
		return l
	}
	return l.WithField("Err", err.Error())
}

// WithTrace 依次取 zipkin span、请求里的 trace id，都没有时新生成
func (l *Log) WithTrace(ctx context.Context) *Log {
	if span := zipkin.SpanFromContext(ctx); span != nil {
		return l.WithField("TraceId", span.Context().TraceID.String())
	}
	traceID, ok := ctx.Value(consts.TraceKey).(string)
	if !ok {
		traceID = uuid.NewV4().String()
	}
	return l.WithField("TraceId", traceID)
}
