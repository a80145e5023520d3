package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"stationery/pkg/core/consts"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTraceUsesContextID(t *testing.T) {
	log := InitLogger("info")
	ctx := context.WithValue(context.Background(), consts.TraceKey, "abc")

	entry := log.WithTrace(ctx)
	assert.Equal(t, "abc", entry.Data["TraceId"])

	// 没有追踪信息时生成新的 ID
	fresh := log.WithTrace(context.Background())
	assert.NotEmpty(t, fresh.Data["TraceId"])
}

func TestWithErrAndEntryName(t *testing.T) {
	log := GetLogger().WithEntryName("Sampler").WithErr(errors.New("boom"))
	assert.Equal(t, "Sampler", log.Data["EntryName"])
	assert.Equal(t, "boom", log.Data["Err"])

	// nil 错误不追加字段
	same := log.WithErr(nil)
	assert.Equal(t, log, same)
}

func TestBuildLogGroup(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).WithField("EntryName", "Monitor")
	entry.Message = "采样完成"
	entry.Level = logrus.InfoLevel
	entry.Time = time.Unix(1700000000, 0)

	group := buildLogGroup("stationery", "10.0.0.1", entry)
	require.Len(t, group.Logs, 1)
	assert.Equal(t, "stationery", group.GetTopic())
	assert.Equal(t, uint32(1700000000), group.Logs[0].GetTime())

	values := map[string]string{}
	for _, c := range group.Logs[0].Contents {
		values[c.GetKey()] = c.GetValue()
	}
	assert.Equal(t, "Monitor", values["EntryName"])
	assert.Equal(t, "采样完成", values["message"])
	assert.Equal(t, "info", values["level"])
}
