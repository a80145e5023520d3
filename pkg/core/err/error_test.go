package errorc

import (
	"context"
	"fmt"
	"os"
	"testing"

	"stationery/pkg/core/consts"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewNotFoundFromCause(t *testing.T) {
	// 底层为记录不存在时自动归类为 404
	e := New("查询失败", gorm.ErrRecordNotFound)
	assert.Equal(t, ErrorCodeNotFound, e.ErrorCode)
	assert.True(t, IsNotFound(e))

	wrapped := New("读取报告失败", fmt.Errorf("open: %w", os.ErrNotExist))
	assert.True(t, IsNotFound(wrapped))
}

func TestParseErrorKeepsCode(t *testing.T) {
	builder := NewErrorBuilder("test")
	e := builder.New("参数错误", nil).ValidWithCtx()

	parsed := ParseError(fmt.Errorf("外层: %w", e))
	assert.Equal(t, 400, parsed.Code)
	assert.Equal(t, 400, parsed.HTTPStatus())
	assert.Equal(t, "参数错误", parsed.Msg)
}

func TestHTTPStatusFallback(t *testing.T) {
	assert.Equal(t, 500, (&ErrorCode{Code: 7}).HTTPStatus())
	assert.Equal(t, 503, ErrorCodeUnavailable.HTTPStatus())
}

func TestWithTraceID(t *testing.T) {
	ctx := context.WithValue(context.Background(), consts.TraceKey, "trace-1")
	e := New("x", nil).WithTraceID(ctx)
	assert.Equal(t, "trace-1", e.TraceID)
}

func TestErrorChainMessage(t *testing.T) {
	inner := New("读取分区失败", os.ErrPermission)
	outer := NewErrorBuilder("MonitoringApp").New("读取历史指标失败", inner)

	assert.Equal(t, "[500: Unknown] 读取历史指标失败: [500: Unknown] 读取分区失败: permission denied", outer.Error())
	assert.Contains(t, outer.RootCause(), "读取分区失败: permission denied at ")
	assert.Contains(t, outer.RootCause(), "error_test.go:")
	assert.ErrorIs(t, outer, os.ErrPermission)
}

func TestParseErrorWrapsPlainError(t *testing.T) {
	assert.Nil(t, ParseError(nil))

	parsed := ParseError(fmt.Errorf("open: %w", os.ErrNotExist))
	assert.Equal(t, ErrorCodeNotFound, parsed.ErrorCode)
	assert.Empty(t, parsed.Msg)
}

func TestUnavailable(t *testing.T) {
	e := NewErrorBuilder("x").New("执行采样失败", nil).Unavailable()
	assert.Equal(t, 503, e.HTTPStatus())
	assert.False(t, IsNotFound(e))
}
