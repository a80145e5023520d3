package errorc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"stationery/pkg/core/consts"

	"github.com/openzipkin/zipkin-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 底层为这些错误时按 404 处理
var notfounds = []error{gorm.ErrRecordNotFound, redis.Nil, os.ErrNotExist}

type ErrorBuilder struct {
	entryName string
}

func NewErrorBuilder(entryName string) *ErrorBuilder {
	return &ErrorBuilder{entryName: entryName}
}

func (e *ErrorBuilder) New(msg string, err error) *Error {
	out := newAt(2, msg, err)
	out.Entry = e.entryName
	return out
}

// NotFound 不记录调用位置，用于正常的查无数据
func (e *ErrorBuilder) NotFound(msg string) *Error {
	return &Error{Msg: msg, Entry: e.entryName, ErrorCode: ErrorCodeNotFound}
}

// New err or msg can nil
func New(msg string, err error) *Error {
	return newAt(2, msg, err)
}

func newAt(skip int, msg string, err error) *Error {
	e := &Error{Msg: msg, Cause: err, ErrorCode: codeOf(err)}
	if pc, file, line, ok := runtime.Caller(skip); ok {
		e.FileName, e.Line = file, line
		if fn := runtime.FuncForPC(pc); fn != nil {
			e.FuncName = fn.Name()
		}
	}
	return e
}

func codeOf(err error) *ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}
	for _, target := range notfounds {
		if errors.Is(err, target) {
			return ErrorCodeNotFound
		}
	}
	return ErrorCodeUnknown
}

func (e *Error) WithTraceID(ctx context.Context) *Error {
	e.TraceID = ""
	if ctx == nil {
		return e
	}
	if span := zipkin.SpanFromContext(ctx); span != nil {
		e.TraceID = span.Context().TraceID.String()
		span.Tag("error", "true")
		return e
	}
	if traceID, ok := ctx.Value(consts.TraceKey).(string); ok {
		e.TraceID = traceID
	}
	return e
}

func (e *Error) Third() *Error {
	e.ErrorCode = ErrorCodeThird
	return e
}

func (e *Error) ValidWithCtx() *Error {
	e.ErrorCode = ErrorCodeValid
	return e
}

func (e *Error) NoAuth() *Error {
	e.ErrorCode = ErrorCodeNoAuth
	return e
}

func (e *Error) Forbidden() *Error {
	e.ErrorCode = ErrorCodeForbidden
	return e
}

func (e *Error) Unavailable() *Error {
	e.ErrorCode = ErrorCodeUnavailable
	return e
}

// chain 由外到内展开 *Error 链
func (e *Error) chain() []*Error {
	out := []*Error{e}
	for cur := e; ; {
		next, ok := cur.Cause.(*Error)
		if !ok || next == nil {
			return out
		}
		out = append(out, next)
		cur = next
	}
}

// root 返回最内层包装了外部错误的节点及该外部错误；没有外部错误时取最内层节点
func (e *Error) root() (*Error, error) {
	chain := e.chain()
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Cause != nil {
			if _, ok := chain[i].Cause.(*Error); !ok {
				return chain[i], chain[i].Cause
			}
		}
	}
	last := chain[len(chain)-1]
	return last, last.Cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var sb strings.Builder
	for i, c := range e.chain() {
		if i > 0 {
			sb.WriteString(": ")
		}
		if c.ErrorCode != nil {
			sb.WriteString("[" + c.ErrorCode.String() + "] ")
		}
		sb.WriteString(c.Msg)
	}
	if _, cause := e.root(); cause != nil {
		sb.WriteString(": " + cause.Error())
	}
	return sb.String()
}

// RootCause 根因的简短描述，用于访问日志
func (e *Error) RootCause() string {
	if e == nil {
		return ""
	}
	root, cause := e.root()

	var sb strings.Builder
	sb.WriteString(root.Msg)
	if cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", cause))
	}
	if root.FileName != "" {
		sb.WriteString(fmt.Sprintf(" at %s:%d", root.FileName, root.Line))
	}
	return sb.String()
}

// ToLog 以结构化字段记录根因与完整错误链，msgs 为空时用最外层 Msg
func (e *Error) ToLog(log *logrus.Entry, msgs ...string) *Error {
	if e == nil {
		return nil
	}

	fields := logrus.Fields{}
	root, cause := e.root()
	fields["root_cause_file"] = root.FileName
	fields["root_cause_line"] = root.Line
	fields["root_cause_func"] = root.FuncName
	fields["root_cause_msg"] = root.Msg
	if cause != nil {
		fields["root_cause_original_error"] = cause.Error()
	}
	if root.ErrorCode != nil {
		fields["root_cause_error_code"] = root.ErrorCode.String()
	}

	chain := e.chain()
	levels := make([]map[string]interface{}, 0, len(chain))
	for _, c := range chain {
		level := map[string]interface{}{
			"file": c.FileName,
			"line": c.Line,
			"func": c.FuncName,
			"msg":  c.Msg,
		}
		if c.ErrorCode != nil {
			level["code"] = c.ErrorCode.String()
		}
		if c.TraceID != "" {
			level["trace_id"] = c.TraceID
		}
		levels = append(levels, level)
	}
	fields["error_chain"] = levels
	if e.TraceID != "" {
		fields["trace_id"] = e.TraceID
	}

	msg := e.Msg
	if len(msgs) > 0 {
		msg = strings.Join(msgs, ", ")
	}
	log.WithFields(fields).Error(msg)
	return e
}

// ParseError 链上已有 *Error 时直接返回，否则包装为未知错误
func ParseError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Cause: err, ErrorCode: codeOf(err)}
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.ErrorCode == ErrorCodeNotFound {
		return true
	}
	for _, target := range notfounds {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
