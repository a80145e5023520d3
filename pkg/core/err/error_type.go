package errorc

import (
	"fmt"
	"net/http"
)

type Error struct {
	*ErrorCode
	Msg      string
	Cause    error
	TraceID  string
	Entry    string `json:"-"`
	FileName string `json:"-"`
	Line     int    `json:"-"`
	FuncName string `json:"-"`
}

type ErrorCode struct {
	Code int
	Name string
}

func (c *ErrorCode) String() string {
	return fmt.Sprintf("%d: %s", c.Code, c.Name)
}

// HTTPStatus 错误码对应的 HTTP 状态码，非法值按 500 处理
func (c *ErrorCode) HTTPStatus() int {
	if c == nil || c.Code < 400 || c.Code > 599 {
		return http.StatusInternalServerError
	}
	return c.Code
}

var (
	ErrorCodeUnknown     *ErrorCode = &ErrorCode{500, "Unknown"}
	ErrorCodeThird       *ErrorCode = &ErrorCode{502, "Third"}
	ErrorCodeValid       *ErrorCode = &ErrorCode{400, "ValidWithCtx"}
	ErrorCodeNoAuth      *ErrorCode = &ErrorCode{401, "Unauthenticated"}
	ErrorCodeForbidden   *ErrorCode = &ErrorCode{403, "Forbidden"}
	ErrorCodeNotFound    *ErrorCode = &ErrorCode{404, "NotFound"}
	ErrorCodeUnavailable *ErrorCode = &ErrorCode{503, "Unavailable"}
)
