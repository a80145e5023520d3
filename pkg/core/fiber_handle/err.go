package fiber_handle

import (
	"errors"

	errorc "stationery/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

// ErrHandler 统一错误输出 {success:false, status, message}
func ErrHandler(ctx *fiber.Ctx, err error) error {
	status, message := Classify(err)
	return ctx.Status(status).JSON(fiber.Map{"success": false, "status": status, "message": message})
}

// Classify 把错误映射为 HTTP 状态码和对外提示
func Classify(err error) (int, string) {
	var e *fiber.Error
	if errors.As(err, &e) {
		return e.Code, e.Message
	}

	cError := errorc.ParseError(err)
	msg := cError.Msg
	if msg == "" && cError.Cause != nil {
		msg = cError.Cause.Error()
	}
	return cError.ErrorCode.HTTPStatus(), msg
}
