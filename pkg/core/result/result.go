package result

import (
	"github.com/gofiber/fiber/v2"
)

func OK(c *fiber.Ctx, v interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": fiber.StatusOK, "success": true, "data": v})
}

// Status 按指定状态码输出，用于健康检查这类需要非 200 的正常响应
func Status(c *fiber.Ctx, status int, v interface{}) error {
	return c.Status(status).JSON(fiber.Map{"status": status, "success": status < 400, "data": v})
}
