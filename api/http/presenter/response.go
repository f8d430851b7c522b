package presenter

import "github.com/gofiber/fiber/v2"

type ErrorResponse struct {
	Message string `json:"message"`
}

// ListResponse — конверт для постраничных списков.
type ListResponse struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Message: message})
}

func List(c *fiber.Ctx, items any, total, page, size int) error {
	return JSON(c, fiber.StatusOK, ListResponse{Items: items, Total: total, Page: page, Size: size})
}
