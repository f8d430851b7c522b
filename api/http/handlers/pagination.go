package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// parsePageSize читает ?page и ?size с защитой от мусора: page >= 1,
// size в пределах 1..100.
func parsePageSize(c *fiber.Ctx, defSize int) (page, size int) {
	page = 1
	size = defSize
	if v := strings.TrimSpace(c.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}
	if v := strings.TrimSpace(c.Query("size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 100 {
			size = n
		}
	}
	return page, size
}
