package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/cogniscan/api/http/presenter"
	"github.com/artem13815/cogniscan/pkg/search"
)

type SearchHandler struct {
	svc search.UseCase
}

func NewSearchHandler(svc search.UseCase) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search ищет кандидатов по ключевым словам и фильтрам.
// @Summary Поиск кандидатов
// @Description Ранжирует обработанные резюме по запросу и списку навыков, с фильтрами по домену и опыту.
// @Tags    Поиск
// @Accept  json
// @Produce json
// @Param   input body search.Request true "Параметры поиска"
// @Security BearerAuth
// @Success 200 {object} search.Response
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /search [post]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var req search.Request
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if strings.TrimSpace(req.Query) == "" && len(req.Skills) == 0 {
		return presenter.Error(c, http.StatusBadRequest, "query or skills are required")
	}

	resp, err := h.svc.Search(c.Context(), req)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to search documents")
	}
	return presenter.JSON(c, http.StatusOK, resp)
}
