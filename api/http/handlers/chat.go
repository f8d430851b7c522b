package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/cogniscan/api/http/presenter"
	"github.com/artem13815/cogniscan/pkg/chat"
)

type ChatHandler struct {
	svc chat.UseCase
}

func NewChatHandler(svc chat.UseCase) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Ask задаёт вопрос ассистенту по загруженным резюме.
// @Summary Чат с ассистентом
// @Description Отвечает на вопросы о кандидатах. Без sessionId начинается новая сессия; при недоступности модели ответ собирает эвристика (status=fallback).
// @Tags    Чат
// @Accept  json
// @Produce json
// @Param   input body chatRequest true "Вопрос и (опционально) ID сессии"
// @Security BearerAuth
// @Success 200 {object} chat.Answer
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /chat [post]
func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	answer, err := h.svc.Ask(c.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return presenter.Error(c, http.StatusBadRequest, "message is required")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to process chat request")
	}
	return presenter.JSON(c, http.StatusOK, answer)
}

// History возвращает историю сессии.
// @Summary История чата
// @Tags    Чат
// @Produce json
// @Param   sessionId path string true "ID сессии"
// @Security BearerAuth
// @Success 200 {object} chat.Session
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /chat/{sessionId}/history [get]
func (h *ChatHandler) History(c *fiber.Ctx) error {
	sess, err := h.svc.History(c.Context(), c.Params("sessionId"))
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			return presenter.Error(c, http.StatusNotFound, "session not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to load chat history")
	}
	return presenter.JSON(c, http.StatusOK, sess)
}
