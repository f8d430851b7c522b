package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/artem13815/cogniscan/api/http/presenter"
	"github.com/artem13815/cogniscan/pkg/document"
	"github.com/artem13815/cogniscan/pkg/pipeline"
)

// Обработка идёт в фоне и не привязана к времени жизни запроса.
const processTimeout = 5 * time.Minute

type DocumentsHandler struct {
	svc      document.UseCase
	proc     *pipeline.Processor
	maxBytes int64
	logger   *slog.Logger
}

func NewDocumentsHandler(svc document.UseCase, proc *pipeline.Processor, maxBytes int64, logger *slog.Logger) *DocumentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &DocumentsHandler{svc: svc, proc: proc, maxBytes: maxBytes, logger: logger}
}

// scheduleProcessing запускает пайплайн извлечения в отдельной горутине
// со своим контекстом: ответ клиенту уходит сразу.
func (h *DocumentsHandler) scheduleProcessing(doc document.Document) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		res := h.proc.Process(ctx, doc)
		if res.Err != nil {
			h.logger.Error("documents.process.failed", "id", doc.ID, "err", res.Err)
		}
	}()
}

// Upload принимает файл резюме, кладёт его в хранилище и ставит на обработку.
// @Summary Загрузить резюме
// @Description Принимает PDF/DOCX/TXT, сохраняет файл и запускает извлечение данных в фоне.
// @Tags        Документы
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Файл резюме (PDF/DOCX/TXT)"
// @Security    BearerAuth
// @Success     201 {object} document.Document
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     401 {object} presenter.ErrorResponse
// @Failure     413 {object} presenter.ErrorResponse
// @Failure     500 {object} presenter.ErrorResponse
// @Router      /documents [post]
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return presenter.Error(c, http.StatusBadRequest, "file is required (pdf, docx or txt)")
	}
	file, err := fh.Open()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()
	data, err := readAtMost(file, h.maxBytes)
	if err != nil {
		return presenter.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	}

	doc, err := h.svc.Upload(c.Context(), document.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, document.ErrUnsupportedType):
			return presenter.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, document.ErrEmptyFile):
			return presenter.Error(c, http.StatusBadRequest, "file is empty")
		case errors.Is(err, document.ErrFileTooLarge):
			return presenter.Error(c, http.StatusRequestEntityTooLarge, err.Error())
		default:
			return presenter.Error(c, http.StatusInternalServerError, "failed to upload document")
		}
	}

	h.scheduleProcessing(doc)
	return presenter.JSON(c, http.StatusCreated, doc)
}

// List возвращает документы постранично.
// @Summary Список документов
// @Tags    Документы
// @Produce json
// @Param   page query int false "Номер страницы (с 1)"
// @Param   size query int false "Размер страницы (1..100)"
// @Security BearerAuth
// @Success 200 {object} presenter.ListResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /documents [get]
func (h *DocumentsHandler) List(c *fiber.Ctx) error {
	page, size := parsePageSize(c, 10)
	docs, total, err := h.svc.List(c.Context(), size, (page-1)*size)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list documents")
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return presenter.List(c, docs, total, page, size)
}

// Get возвращает документ со статусом обработки и извлечёнными фактами.
// @Summary Получить документ
// @Tags    Документы
// @Produce json
// @Param   id path string true "ID документа (UUID)"
// @Security BearerAuth
// @Success 200 {object} document.Document
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /documents/{id} [get]
func (h *DocumentsHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	doc, err := h.svc.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "document not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to get document")
	}
	return presenter.JSON(c, http.StatusOK, doc)
}

// Chunks возвращает чанки извлечённого текста в порядке следования.
// @Summary Чанки документа
// @Tags    Документы
// @Produce json
// @Param   id path string true "ID документа (UUID)"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /documents/{id}/chunks [get]
func (h *DocumentsHandler) Chunks(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	chunks, err := h.svc.Chunks(c.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "document not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to get chunks")
	}
	if chunks == nil {
		chunks = []document.Chunk{}
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"documentId": id,
		"chunks":     chunks,
		"count":      len(chunks),
	})
}

// Download выдаёт временную ссылку на исходный файл.
// @Summary Ссылка на скачивание
// @Tags    Документы
// @Produce json
// @Param   id path string true "ID документа (UUID)"
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /documents/{id}/download [get]
func (h *DocumentsHandler) Download(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	url, err := h.svc.DownloadURL(c.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "document not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to build download url")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"downloadUrl": url})
}

// Reprocess повторно запускает извлечение для уже загруженного файла.
// @Summary Переобработать документ
// @Tags    Документы
// @Produce json
// @Param   id path string true "ID документа (UUID)"
// @Security BearerAuth
// @Success 202 {object} map[string]any
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /documents/{id}/reprocess [post]
func (h *DocumentsHandler) Reprocess(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	doc, err := h.svc.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "document not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to get document")
	}
	h.scheduleProcessing(doc)
	return presenter.JSON(c, http.StatusAccepted, fiber.Map{
		"id":     doc.ID,
		"status": "scheduled",
	})
}

// Delete удаляет документ, его чанки и файл в хранилище.
// @Summary Удалить документ
// @Tags    Документы
// @Param   id path string true "ID документа (UUID)"
// @Security BearerAuth
// @Success 204 {object} nil
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /documents/{id} [delete]
func (h *DocumentsHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "document not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to delete document")
	}
	return c.SendStatus(http.StatusNoContent)
}

func readAtMost(f multipart.File, max int64) ([]byte, error) {
	limited := io.LimitReader(f, max+1)
	b, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("file too large: limit is %d bytes", max)
	}
	return b, nil
}
