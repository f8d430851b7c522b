package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/cogniscan/api/http/presenter"
	"github.com/artem13815/cogniscan/pkg/auth"
)

type AuthHandler struct {
	useCase auth.UseCase
}

func NewAuthHandler(useCase auth.UseCase) *AuthHandler {
	return &AuthHandler{useCase: useCase}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the configured administrator.
// @Summary Login
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body loginRequest true "login payload"
// @Success 200 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return presenter.Error(c, http.StatusBadRequest, "username and password are required")
	}

	result, err := h.useCase.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return presenter.Error(c, http.StatusUnauthorized, "invalid credentials")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to login")
	}

	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"username": result.Identity.Username,
		"isAdmin":  result.Identity.IsAdmin,
		"token":    result.Token,
	})
}

// Me returns the identity behind the presented token.
// @Summary Current user
// @Tags    auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)
	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"username":        username,
		"isAuthenticated": true,
	})
}

// BasicAuth verifies credentials from the Basic Authorization header without
// issuing a token. Meant for system-to-system callers that only need a
// yes/no answer.
// @Summary Проверка учётных данных (Basic)
// @Tags    auth
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/basic-auth [post]
func (h *AuthHandler) BasicAuth(c *fiber.Ctx) error {
	username, password, ok := parseBasicAuth(c.Get("Authorization"))
	if !ok {
		c.Set("WWW-Authenticate", `Basic realm="cogniscan"`)
		return presenter.Error(c, http.StatusUnauthorized, "basic authorization required")
	}

	identity, err := h.useCase.Verify(c.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.Set("WWW-Authenticate", `Basic realm="cogniscan"`)
			return presenter.Error(c, http.StatusUnauthorized, "invalid credentials")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to verify credentials")
	}

	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"authenticated": true,
		"username":      identity.Username,
	})
}

func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(raw), ":")
	return username, password, ok
}
