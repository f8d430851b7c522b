package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/cogniscan/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(
	app *fiber.App,
	authMW fiber.Handler,
	auth *handlers.AuthHandler,
	health *handlers.HealthHandler,
	documents *handlers.DocumentsHandler,
	search *handlers.SearchHandler,
	chat *handlers.ChatHandler,
) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	a := v1.Group("/auth")
	a.Post("/login", auth.Login)
	a.Post("/basic-auth", auth.BasicAuth)
	a.Get("/me", authMW, auth.Me)

	d := v1.Group("/documents", authMW)
	d.Post("/", documents.Upload)
	d.Get("/", documents.List)
	d.Get("/:id", documents.Get)
	d.Get("/:id/chunks", documents.Chunks)
	d.Get("/:id/download", documents.Download)
	d.Post("/:id/reprocess", documents.Reprocess)
	d.Delete("/:id", documents.Delete)

	s := v1.Group("/search", authMW)
	s.Post("/", search.Search)

	ch := v1.Group("/chat", authMW)
	ch.Post("/", chat.Ask)
	ch.Get("/:sessionId/history", chat.History)
}
