package status

import (
	"collection-tracker/feature/collection"
	"collection-tracker/feature/tracker"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Source is the read-only view the handlers serve. *tracker.Tracker
// satisfies it.
type Source interface {
	Status() (tracker.Status, error)
	ExportRows() ([]collection.ExportRow, error)
}

// Handler handles HTTP requests for the status API.
type Handler struct {
	cfg    Config
	source Source
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg Config, source Source, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, source: source, logger: logger}
}

// App builds the Fiber application with all routes registered.
func (h *Handler) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(func(c *fiber.Ctx) error {
		h.logger.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			h.logger.Error("Request error", zap.Error(err))
		}
		return err
	})
	app.Use(h.requireApiKey)

	app.Get("/status", h.HandleStatus)
	app.Get("/collection", h.HandleCollection)
	return app
}

// requireApiKey protects every request when an api key is configured.
func (h *Handler) requireApiKey(c *fiber.Ctx) error {
	if h.cfg.ApiKey == "" {
		return c.Next()
	}
	if c.Get("X-API-Key") != h.cfg.ApiKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
	}
	return c.Next()
}

// HandleStatus returns the tracker health summary.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.source.Status()
	if err != nil {
		h.logger.Error("Status read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// HandleCollection returns the enriched collection rows, the same view
// the JSON export renders.
func (h *Handler) HandleCollection(c *fiber.Ctx) error {
	rows, err := h.source.ExportRows()
	if err != nil {
		h.logger.Error("Collection read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if rows == nil {
		rows = []collection.ExportRow{}
	}
	return c.JSON(rows)
}
