package trade

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для API обменов на группе /api/trades,
// уже закрытой AuthMiddleware
func (h *Handler) SetupRoutes(api fiber.Router) {
	api.Post("/", h.CreateTrade)
	api.Get("/", h.ListTrades)
	api.Get("/:id", h.GetTrade)

	// Переходы статусов
	api.Post("/:id/accept", h.AcceptTrade)
	api.Post("/:id/confirm", h.ConfirmTrade)
	api.Post("/:id/reject", h.RejectTrade)
	api.Post("/:id/cancel", h.CancelTrade)
}
