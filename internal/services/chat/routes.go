package chat

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты переписки на группе /api/trades,
// уже закрытой AuthMiddleware
func (h *Handler) SetupRoutes(api fiber.Router, sendLimiter fiber.Handler) {
	// Маршрут для получения сообщений обмена
	api.Get("/:id/messages", h.GetMessages)

	// Маршрут для отправки сообщения, с ограничением частоты.
	// В fiber v3 обработчик идёт первым, middleware после него, но исполняются они раньше.
	api.Post("/:id/messages", h.SendMessage, sendLimiter)
}
