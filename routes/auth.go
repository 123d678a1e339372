package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/controllers"
)

// SetupAuthRoutes configures registration, login and capability routes
func SetupAuthRoutes(api fiber.Router, h *controllers.AuthHandler, protected fiber.Handler) {
	// Public routes
	api.Post("/register", h.Register)
	api.Post("/verify-otp", h.VerifyOTP)
	api.Post("/login", h.Login)

	// Protected routes
	api.Get("/capabilities", protected, h.Capabilities)
}
