package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/controllers"
	"github.com/meinhoongagan/trucktrack/models"
)

// SetupAdminRoutes configures account management routes
func SetupAdminRoutes(api fiber.Router, h *controllers.AdminHandler, protected fiber.Handler) {
	admin := api.Group("/admin", protected)
	admin.Get("/users", can(models.SectionAdminManagement, models.ActionRead), h.GetAllUsers)
	admin.Delete("/users/:id", can(models.SectionAdminManagement, models.ActionDelete), h.DeleteUser)
}
