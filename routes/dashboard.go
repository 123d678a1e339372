package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/controllers"
	"github.com/meinhoongagan/trucktrack/models"
)

// SetupDashboardRoutes configures dashboard and report routes
func SetupDashboardRoutes(api fiber.Router, h *controllers.DashboardHandler, protected fiber.Handler) {
	api.Get("/dashboard/stats", protected, can(models.SectionDashboard, models.ActionRead), h.GetStats)

	reports := api.Group("/reports", protected, can(models.SectionReports, models.ActionRead))
	reports.Post("/monthly", h.MonthlyReport)
	reports.Post("/weekly", h.WeeklyReport)
}
