package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/controllers"
	"github.com/meinhoongagan/trucktrack/middleware"
	"github.com/meinhoongagan/trucktrack/models"
)

// SetupTripRoutes configures all trip related routes
func SetupTripRoutes(api fiber.Router, h *controllers.TripHandler, protected fiber.Handler) {
	trips := api.Group("/trips", protected)
	read := middleware.RequireCapability(models.SectionTrips, models.ActionRead)

	// fixed paths before /:id
	trips.Get("/availability", read, h.Availability)
	trips.Post("/estimate", read, h.Estimate)

	trips.Get("/", read, h.GetAllTrips)
	trips.Get("/:id", read, h.GetTrip)
	trips.Post("/", middleware.RequireCapability(models.SectionTrips, models.ActionCreate), h.CreateTrip)
	trips.Put("/:id", middleware.RequireCapability(models.SectionTrips, models.ActionUpdate), h.UpdateTrip)
	trips.Delete("/:id", middleware.RequireCapability(models.SectionTrips, models.ActionDelete), h.DeleteTrip)
}
