package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/controllers"
	"github.com/meinhoongagan/trucktrack/middleware"
	"github.com/meinhoongagan/trucktrack/models"
)

func can(section models.Section, action models.Action) fiber.Handler {
	return middleware.RequireCapability(section, action)
}

// SetupCatalogRoutes configures driver, vehicle, customer and expense routes
func SetupCatalogRoutes(api fiber.Router, h *controllers.CatalogHandler, protected fiber.Handler) {
	drivers := api.Group("/drivers", protected)
	drivers.Get("/", can(models.SectionDrivers, models.ActionRead), h.GetAllDrivers)
	drivers.Get("/:id", can(models.SectionDrivers, models.ActionRead), h.GetDriver)
	drivers.Post("/", can(models.SectionDrivers, models.ActionCreate), h.CreateDriver)
	drivers.Put("/:id", can(models.SectionDrivers, models.ActionUpdate), h.UpdateDriver)
	drivers.Delete("/:id", can(models.SectionDrivers, models.ActionDelete), h.DeleteDriver)

	vehicles := api.Group("/vehicles", protected)
	vehicles.Get("/", can(models.SectionVehicles, models.ActionRead), h.GetAllVehicles)
	vehicles.Get("/:id", can(models.SectionVehicles, models.ActionRead), h.GetVehicle)
	vehicles.Post("/", can(models.SectionVehicles, models.ActionCreate), h.CreateVehicle)
	vehicles.Put("/:id", can(models.SectionVehicles, models.ActionUpdate), h.UpdateVehicle)
	vehicles.Delete("/:id", can(models.SectionVehicles, models.ActionDelete), h.DeleteVehicle)

	customers := api.Group("/customers", protected)
	customers.Get("/", can(models.SectionCustomers, models.ActionRead), h.GetAllCustomers)
	customers.Get("/:id", can(models.SectionCustomers, models.ActionRead), h.GetCustomer)
	customers.Post("/", can(models.SectionCustomers, models.ActionCreate), h.CreateCustomer)
	customers.Put("/:id", can(models.SectionCustomers, models.ActionUpdate), h.UpdateCustomer)
	customers.Delete("/:id", can(models.SectionCustomers, models.ActionDelete), h.DeleteCustomer)

	expenses := api.Group("/expenses", protected)
	expenses.Get("/", can(models.SectionExpenses, models.ActionRead), h.GetAllExpenses)
	expenses.Post("/", can(models.SectionExpenses, models.ActionCreate), h.CreateExpense)
	expenses.Put("/:id", can(models.SectionExpenses, models.ActionUpdate), h.UpdateExpense)
	expenses.Delete("/:id", can(models.SectionExpenses, models.ActionDelete), h.DeleteExpense)
}
