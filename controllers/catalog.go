package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/services"
)

// CatalogHandler serves drivers, vehicles, customers and expenses.
type CatalogHandler struct {
	catalog *services.Catalog
}

func NewCatalogHandler(catalog *services.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) GetAllDrivers(c *fiber.Ctx) error {
	drivers, err := h.catalog.ListDrivers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(drivers)
}

func (h *CatalogHandler) GetDriver(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	driver, err := h.catalog.GetDriver(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(driver)
}

func (h *CatalogHandler) CreateDriver(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var in services.DriverInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	driver, err := h.catalog.CreateDriver(c.UserContext(), caller, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(driver)
}

func (h *CatalogHandler) UpdateDriver(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in services.DriverInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	driver, err := h.catalog.UpdateDriver(c.UserContext(), caller, id, in)
	if err != nil {
		return err
	}
	return c.JSON(driver)
}

func (h *CatalogHandler) DeleteDriver(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteDriver(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) GetAllVehicles(c *fiber.Ctx) error {
	vehicles, err := h.catalog.ListVehicles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(vehicles)
}

func (h *CatalogHandler) GetVehicle(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	vehicle, err := h.catalog.GetVehicle(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(vehicle)
}

func (h *CatalogHandler) CreateVehicle(c *fiber.Ctx) error {
	var in services.VehicleInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	vehicle, err := h.catalog.CreateVehicle(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(vehicle)
}

func (h *CatalogHandler) UpdateVehicle(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in services.VehicleInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	vehicle, err := h.catalog.UpdateVehicle(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(vehicle)
}

func (h *CatalogHandler) DeleteVehicle(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteVehicle(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) GetAllCustomers(c *fiber.Ctx) error {
	customers, err := h.catalog.ListCustomers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(customers)
}

func (h *CatalogHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	customer, err := h.catalog.GetCustomer(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

func (h *CatalogHandler) CreateCustomer(c *fiber.Ctx) error {
	var in services.CustomerInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	customer, err := h.catalog.CreateCustomer(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func (h *CatalogHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in services.CustomerInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	customer, err := h.catalog.UpdateCustomer(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

func (h *CatalogHandler) DeleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteCustomer(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) GetAllExpenses(c *fiber.Ctx) error {
	expenses, err := h.catalog.ListExpenses(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(expenses)
}

func (h *CatalogHandler) CreateExpense(c *fiber.Ctx) error {
	var in services.ExpenseInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	expense, err := h.catalog.CreateExpense(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(expense)
}

func (h *CatalogHandler) UpdateExpense(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in services.ExpenseInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	expense, err := h.catalog.UpdateExpense(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(expense)
}

func (h *CatalogHandler) DeleteExpense(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteExpense(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
