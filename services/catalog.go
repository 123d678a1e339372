package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/utils"
)

// Catalog manages the reference data trips point at: drivers, vehicles,
// customers, and the expense ledger.
type Catalog struct {
	store storage.Store
	log   logging.Logger
}

func NewCatalog(store storage.Store, log logging.Logger) *Catalog {
	return &Catalog{store: store, log: log}
}

func required(fields map[string]bool) error {
	var missing []string
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if fields[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", common.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Drivers

type DriverInput struct {
	Name    *string              `json:"name"`
	License *string              `json:"license"`
	Phone   *string              `json:"phone"`
	Email   *string              `json:"email"`
	Status  *models.DriverStatus `json:"status"`
	Company *string              `json:"company"`
	UserID  *uint                `json:"user_id"`
}

func (c *Catalog) applyDriver(ctx context.Context, d *models.Driver, in DriverInput) error {
	if in.Name != nil && blank(in.Name) {
		return fmt.Errorf("%w: name cannot be empty", common.ErrValidation)
	}
	if in.License != nil && blank(in.License) {
		return fmt.Errorf("%w: license cannot be empty", common.ErrValidation)
	}
	if in.Status != nil && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown driver status %q", common.ErrValidation, *in.Status)
	}
	if in.UserID != nil {
		if _, err := c.store.GetUser(ctx, *in.UserID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("%w: user %d does not exist", common.ErrValidation, *in.UserID)
			}
			return err
		}
		d.UserID = in.UserID
	}

	setString(&d.Name, in.Name)
	setString(&d.License, in.License)
	setString(&d.Phone, in.Phone)
	setString(&d.Email, in.Email)
	setString(&d.Company, in.Company)
	if in.Status != nil {
		d.Status = *in.Status
	}
	return nil
}

func (c *Catalog) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return c.store.ListDrivers(ctx)
}

func (c *Catalog) GetDriver(ctx context.Context, id uint) (*models.Driver, error) {
	return c.store.GetDriver(ctx, id)
}

// CreateDriver stores a driver. Drivers created by an admin belong to the
// admin's company.
func (c *Catalog) CreateDriver(ctx context.Context, caller Caller, in DriverInput) (*models.Driver, error) {
	if err := required(map[string]bool{"name": blank(in.Name), "license": blank(in.License)}); err != nil {
		return nil, err
	}
	if caller.Role == models.RoleAdmin {
		company := caller.Company
		in.Company = &company
	}

	d := &models.Driver{}
	if err := c.applyDriver(ctx, d, in); err != nil {
		return nil, err
	}
	if err := c.store.CreateDriver(ctx, d); err != nil {
		return nil, err
	}
	c.log.Info(ctx, "driver created", "driver_id", d.ID, "company", d.Company)
	return d, nil
}

func (c *Catalog) UpdateDriver(ctx context.Context, caller Caller, id uint, in DriverInput) (*models.Driver, error) {
	d, err := c.store.GetDriver(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == models.RoleAdmin {
		if !caller.sameCompany(d.Company) {
			return nil, common.ErrForbidden
		}
		in.Company = nil
	}
	if err := c.applyDriver(ctx, d, in); err != nil {
		return nil, err
	}
	if err := c.store.UpdateDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (c *Catalog) DeleteDriver(ctx context.Context, caller Caller, id uint) error {
	if caller.Role == models.RoleAdmin {
		d, err := c.store.GetDriver(ctx, id)
		if err != nil {
			return err
		}
		if !caller.sameCompany(d.Company) {
			return common.ErrForbidden
		}
	}
	if err := c.store.DeleteDriver(ctx, id); err != nil {
		return err
	}
	c.log.Info(ctx, "driver deleted", "driver_id", id)
	return nil
}

// Vehicles

type VehicleInput struct {
	Model       *string               `json:"model"`
	Year        *int                  `json:"year"`
	PlateNumber *string               `json:"plate_number"`
	LastService *string               `json:"last_service"`
	Status      *models.VehicleStatus `json:"status"`
}

func applyVehicle(v *models.Vehicle, in VehicleInput) error {
	if in.Model != nil && blank(in.Model) {
		return fmt.Errorf("%w: model cannot be empty", common.ErrValidation)
	}
	if in.PlateNumber != nil && blank(in.PlateNumber) {
		return fmt.Errorf("%w: plate_number cannot be empty", common.ErrValidation)
	}
	if in.Year != nil && *in.Year <= 0 {
		return fmt.Errorf("%w: year must be positive", common.ErrValidation)
	}
	if in.Status != nil && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown vehicle status %q", common.ErrValidation, *in.Status)
	}

	setString(&v.Model, in.Model)
	setString(&v.PlateNumber, in.PlateNumber)
	setString(&v.LastService, in.LastService)
	if in.Year != nil {
		v.Year = *in.Year
	}
	if in.Status != nil {
		v.Status = *in.Status
	}
	return nil
}

func (c *Catalog) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return c.store.ListVehicles(ctx)
}

func (c *Catalog) GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error) {
	return c.store.GetVehicle(ctx, id)
}

func (c *Catalog) CreateVehicle(ctx context.Context, in VehicleInput) (*models.Vehicle, error) {
	err := required(map[string]bool{
		"model":        blank(in.Model),
		"year":         in.Year == nil,
		"plate_number": blank(in.PlateNumber),
	})
	if err != nil {
		return nil, err
	}

	v := &models.Vehicle{}
	if err := applyVehicle(v, in); err != nil {
		return nil, err
	}
	if err := c.store.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Catalog) UpdateVehicle(ctx context.Context, id uint, in VehicleInput) (*models.Vehicle, error) {
	v, err := c.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyVehicle(v, in); err != nil {
		return nil, err
	}
	if err := c.store.UpdateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Catalog) DeleteVehicle(ctx context.Context, id uint) error {
	return c.store.DeleteVehicle(ctx, id)
}

// Customers

type CustomerInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func applyCustomer(cu *models.Customer, in CustomerInput) error {
	for name, v := range map[string]*string{"name": in.Name, "phone": in.Phone, "address": in.Address} {
		if v != nil && blank(v) {
			return fmt.Errorf("%w: %s cannot be empty", common.ErrValidation, name)
		}
	}
	setString(&cu.Name, in.Name)
	setString(&cu.Email, in.Email)
	setString(&cu.Phone, in.Phone)
	setString(&cu.Address, in.Address)
	return nil
}

func (c *Catalog) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return c.store.ListCustomers(ctx)
}

func (c *Catalog) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	return c.store.GetCustomer(ctx, id)
}

func (c *Catalog) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	err := required(map[string]bool{
		"name":    blank(in.Name),
		"phone":   blank(in.Phone),
		"address": blank(in.Address),
	})
	if err != nil {
		return nil, err
	}

	cu := &models.Customer{}
	if err := applyCustomer(cu, in); err != nil {
		return nil, err
	}
	if err := c.store.CreateCustomer(ctx, cu); err != nil {
		return nil, err
	}
	return cu, nil
}

func (c *Catalog) UpdateCustomer(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	cu, err := c.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCustomer(cu, in); err != nil {
		return nil, err
	}
	if err := c.store.UpdateCustomer(ctx, cu); err != nil {
		return nil, err
	}
	return cu, nil
}

func (c *Catalog) DeleteCustomer(ctx context.Context, id uint) error {
	return c.store.DeleteCustomer(ctx, id)
}

// Expenses

type ExpenseInput struct {
	Type        *string  `json:"type"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
}

func applyExpense(e *models.Expense, in ExpenseInput) error {
	if in.Type != nil && blank(in.Type) {
		return fmt.Errorf("%w: type cannot be empty", common.ErrValidation)
	}
	if in.Amount != nil && *in.Amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", common.ErrValidation)
	}
	if in.Date != nil {
		d, err := utils.ParseDate(*in.Date)
		if err != nil {
			return err
		}
		e.Date = d.Format(utils.DateLayout)
	}

	setString(&e.Type, in.Type)
	setString(&e.Description, in.Description)
	if in.Amount != nil {
		e.Amount = utils.Round2(*in.Amount)
	}
	return nil
}

func (c *Catalog) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	return c.store.ListExpenses(ctx)
}

func (c *Catalog) CreateExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	err := required(map[string]bool{
		"type":   blank(in.Type),
		"amount": in.Amount == nil,
		"date":   blank(in.Date),
	})
	if err != nil {
		return nil, err
	}

	e := &models.Expense{}
	if err := applyExpense(e, in); err != nil {
		return nil, err
	}
	if err := c.store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Catalog) UpdateExpense(ctx context.Context, id uint, in ExpenseInput) (*models.Expense, error) {
	e, err := c.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyExpense(e, in); err != nil {
		return nil, err
	}
	if err := c.store.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Catalog) DeleteExpense(ctx context.Context, id uint) error {
	return c.store.DeleteExpense(ctx, id)
}
