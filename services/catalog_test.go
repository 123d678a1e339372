package services

import (
	"context"
	"testing"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Drivers(t *testing.T) {
	store := testutil.NewStore(t)
	cat := NewCatalog(store, logging.Discard())
	ctx := context.Background()
	admin := Caller{UserID: 2, Role: models.RoleAdmin, Company: "acme"}

	_, err := cat.CreateDriver(ctx, admin, DriverInput{Name: sptr("ravi")})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.ErrorContains(t, err, "license")

	// admins cannot place drivers in another company
	d, err := cat.CreateDriver(ctx, admin, DriverInput{Name: sptr("ravi"), License: sptr("MH-01"), Company: sptr("globex")})
	require.NoError(t, err)
	assert.Equal(t, "acme", d.Company)
	assert.Equal(t, models.DriverActive, d.Status)

	other, err := cat.CreateDriver(ctx, master, DriverInput{Name: sptr("li"), License: sptr("MH-02"), Company: sptr("globex")})
	require.NoError(t, err)
	assert.Equal(t, "globex", other.Company)

	inactive := models.DriverInactive
	d, err = cat.UpdateDriver(ctx, admin, d.ID, DriverInput{Status: &inactive, Phone: sptr("555-0101")})
	require.NoError(t, err)
	assert.Equal(t, models.DriverInactive, d.Status)
	assert.Equal(t, "555-0101", d.Phone)
	assert.Equal(t, "MH-01", d.License)

	bogus := models.DriverStatus("Retired")
	_, err = cat.UpdateDriver(ctx, admin, d.ID, DriverInput{Status: &bogus})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = cat.UpdateDriver(ctx, admin, d.ID, DriverInput{UserID: uptr(404)})
	assert.ErrorIs(t, err, common.ErrValidation)

	user := testutil.SeedUser(t, store, "ravi", models.RoleUser, "")
	d, err = cat.UpdateDriver(ctx, admin, d.ID, DriverInput{UserID: &user.ID})
	require.NoError(t, err)
	require.NotNil(t, d.UserID)
	assert.Equal(t, user.ID, *d.UserID)

	_, err = cat.UpdateDriver(ctx, admin, other.ID, DriverInput{Phone: sptr("1")})
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.ErrorIs(t, cat.DeleteDriver(ctx, admin, other.ID), common.ErrForbidden)

	drivers, err := cat.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, 2)

	require.NoError(t, cat.DeleteDriver(ctx, admin, d.ID))
	_, err = cat.GetDriver(ctx, d.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCatalog_Vehicles(t *testing.T) {
	cat := NewCatalog(testutil.NewStore(t), logging.Discard())
	ctx := context.Background()
	year := 2021

	_, err := cat.CreateVehicle(ctx, VehicleInput{Model: sptr("Tata Ace")})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.ErrorContains(t, err, "plate_number, year")

	v, err := cat.CreateVehicle(ctx, VehicleInput{Model: sptr("Tata Ace"), Year: &year, PlateNumber: sptr("MH12AB1234")})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleActive, v.Status)

	maintenance := models.VehicleMaintenance
	v, err = cat.UpdateVehicle(ctx, v.ID, VehicleInput{Status: &maintenance, LastService: sptr("2025-01-15")})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleMaintenance, v.Status)
	assert.Equal(t, "MH12AB1234", v.PlateNumber)

	_, err = cat.UpdateVehicle(ctx, v.ID, VehicleInput{PlateNumber: sptr(" ")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = cat.UpdateVehicle(ctx, 99, VehicleInput{})
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, cat.DeleteVehicle(ctx, v.ID))
	assert.ErrorIs(t, cat.DeleteVehicle(ctx, v.ID), common.ErrNotFound)
}

func TestCatalog_Customers(t *testing.T) {
	cat := NewCatalog(testutil.NewStore(t), logging.Discard())
	ctx := context.Background()

	_, err := cat.CreateCustomer(ctx, CustomerInput{Name: sptr("Shah Traders")})
	assert.ErrorIs(t, err, common.ErrValidation)

	cu, err := cat.CreateCustomer(ctx, CustomerInput{Name: sptr("Shah Traders"), Phone: sptr("555-0100"), Address: sptr("1 Main St")})
	require.NoError(t, err)

	cu, err = cat.UpdateCustomer(ctx, cu.ID, CustomerInput{Email: sptr("ops@shah.example")})
	require.NoError(t, err)
	assert.Equal(t, "ops@shah.example", cu.Email)
	assert.Equal(t, "1 Main St", cu.Address)

	got, err := cat.GetCustomer(ctx, cu.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops@shah.example", got.Email)
}

func TestCatalog_Expenses(t *testing.T) {
	cat := NewCatalog(testutil.NewStore(t), logging.Discard())
	ctx := context.Background()

	_, err := cat.CreateExpense(ctx, ExpenseInput{Type: sptr("Fuel"), Amount: fptr(10), Date: sptr("March 1")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = cat.CreateExpense(ctx, ExpenseInput{Type: sptr("Fuel"), Amount: fptr(-1), Date: sptr("2025-03-01")})
	assert.ErrorIs(t, err, common.ErrValidation)

	e, err := cat.CreateExpense(ctx, ExpenseInput{Type: sptr("Fuel"), Amount: fptr(1234.567), Date: sptr("2025-03-01")})
	require.NoError(t, err)
	assert.Equal(t, 1234.57, e.Amount)

	e, err = cat.UpdateExpense(ctx, e.ID, ExpenseInput{Description: sptr("diesel")})
	require.NoError(t, err)
	assert.Equal(t, "diesel", e.Description)
	assert.Equal(t, 1234.57, e.Amount)

	list, err := cat.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, cat.DeleteExpense(ctx, e.ID))
	assert.ErrorIs(t, cat.DeleteExpense(ctx, e.ID), common.ErrNotFound)
}

func TestAdminService_DeleteUser(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewAdminService(store, logging.Discard())
	ctx := context.Background()

	boss := testutil.SeedUser(t, store, "boss", models.RoleMasterAdmin, "")
	driverUser := testutil.SeedUser(t, store, "ravi", models.RoleUser, "")
	d := testutil.SeedDriver(t, store, "ravi", "acme", &driverUser.ID)
	caller := Caller{UserID: boss.ID, Role: models.RoleMasterAdmin}

	assert.ErrorIs(t, svc.DeleteUser(ctx, caller, boss.ID), common.ErrValidation)
	require.NoError(t, svc.DeleteUser(ctx, caller, driverUser.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, caller, driverUser.ID), common.ErrNotFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "boss", users[0].Username)

	stored, err := store.GetDriver(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.UserID)
}
