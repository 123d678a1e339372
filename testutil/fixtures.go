package testutil

import (
	"context"
	"testing"

	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/stretchr/testify/require"
)

func Ptr[T any](v T) *T { return &v }

func SeedDriver(t testing.TB, s storage.Store, name, company string, userID *uint) *models.Driver {
	t.Helper()
	d := &models.Driver{Name: name, License: "LIC-" + name, Company: company, UserID: userID}
	require.NoError(t, s.CreateDriver(context.Background(), d))
	return d
}

func SeedVehicle(t testing.TB, s storage.Store, plate string) *models.Vehicle {
	t.Helper()
	v := &models.Vehicle{Model: "Tata Ace", Year: 2021, PlateNumber: plate}
	require.NoError(t, s.CreateVehicle(context.Background(), v))
	return v
}

func SeedCustomer(t testing.TB, s storage.Store, name string) *models.Customer {
	t.Helper()
	c := &models.Customer{Name: name, Phone: "555-0100", Address: "1 Main St"}
	require.NoError(t, s.CreateCustomer(context.Background(), c))
	return c
}

func SeedUser(t testing.TB, s storage.Store, username string, role models.Role, company string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		PasswordHash: "x",
		Email:        username + "@example.com",
		Role:         role,
		Company:      company,
		Verified:     true,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// SeedTrip stores a trip with the given references and status on date.
func SeedTrip(t testing.TB, s storage.Store, date string, driverID, vehicleID, customerID *uint, status models.TripStatus, company *string) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		Origin:      "Pune",
		Destination: "Mumbai",
		Date:        date,
		DriverID:    driverID,
		VehicleID:   vehicleID,
		CustomerID:  customerID,
		Status:      status,
		CompanyID:   company,
	}
	require.NoError(t, s.CreateTrip(context.Background(), trip))
	return trip
}
