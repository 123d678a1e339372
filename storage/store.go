package storage

import (
	"context"
	"time"

	"github.com/meinhoongagan/trucktrack/models"
)

// Store defines the interface for storage operations.
// Lookups of a missing id return common.ErrNotFound.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	MarkUserVerified(ctx context.Context, id uint) error
	DeleteUser(ctx context.Context, id uint) error
	ListUnverifiedUsersBefore(ctx context.Context, before time.Time) ([]models.User, error)

	// Driver operations
	CreateDriver(ctx context.Context, driver *models.Driver) error
	GetDriver(ctx context.Context, id uint) (*models.Driver, error)
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	UpdateDriver(ctx context.Context, driver *models.Driver) error
	DeleteDriver(ctx context.Context, id uint) error
	CountDriversByStatus(ctx context.Context, status models.DriverStatus) (int64, error)

	// Vehicle operations
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	DeleteVehicle(ctx context.Context, id uint) error
	CountVehicles(ctx context.Context) (int64, error)

	// Customer operations
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, id uint) error
	CountCustomers(ctx context.Context) (int64, error)

	// Trip operations. Trips are returned with Driver resolved.
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, id uint) (*models.Trip, error)
	ListTrips(ctx context.Context) ([]models.Trip, error)
	ListTripsBetween(ctx context.Context, from, to string) ([]models.Trip, error)
	// ListCommittedTrips returns Pending and Active trips on date. Inside a
	// postgres transaction the rows are locked until commit.
	ListCommittedTrips(ctx context.Context, date string) ([]models.Trip, error)
	// LockTripDate serializes bookings for date across processes until the
	// surrounding transaction ends. It is a no-op outside postgres.
	LockTripDate(ctx context.Context, date string) error
	UpdateTrip(ctx context.Context, trip *models.Trip) error
	DeleteTrip(ctx context.Context, id uint) error

	// Expense operations
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id uint) (*models.Expense, error)
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	ListExpensesBetween(ctx context.Context, from, to string) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id uint) error
	SumExpenses(ctx context.Context) (float64, error)

	// Proof operations
	CreateProof(ctx context.Context, proof *models.Proof) error
	ListProofs(ctx context.Context, userID *uint) ([]models.Proof, error)

	// Transaction runs fn against a Store bound to one database
	// transaction. Returning an error from fn rolls it back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
