package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "duplicate key value"):
		return fmt.Errorf("%w: %v", common.ErrDuplicate, err)
	}
	return err
}

func createRow[T any](ctx context.Context, db *gorm.DB, v *T) error {
	return translate(db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

func getRow[T any](ctx context.Context, db *gorm.DB, id uint, preload ...string) (*T, error) {
	q := db.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	var v T
	if err := q.First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func listRows[T any](ctx context.Context, db *gorm.DB) ([]T, error) {
	var out []T
	if err := db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func saveRow[T any](ctx context.Context, db *gorm.DB, v *T) error {
	return translate(db.WithContext(ctx).Omit(clause.Associations).Save(v).Error)
}

func deleteRow[T any](ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func countRows[T any](ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

// clearTripRef nulls a weak reference column on every trip pointing at id.
func clearTripRef(tx *gorm.DB, column string, id uint) error {
	return tx.Model(&models.Trip{}).Where(column+" = ?", id).Update(column, nil).Error
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return createRow(ctx, s.db, user)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return getRow[models.User](ctx, s.db, id)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return listRows[models.User](ctx, s.db)
}

func (s *GormStore) MarkUserVerified(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and unlinks any driver record pointing at it.
func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Driver{}).Where("user_id = ?", id).Update("user_id", nil).Error; err != nil {
			return err
		}
		return deleteRow[models.User](ctx, tx, id)
	})
}

func (s *GormStore) ListUnverifiedUsersBefore(ctx context.Context, before time.Time) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("verified = ? AND created_at < ?", false, before).
		Order("id").
		Find(&users).Error
	return users, err
}

// Drivers

func (s *GormStore) CreateDriver(ctx context.Context, driver *models.Driver) error {
	return createRow(ctx, s.db, driver)
}

func (s *GormStore) GetDriver(ctx context.Context, id uint) (*models.Driver, error) {
	return getRow[models.Driver](ctx, s.db, id)
}

func (s *GormStore) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return listRows[models.Driver](ctx, s.db)
}

func (s *GormStore) UpdateDriver(ctx context.Context, driver *models.Driver) error {
	return saveRow(ctx, s.db, driver)
}

func (s *GormStore) DeleteDriver(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearTripRef(tx, "driver_id", id); err != nil {
			return err
		}
		return deleteRow[models.Driver](ctx, tx, id)
	})
}

func (s *GormStore) CountDriversByStatus(ctx context.Context, status models.DriverStatus) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Driver{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// Vehicles

func (s *GormStore) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return createRow(ctx, s.db, vehicle)
}

func (s *GormStore) GetVehicle(ctx context.Context, id uint) (*models.Vehicle, error) {
	return getRow[models.Vehicle](ctx, s.db, id)
}

func (s *GormStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return listRows[models.Vehicle](ctx, s.db)
}

func (s *GormStore) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return saveRow(ctx, s.db, vehicle)
}

func (s *GormStore) DeleteVehicle(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearTripRef(tx, "vehicle_id", id); err != nil {
			return err
		}
		return deleteRow[models.Vehicle](ctx, tx, id)
	})
}

func (s *GormStore) CountVehicles(ctx context.Context) (int64, error) {
	return countRows[models.Vehicle](ctx, s.db)
}

// Customers

func (s *GormStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return createRow(ctx, s.db, customer)
}

func (s *GormStore) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	return getRow[models.Customer](ctx, s.db, id)
}

func (s *GormStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return listRows[models.Customer](ctx, s.db)
}

func (s *GormStore) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	return saveRow(ctx, s.db, customer)
}

func (s *GormStore) DeleteCustomer(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearTripRef(tx, "customer_id", id); err != nil {
			return err
		}
		return deleteRow[models.Customer](ctx, tx, id)
	})
}

func (s *GormStore) CountCustomers(ctx context.Context) (int64, error) {
	return countRows[models.Customer](ctx, s.db)
}

// Trips

func (s *GormStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	return createRow(ctx, s.db, trip)
}

func (s *GormStore) GetTrip(ctx context.Context, id uint) (*models.Trip, error) {
	return getRow[models.Trip](ctx, s.db, id, "Driver")
}

func (s *GormStore) ListTrips(ctx context.Context) ([]models.Trip, error) {
	var trips []models.Trip
	err := s.db.WithContext(ctx).Preload("Driver").Order("date, id").Find(&trips).Error
	return trips, err
}

func (s *GormStore) ListTripsBetween(ctx context.Context, from, to string) ([]models.Trip, error) {
	var trips []models.Trip
	err := s.db.WithContext(ctx).Preload("Driver").
		Where("date >= ? AND date <= ?", from, to).
		Order("date, id").
		Find(&trips).Error
	return trips, err
}

func (s *GormStore) ListCommittedTrips(ctx context.Context, date string) ([]models.Trip, error) {
	q := s.db.WithContext(ctx).Preload("Driver").
		Where("date = ? AND status IN ?", date, []models.TripStatus{models.TripPending, models.TripActive})
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var trips []models.Trip
	err := q.Order("id").Find(&trips).Error
	return trips, err
}

// LockTripDate takes a transaction-scoped advisory lock keyed by date, so a
// concurrent booking for the same day waits even when no rows exist yet.
func (s *GormStore) LockTripDate(ctx context.Context, date string) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	return s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "trips:"+date).Error
}

func (s *GormStore) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	return saveRow(ctx, s.db, trip)
}

func (s *GormStore) DeleteTrip(ctx context.Context, id uint) error {
	return deleteRow[models.Trip](ctx, s.db, id)
}

// Expenses

func (s *GormStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return createRow(ctx, s.db, expense)
}

func (s *GormStore) GetExpense(ctx context.Context, id uint) (*models.Expense, error) {
	return getRow[models.Expense](ctx, s.db, id)
}

func (s *GormStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.db.WithContext(ctx).Order("date, id").Find(&expenses).Error
	return expenses, err
}

func (s *GormStore) ListExpensesBetween(ctx context.Context, from, to string) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date, id").
		Find(&expenses).Error
	return expenses, err
}

func (s *GormStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return saveRow(ctx, s.db, expense)
}

func (s *GormStore) DeleteExpense(ctx context.Context, id uint) error {
	return deleteRow[models.Expense](ctx, s.db, id)
}

func (s *GormStore) SumExpenses(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// Proofs

func (s *GormStore) CreateProof(ctx context.Context, proof *models.Proof) error {
	return createRow(ctx, s.db, proof)
}

func (s *GormStore) ListProofs(ctx context.Context, userID *uint) ([]models.Proof, error) {
	q := s.db.WithContext(ctx).Order("id")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var proofs []models.Proof
	err := q.Find(&proofs).Error
	return proofs, err
}
