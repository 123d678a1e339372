package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/events"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/utils"
)

// TripInput carries trip fields from a request. Nil fields are absent:
// on create they fail validation when required, on update they keep the
// stored value.
type TripInput struct {
	Origin               *string            `json:"origin"`
	OriginLat            *float64           `json:"origin_lat"`
	OriginLng            *float64           `json:"origin_lng"`
	Destination          *string            `json:"destination"`
	DestinationLat       *float64           `json:"destination_lat"`
	DestinationLng       *float64           `json:"destination_lng"`
	Date                 *string            `json:"date"`
	DriverID             *uint              `json:"driver_id"`
	CustomerID           *uint              `json:"customer_id"`
	VehicleID            *uint              `json:"vehicle_id"`
	Status               *models.TripStatus `json:"status"`
	EstimatedTravelTime  *string            `json:"estimated_travel_time"`
	EstimatedArrivalTime *string            `json:"estimated_arrival_time"`
	Distance             *float64           `json:"distance"`
	Price                *float64           `json:"price"`
	DeliveryRequirement  *string            `json:"delivery_requirement"`
}

func (in *TripInput) missing() []string {
	var out []string
	check := func(name string, absent bool) {
		if absent {
			out = append(out, name)
		}
	}
	check("origin", in.Origin == nil || strings.TrimSpace(*in.Origin) == "")
	check("origin_lat", in.OriginLat == nil)
	check("origin_lng", in.OriginLng == nil)
	check("destination", in.Destination == nil || strings.TrimSpace(*in.Destination) == "")
	check("destination_lat", in.DestinationLat == nil)
	check("destination_lng", in.DestinationLng == nil)
	check("date", in.Date == nil || *in.Date == "")
	check("driver_id", in.DriverID == nil)
	check("customer_id", in.CustomerID == nil)
	check("vehicle_id", in.VehicleID == nil)
	return out
}

// onlyCompletes reports whether the input does nothing but set the status
// to Completed.
func (in *TripInput) onlyCompletes() bool {
	return in.Status != nil && *in.Status == models.TripCompleted &&
		in.Origin == nil && in.OriginLat == nil && in.OriginLng == nil &&
		in.Destination == nil && in.DestinationLat == nil && in.DestinationLng == nil &&
		in.Date == nil && in.DriverID == nil && in.CustomerID == nil && in.VehicleID == nil &&
		in.EstimatedTravelTime == nil && in.EstimatedArrivalTime == nil &&
		in.Distance == nil && in.Price == nil && in.DeliveryRequirement == nil
}

func (in *TripInput) suppliesEstimate() bool {
	return in.EstimatedTravelTime != nil && in.EstimatedArrivalTime != nil &&
		in.Distance != nil && in.Price != nil
}

func (in *TripInput) touchesRoute() bool {
	return in.OriginLat != nil || in.OriginLng != nil ||
		in.DestinationLat != nil || in.DestinationLng != nil || in.Date != nil
}

// apply copies present fields onto t.
func (in *TripInput) apply(t *models.Trip) error {
	if in.Origin != nil {
		if strings.TrimSpace(*in.Origin) == "" {
			return fmt.Errorf("%w: origin cannot be empty", common.ErrValidation)
		}
		t.Origin = *in.Origin
	}
	if in.Destination != nil {
		if strings.TrimSpace(*in.Destination) == "" {
			return fmt.Errorf("%w: destination cannot be empty", common.ErrValidation)
		}
		t.Destination = *in.Destination
	}
	if in.Date != nil {
		d, err := utils.ParseDate(*in.Date)
		if err != nil {
			return err
		}
		t.Date = d.Format(utils.DateLayout)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", common.ErrValidation, *in.Status)
		}
		t.Status = *in.Status
	}

	setFloat(&t.OriginLat, in.OriginLat)
	setFloat(&t.OriginLng, in.OriginLng)
	setFloat(&t.DestinationLat, in.DestinationLat)
	setFloat(&t.DestinationLng, in.DestinationLng)

	if in.DriverID != nil {
		t.DriverID = in.DriverID
	}
	if in.CustomerID != nil {
		t.CustomerID = in.CustomerID
	}
	if in.VehicleID != nil {
		t.VehicleID = in.VehicleID
	}
	if in.EstimatedTravelTime != nil {
		t.EstimatedTravelTime = *in.EstimatedTravelTime
	}
	if in.EstimatedArrivalTime != nil {
		t.EstimatedArrivalTime = *in.EstimatedArrivalTime
	}
	if in.Distance != nil {
		t.Distance = in.Distance
	}
	if in.Price != nil {
		t.Price = in.Price
	}
	if in.DeliveryRequirement != nil {
		t.DeliveryRequirement = in.DeliveryRequirement
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TripService creates and edits trips. Booking checks and the write they
// guard run under one lock and inside one store transaction, so two
// requests can never both take the last free driver or vehicle of a day.
type TripService struct {
	store     storage.Store
	estimator *Estimator
	events    events.Publisher
	loc       *time.Location
	log       logging.Logger
	now       func() time.Time

	mu sync.Mutex
}

func NewTripService(store storage.Store, estimator *Estimator, publisher events.Publisher, loc *time.Location, log logging.Logger) *TripService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TripService{
		store:     store,
		estimator: estimator,
		events:    publisher,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

func (s *TripService) List(ctx context.Context, caller Caller) ([]models.Trip, error) {
	trips, err := s.store.ListTrips(ctx)
	if err != nil {
		return nil, err
	}
	return VisibleTrips(caller, trips), nil
}

// Get returns a trip visible to caller. Invisible trips are reported as
// missing.
func (s *TripService) Get(ctx context.Context, caller Caller, id uint) (*models.Trip, error) {
	trip, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanSeeTrip(caller, trip) {
		return nil, common.ErrNotFound
	}
	return trip, nil
}

// Availability reports the booking state of date, or of today when date is
// empty.
func (s *TripService) Availability(ctx context.Context, date string) (utils.Availability, error) {
	if date == "" {
		date = utils.Today(s.now(), s.loc)
	}
	if _, err := utils.ParseDate(date); err != nil {
		return utils.Availability{}, err
	}
	return s.availability(ctx, s.store, date, 0)
}

func (s *TripService) availability(ctx context.Context, st storage.Store, date string, exclude uint) (utils.Availability, error) {
	drivers, err := st.ListDrivers(ctx)
	if err != nil {
		return utils.Availability{}, err
	}
	vehicles, err := st.ListVehicles(ctx)
	if err != nil {
		return utils.Availability{}, err
	}
	committed, err := st.ListCommittedTrips(ctx, date)
	if err != nil {
		return utils.Availability{}, err
	}

	others := committed[:0]
	for _, t := range committed {
		if t.ID != exclude {
			others = append(others, t)
		}
	}
	return utils.CheckAvailability(date, drivers, vehicles, others), nil
}

// checkBooking rejects a committed trip whose date is saturated or whose
// driver or vehicle is already taken that day.
func (s *TripService) checkBooking(ctx context.Context, tx storage.Store, trip *models.Trip) error {
	if err := tx.LockTripDate(ctx, trip.Date); err != nil {
		return err
	}
	avail, err := s.availability(ctx, tx, trip.Date, trip.ID)
	if err != nil {
		return err
	}
	if avail.FullyBooked {
		return fmt.Errorf("%w: %s", common.ErrFullyBooked, trip.Date)
	}
	if trip.DriverID != nil && avail.DriverBooked(*trip.DriverID) {
		return fmt.Errorf("%w: driver %d already has a trip on %s", common.ErrResourceBooked, *trip.DriverID, trip.Date)
	}
	if trip.VehicleID != nil && avail.VehicleBooked(*trip.VehicleID) {
		return fmt.Errorf("%w: vehicle %d already has a trip on %s", common.ErrResourceBooked, *trip.VehicleID, trip.Date)
	}
	return nil
}

// checkRefs verifies that referenced entities exist and that admins only
// assign drivers of their own company.
func (s *TripService) checkRefs(ctx context.Context, tx storage.Store, caller Caller, trip *models.Trip) error {
	if trip.DriverID != nil {
		driver, err := tx.GetDriver(ctx, *trip.DriverID)
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: driver %d does not exist", common.ErrValidation, *trip.DriverID)
		}
		if err != nil {
			return err
		}
		if caller.Role == models.RoleAdmin && !caller.sameCompany(driver.Company) {
			return fmt.Errorf("%w: driver %d belongs to another company", common.ErrForbidden, driver.ID)
		}
	}
	if trip.VehicleID != nil {
		if _, err := tx.GetVehicle(ctx, *trip.VehicleID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("%w: vehicle %d does not exist", common.ErrValidation, *trip.VehicleID)
			}
			return err
		}
	}
	if trip.CustomerID != nil {
		if _, err := tx.GetCustomer(ctx, *trip.CustomerID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("%w: customer %d does not exist", common.ErrValidation, *trip.CustomerID)
			}
			return err
		}
	}
	return nil
}

// estimate fills derived fields the request did not supply. A routing
// failure never blocks the write: missing text fields become "N/A" and
// distance and price stay empty.
func (s *TripService) estimate(ctx context.Context, trip *models.Trip, in TripInput) {
	if s.estimator == nil || in.suppliesEstimate() {
		return
	}

	origin := &LatLng{Lat: trip.OriginLat, Lng: trip.OriginLng}
	destination := &LatLng{Lat: trip.DestinationLat, Lng: trip.DestinationLng}
	est, err := s.estimator.Estimate(ctx, origin, destination, trip.Date)
	if err != nil {
		s.log.Warn(ctx, "trip estimate unavailable", "date", trip.Date, "err", err)
		if in.EstimatedTravelTime == nil {
			trip.EstimatedTravelTime = NotAvailable
		}
		if in.EstimatedArrivalTime == nil {
			trip.EstimatedArrivalTime = NotAvailable
		}
		if in.Distance == nil {
			trip.Distance = nil
		}
		if in.Price == nil {
			trip.Price = nil
		}
		return
	}

	if in.EstimatedTravelTime == nil {
		trip.EstimatedTravelTime = est.TravelTime
	}
	if in.EstimatedArrivalTime == nil {
		trip.EstimatedArrivalTime = est.ArrivalTime
	}
	if in.Distance == nil {
		trip.Distance = &est.DistanceKm
	}
	if in.Price == nil {
		trip.Price = &est.Price
	}
}

func (s *TripService) publish(ctx context.Context, kind string, trip *models.Trip) {
	if err := s.events.PublishTrip(ctx, events.NewTripEvent(kind, trip, s.now())); err != nil {
		s.log.Warn(ctx, "publish trip event", "event", kind, "trip_id", trip.ID, "err", err)
	}
}

// Create books a new trip. Only admins and master admins create trips;
// an admin's trip is stamped with its company, a master admin's is not.
func (s *TripService) Create(ctx context.Context, caller Caller, in TripInput) (*models.Trip, error) {
	if !caller.Role.Privileged() {
		return nil, common.ErrForbidden
	}
	if missing := in.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", common.ErrValidation, strings.Join(missing, ", "))
	}

	trip := &models.Trip{Status: models.TripPending, CreatedBy: caller.UserID}
	if err := in.apply(trip); err != nil {
		return nil, err
	}
	if caller.Role == models.RoleAdmin {
		company := caller.Company
		trip.CompanyID = &company
	}
	s.estimate(ctx, trip, in)

	s.mu.Lock()
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		if err := s.checkRefs(ctx, tx, caller, trip); err != nil {
			return err
		}
		if trip.Status.Committed() {
			if err := s.checkBooking(ctx, tx, trip); err != nil {
				return err
			}
		}
		return tx.CreateTrip(ctx, trip)
	})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "trip created", "trip_id", trip.ID, "date", trip.Date, "by", caller.UserID)
	s.publish(ctx, events.TripCreated, trip)
	return s.store.GetTrip(ctx, trip.ID)
}

// Update applies a partial update. Users may only complete their own
// Active trips; any other change by a user is forbidden. Admins get
// Forbidden, not NotFound, for trips of another company.
func (s *TripService) Update(ctx context.Context, caller Caller, id uint, in TripInput) (*models.Trip, error) {
	if caller.Role == models.RoleUser {
		if !in.onlyCompletes() {
			return nil, common.ErrForbidden
		}
		return s.Complete(ctx, caller, id)
	}

	current, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutateTrip(caller, current) {
		return nil, common.ErrForbidden
	}

	// re-estimate outside the lock when the route or day moves
	var derived *models.Trip
	if in.touchesRoute() {
		preview := *current
		if err := in.apply(&preview); err != nil {
			return nil, err
		}
		s.estimate(ctx, &preview, in)
		derived = &preview
	}

	var before models.Trip
	var trip *models.Trip
	s.mu.Lock()
	err = s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		trip, err = tx.GetTrip(ctx, id)
		if err != nil {
			return err
		}
		if !CanMutateTrip(caller, trip) {
			return common.ErrForbidden
		}
		before = *trip

		if err := in.apply(trip); err != nil {
			return err
		}
		if derived != nil {
			trip.EstimatedTravelTime = derived.EstimatedTravelTime
			trip.EstimatedArrivalTime = derived.EstimatedArrivalTime
			trip.Distance = derived.Distance
			trip.Price = derived.Price
		}
		trip.Driver = nil

		if !sameID(before.DriverID, trip.DriverID) || !sameID(before.VehicleID, trip.VehicleID) || !sameID(before.CustomerID, trip.CustomerID) {
			if err := s.checkRefs(ctx, tx, caller, trip); err != nil {
				return err
			}
		}

		moved := before.Date != trip.Date || !sameID(before.DriverID, trip.DriverID) || !sameID(before.VehicleID, trip.VehicleID)
		if trip.Status.Committed() && (moved || !before.Status.Committed()) {
			if err := s.checkBooking(ctx, tx, trip); err != nil {
				return err
			}
		}
		return tx.UpdateTrip(ctx, trip)
	})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	kind := events.TripUpdated
	if before.Status != models.TripCompleted && trip.Status == models.TripCompleted {
		kind = events.TripCompleted
	}
	s.publish(ctx, kind, trip)
	return s.store.GetTrip(ctx, id)
}

// Complete moves a trip to Completed. Completing an already completed trip
// is a no-op for admins.
func (s *TripService) Complete(ctx context.Context, caller Caller, id uint) (*models.Trip, error) {
	var trip *models.Trip
	changed := false

	s.mu.Lock()
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		trip, err = tx.GetTrip(ctx, id)
		if err != nil {
			return err
		}
		if !CanSeeTrip(caller, trip) {
			return common.ErrNotFound
		}
		if !CanCompleteTrip(caller, trip) {
			return common.ErrForbidden
		}
		if trip.Status == models.TripCompleted {
			return nil
		}
		if caller.Role == models.RoleUser {
			if err := trip.ValidateTransition(models.TripCompleted); err != nil {
				return fmt.Errorf("%w: %v", common.ErrValidation, err)
			}
		}

		trip.Status = models.TripCompleted
		trip.Driver = nil
		changed = true
		return tx.UpdateTrip(ctx, trip)
	})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info(ctx, "trip completed", "trip_id", id, "by", caller.UserID)
		s.publish(ctx, events.TripCompleted, trip)
	}
	return s.store.GetTrip(ctx, id)
}

// Delete removes a trip. Admins get Forbidden for trips of another company.
func (s *TripService) Delete(ctx context.Context, caller Caller, id uint) error {
	var trip *models.Trip

	s.mu.Lock()
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		trip, err = tx.GetTrip(ctx, id)
		if err != nil {
			return err
		}
		if !CanMutateTrip(caller, trip) {
			return common.ErrForbidden
		}
		return tx.DeleteTrip(ctx, id)
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, events.TripDeleted, trip)
	return nil
}
