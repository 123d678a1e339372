package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/utils"
)

// NotAvailable replaces every derived field when no estimate can be made.
const NotAvailable = "N/A"

const (
	tripStartHour     = 9
	arrivalTimeLayout = "2006-01-02 15:04"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route is a routing provider's driving result between two points.
type Route struct {
	DurationSeconds int64
	DurationText    string
	DistanceMeters  int64
}

type RouteProvider interface {
	Route(ctx context.Context, origin, destination LatLng) (*Route, error)
}

// Estimate holds the fields derived for a trip from routing data.
type Estimate struct {
	Available   bool
	TravelTime  string
	ArrivalTime string
	DistanceKm  float64
	Price       float64
}

// MarshalJSON renders an unavailable estimate with every field set to "N/A"
// so clients never show values left over from a previous computation.
func (e Estimate) MarshalJSON() ([]byte, error) {
	if !e.Available {
		return json.Marshal(map[string]any{
			"available":   false,
			"travelTime":  NotAvailable,
			"arrivalTime": NotAvailable,
			"distance":    NotAvailable,
			"price":       NotAvailable,
		})
	}
	return json.Marshal(map[string]any{
		"available":   true,
		"travelTime":  e.TravelTime,
		"arrivalTime": e.ArrivalTime,
		"distance":    e.DistanceKm,
		"price":       e.Price,
	})
}

// Estimator derives arrival time, distance and price for a trip.
type Estimator struct {
	provider  RouteProvider
	ratePerKm float64
	loc       *time.Location
}

// NewEstimator returns an Estimator. provider may be nil, in which case
// every estimate is unavailable.
func NewEstimator(provider RouteProvider, ratePerKm float64, loc *time.Location) *Estimator {
	if loc == nil {
		loc = time.UTC
	}
	return &Estimator{provider: provider, ratePerKm: ratePerKm, loc: loc}
}

// Estimate computes the trip figures. Trips are assumed to leave at 09:00
// local time on date.
func (e *Estimator) Estimate(ctx context.Context, origin, destination *LatLng, date string) (Estimate, error) {
	if origin == nil || destination == nil || date == "" {
		return Estimate{}, fmt.Errorf("%w: coordinates and date are required", common.ErrRouteUnavailable)
	}
	if e.provider == nil {
		return Estimate{}, fmt.Errorf("%w: no routing provider configured", common.ErrRouteUnavailable)
	}

	day, err := time.ParseInLocation(utils.DateLayout, date, e.loc)
	if err != nil {
		return Estimate{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", common.ErrValidation, date)
	}

	route, err := e.provider.Route(ctx, *origin, *destination)
	if err != nil {
		return Estimate{}, err
	}

	duration := time.Duration(route.DurationSeconds) * time.Second
	arrival := day.Add(tripStartHour * time.Hour).Add(duration)
	km := utils.Round2(float64(route.DistanceMeters) / 1000)

	travel := route.DurationText
	if travel == "" {
		travel = duration.String()
	}

	return Estimate{
		Available:   true,
		TravelTime:  travel,
		ArrivalTime: arrival.Format(arrivalTimeLayout),
		DistanceKm:  km,
		Price:       utils.Round2(km * e.ratePerKm),
	}, nil
}
