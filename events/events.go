// Package events publishes trip lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/meinhoongagan/trucktrack/models"
)

const (
	TripCreated   = "trip.created"
	TripUpdated   = "trip.updated"
	TripCompleted = "trip.completed"
	TripDeleted   = "trip.deleted"
)

// TripEvent is the JSON body published for a trip change. Event doubles as
// the routing key.
type TripEvent struct {
	Event      string            `json:"event"`
	TripID     uint              `json:"trip_id"`
	Status     models.TripStatus `json:"status"`
	Date       string            `json:"date"`
	DriverID   *uint             `json:"driver_id"`
	VehicleID  *uint             `json:"vehicle_id"`
	CompanyID  *string           `json:"company_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewTripEvent(event string, t *models.Trip, at time.Time) TripEvent {
	return TripEvent{
		Event:      event,
		TripID:     t.ID,
		Status:     t.Status,
		Date:       t.Date,
		DriverID:   t.DriverID,
		VehicleID:  t.VehicleID,
		CompanyID:  t.CompanyID,
		OccurredAt: at.UTC(),
	}
}

type Publisher interface {
	PublishTrip(ctx context.Context, ev TripEvent) error
	Close() error
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTrip(context.Context, TripEvent) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }
