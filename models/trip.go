package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type TripStatus string

const (
	TripPending   TripStatus = "Pending"
	TripActive    TripStatus = "Active"
	TripCompleted TripStatus = "Completed"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripPending, TripActive, TripCompleted:
		return true
	}
	return false
}

// Committed reports whether a trip in this status holds its driver and
// vehicle for the day.
func (s TripStatus) Committed() bool {
	return s == TripPending || s == TripActive
}

type Trip struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	Origin               string     `json:"origin" gorm:"not null"`
	OriginLat            float64    `json:"origin_lat"`
	OriginLng            float64    `json:"origin_lng"`
	Destination          string     `json:"destination" gorm:"not null"`
	DestinationLat       float64    `json:"destination_lat"`
	DestinationLng       float64    `json:"destination_lng"`
	Date                 string     `json:"date" gorm:"index;not null"` // YYYY-MM-DD
	DriverID             *uint      `json:"driver_id" gorm:"index"`
	CustomerID           *uint      `json:"customer_id" gorm:"index"`
	VehicleID            *uint      `json:"vehicle_id" gorm:"index"`
	Status               TripStatus `json:"status" gorm:"type:varchar(20);index"`
	EstimatedTravelTime  string     `json:"estimated_travel_time"`
	EstimatedArrivalTime string     `json:"estimated_arrival_time"`
	Distance             *float64   `json:"distance"`
	Price                *float64   `json:"price"`
	DeliveryRequirement  *string    `json:"delivery_requirement"`
	CompanyID            *string    `json:"company_id"`
	CreatedBy            uint       `json:"created_by"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// resolved at read time, never written through
	Driver *Driver `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TripPending
	}
	return nil
}

// ValidateTransition checks a status change requested by a driver account.
// Only an Active trip can be completed.
func (t *Trip) ValidateTransition(next TripStatus) error {
	switch t.Status {
	case TripActive:
		if next != TripCompleted {
			return fmt.Errorf("invalid transition from %s to %s", t.Status, next)
		}
	default:
		return fmt.Errorf("no transitions allowed from %s", t.Status)
	}
	return nil
}
