package models

import "time"

// Proof is a proof-of-delivery upload attached to a trip.
type Proof struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TripID    uint      `json:"tripId" gorm:"index;not null"`
	UserID    uint      `json:"userId" gorm:"index;not null"`
	File      string    `json:"file"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}
