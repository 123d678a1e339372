package models

import "time"

type Expense struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"not null"`
	Amount      float64   `json:"amount" gorm:"not null"`
	Date        string    `json:"date" gorm:"index;not null"` // YYYY-MM-DD
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
