package models

import "time"

// Record is one named entry of the key-value store backing the app
type Record struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Value     string    `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
