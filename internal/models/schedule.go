package models

import (
	"encoding/json"
	"time"
)

// Schedule is a saved snapshot of the board
type Schedule struct {
	ID                 string          `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	BoardData          json.RawMessage `json:"board_data" db:"board_data"`
	PermanentBoxesData json.RawMessage `json:"permanent_boxes_data,omitempty" db:"permanent_boxes_data"`
	LocationData       json.RawMessage `json:"location_data,omitempty" db:"location_data"`
	CreatedBy          string          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}
