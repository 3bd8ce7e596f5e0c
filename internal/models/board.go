package models

import (
	"encoding/json"
	"time"
)

// CurrentBoardID is the fixed identifier of the singleton board row
const CurrentBoardID = "00000000-0000-0000-0000-000000000001"

// Status zone keys (the "permanent boxes")
const (
	ZoneOff       = "off"
	ZoneAvailable = "available"
	ZoneShop      = "shop"
	ZoneDJM       = "djm"
)

// Location zone keys
const (
	ZoneKC   = "kc"
	ZoneIndy = "indy"
	ZoneSTL  = "stl"
)

// DefaultStatusZones are created on every new board document
var DefaultStatusZones = []string{ZoneOff, ZoneAvailable, ZoneShop, ZoneDJM}

// DefaultLocationZones are created on every new board document
var DefaultLocationZones = []string{ZoneKC, ZoneIndy, ZoneSTL}

// Column is a job site for the week
type Column struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []Resource `json:"items"`
}

// BoardDocument is the unit of shared state: site columns plus the
// status and location zones
type BoardDocument struct {
	Columns        []Column              `json:"columns"`
	PermanentBoxes map[string][]Resource `json:"permanentBoxes"`
	Locations      map[string][]Resource `json:"locations"`
}

// CurrentBoard is the persisted singleton row. The document is stored as
// three JSON blobs; Version increases by one on every successful write.
type CurrentBoard struct {
	ID                 string          `json:"id" db:"id"`
	BoardData          json.RawMessage `json:"board_data" db:"board_data"`
	PermanentBoxesData json.RawMessage `json:"permanent_boxes_data,omitempty" db:"permanent_boxes_data"`
	LocationData       json.RawMessage `json:"location_data,omitempty" db:"location_data"`
	LastUpdatedBy      string          `json:"last_updated_by,omitempty" db:"last_updated_by"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
	Version            int64           `json:"version" db:"version"`
}

// PushRequest is the body of a board push
type PushRequest struct {
	BoardData          json.RawMessage `json:"board_data"`
	PermanentBoxesData json.RawMessage `json:"permanent_boxes_data,omitempty"`
	LocationData       json.RawMessage `json:"location_data,omitempty"`
	BaseVersion        int64           `json:"base_version"`
}
