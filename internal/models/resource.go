package models

import (
	"strings"
	"time"
)

// ResourceType identifies which pool a resource belongs to
type ResourceType string

const (
	ResourceCrew      ResourceType = "crew"
	ResourceTruck     ResourceType = "truck"
	ResourceTrailer   ResourceType = "trailer"
	ResourceEquipment ResourceType = "equipment"
)

// ResourceTypes lists every resource type in display order
var ResourceTypes = []ResourceType{ResourceCrew, ResourceTruck, ResourceTrailer, ResourceEquipment}

// resourceTables maps a resource type to its backing table
var resourceTables = map[ResourceType]string{
	ResourceCrew:      "crews",
	ResourceTruck:     "trucks",
	ResourceTrailer:   "trailers",
	ResourceEquipment: "equipment",
}

// Table returns the table holding resources of this type
func (t ResourceType) Table() string {
	return resourceTables[t]
}

// Valid reports whether t is a known resource type
func (t ResourceType) Valid() bool {
	_, ok := resourceTables[t]
	return ok
}

// ParseResourceType accepts both the singular type ("crew") and the
// table name ("crews")
func ParseResourceType(s string) (ResourceType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t := ResourceType(s); t.Valid() {
		return t, true
	}
	for t, table := range resourceTables {
		if table == s {
			return t, true
		}
	}
	return "", false
}

// Resource statuses used by the status zones
const (
	StatusAvailable = "available"
	StatusOff       = "off"
	StatusShop      = "shop"
	StatusDJM       = "djm"
)

// Resource locations used by the location zones
const (
	LocationKC   = "KC"
	LocationIndy = "Indy"
	LocationSTL  = "STL"
)

// Resource is a crew member, truck, trailer or equipment unit. The same
// shape is used for table rows and for items placed on the board.
type Resource struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       ResourceType `json:"type"`
	Status     string       `json:"status,omitempty"`
	Location   string       `json:"location,omitempty"`
	Assignment string       `json:"assignment,omitempty"`
	CreatedBy  string       `json:"created_by,omitempty"`
	CreatedAt  *time.Time   `json:"created_at,omitempty"`
}
