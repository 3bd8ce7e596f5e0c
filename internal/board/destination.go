package board

import (
	"fmt"
	"strings"
)

// DestinationKind tells which kind of container a drop targets
type DestinationKind int

const (
	DestColumn DestinationKind = iota
	DestPermanent
	DestLocation
)

func (k DestinationKind) String() string {
	switch k {
	case DestColumn:
		return "column"
	case DestPermanent:
		return "permanent"
	case DestLocation:
		return "location"
	}
	return "unknown"
}

// Destination is a drop target. Column is used for DestColumn, Key for the
// two zone kinds.
type Destination struct {
	Kind   DestinationKind
	Key    string
	Column int
}

// ToColumn targets the site column at index
func ToColumn(index int) Destination {
	return Destination{Kind: DestColumn, Column: index}
}

// ToPermanent targets a status zone
func ToPermanent(key string) Destination {
	return Destination{Kind: DestPermanent, Key: key}
}

// ToLocation targets a location zone
func ToLocation(key string) Destination {
	return Destination{Kind: DestLocation, Key: key}
}

func (d Destination) String() string {
	if d.Kind == DestColumn {
		return fmt.Sprintf("board[%d]", d.Column)
	}
	return d.Kind.String() + "-" + d.Key
}

// ParseDestination converts the drop-target ids used by browser clients
// ("board", "permanent-<key>", "location-<key>") into a Destination. It is
// meant for the HTTP boundary only.
func ParseDestination(id string, column int) (Destination, error) {
	switch {
	case id == "board":
		return ToColumn(column), nil
	case strings.HasPrefix(id, "permanent-"):
		key := strings.TrimPrefix(id, "permanent-")
		if key == "" {
			return Destination{}, fmt.Errorf("empty permanent zone in %q", id)
		}
		return ToPermanent(key), nil
	case strings.HasPrefix(id, "location-"):
		key := strings.TrimPrefix(id, "location-")
		if key == "" {
			return Destination{}, fmt.Errorf("empty location zone in %q", id)
		}
		return ToLocation(key), nil
	}
	return Destination{}, fmt.Errorf("unknown drop target %q", id)
}
