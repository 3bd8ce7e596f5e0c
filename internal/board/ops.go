package board

import (
	"fmt"
	"strings"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNoSuchColumn = fmt.Errorf("%w: no such column", models.ErrInvalidInput)
	ErrUnknownZone  = fmt.Errorf("%w: unknown zone", models.ErrInvalidInput)
	ErrNoResourceID = fmt.Errorf("%w: resource has no id", models.ErrInvalidInput)
)

// AddSite appends a new column with a generated id. A blank name becomes
// "Site N".
func AddSite(doc *models.BoardDocument, name string) models.Column {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Site %d", len(doc.Columns)+1)
	}
	col := models.Column{
		ID:    "site-" + uuid.New().String(),
		Name:  name,
		Items: []models.Resource{},
	}
	doc.Columns = append(doc.Columns, col)
	return col
}

// RenameSite changes the name of the column at index
func RenameSite(doc *models.BoardDocument, index int, name string) error {
	if index < 0 || index >= len(doc.Columns) {
		return ErrNoSuchColumn
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: site name is required", models.ErrInvalidInput)
	}
	doc.Columns[index].Name = name
	return nil
}

// DeleteSite removes the column at index. Its resources are returned to the
// available zone with their assignment cleared; the returned slice lists them.
func DeleteSite(doc *models.BoardDocument, index int) ([]models.Resource, error) {
	if index < 0 || index >= len(doc.Columns) {
		return nil, ErrNoSuchColumn
	}
	released := doc.Columns[index].Items
	doc.Columns = append(doc.Columns[:index], doc.Columns[index+1:]...)

	if doc.PermanentBoxes == nil {
		doc.PermanentBoxes = make(map[string][]models.Resource)
	}
	for i := range released {
		released[i].Assignment = ""
		doc.PermanentBoxes[models.ZoneAvailable] = append(doc.PermanentBoxes[models.ZoneAvailable], released[i])
	}
	return released, nil
}

// ClearBoard empties the site columns. Zones are left alone.
func ClearBoard(doc *models.BoardDocument) {
	doc.Columns = []models.Column{}
}

// MoveItem places res at dest, removing any earlier placement of the same
// resource id first so that each resource sits in exactly one container.
func MoveItem(doc *models.BoardDocument, res models.Resource, dest Destination) error {
	if res.ID == "" {
		return ErrNoResourceID
	}
	if err := checkDestination(doc, dest); err != nil {
		return err
	}

	RemoveItem(doc, res.ID)

	switch dest.Kind {
	case DestColumn:
		col := &doc.Columns[dest.Column]
		col.Items = append(col.Items, res)
	case DestPermanent:
		doc.PermanentBoxes[dest.Key] = append(doc.PermanentBoxes[dest.Key], res)
	case DestLocation:
		doc.Locations[dest.Key] = append(doc.Locations[dest.Key], res)
	}
	return nil
}

func checkDestination(doc *models.BoardDocument, dest Destination) error {
	switch dest.Kind {
	case DestColumn:
		if dest.Column < 0 || dest.Column >= len(doc.Columns) {
			return ErrNoSuchColumn
		}
	case DestPermanent:
		if _, ok := doc.PermanentBoxes[dest.Key]; !ok {
			return fmt.Errorf("%w: permanent-%s", ErrUnknownZone, dest.Key)
		}
	case DestLocation:
		if _, ok := doc.Locations[dest.Key]; !ok {
			return fmt.Errorf("%w: location-%s", ErrUnknownZone, dest.Key)
		}
	default:
		return fmt.Errorf("%w: destination kind %d", models.ErrInvalidInput, dest.Kind)
	}
	return nil
}

// RemoveItem takes every placement of id off the board and returns the first
// one found
func RemoveItem(doc *models.BoardDocument, id string) (models.Resource, bool) {
	var (
		found models.Resource
		ok    bool
	)
	take := func(items []models.Resource) []models.Resource {
		kept := items[:0]
		for _, it := range items {
			if it.ID == id {
				if !ok {
					found, ok = it, true
				}
				continue
			}
			kept = append(kept, it)
		}
		return kept
	}

	for i := range doc.Columns {
		doc.Columns[i].Items = take(doc.Columns[i].Items)
	}
	for k, items := range doc.PermanentBoxes {
		doc.PermanentBoxes[k] = take(items)
	}
	for k, items := range doc.Locations {
		doc.Locations[k] = take(items)
	}
	return found, ok
}

// Locate returns where id is currently placed
func Locate(doc *models.BoardDocument, id string) (Destination, bool) {
	for i, col := range doc.Columns {
		for _, it := range col.Items {
			if it.ID == id {
				return ToColumn(i), true
			}
		}
	}
	for k, items := range doc.PermanentBoxes {
		for _, it := range items {
			if it.ID == id {
				return ToPermanent(k), true
			}
		}
	}
	for k, items := range doc.Locations {
		for _, it := range items {
			if it.ID == id {
				return ToLocation(k), true
			}
		}
	}
	return Destination{}, false
}

// Placed returns the set of resource ids present anywhere on the board
func Placed(doc *models.BoardDocument) map[string]int {
	seen := make(map[string]int)
	for _, col := range doc.Columns {
		for _, it := range col.Items {
			seen[it.ID]++
		}
	}
	for _, items := range doc.PermanentBoxes {
		for _, it := range items {
			seen[it.ID]++
		}
	}
	for _, items := range doc.Locations {
		for _, it := range items {
			seen[it.ID]++
		}
	}
	return seen
}

// Duplicates lists resource ids placed in more than one spot
func Duplicates(doc *models.BoardDocument) []string {
	var dups []string
	for id, n := range Placed(doc) {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	return dups
}

// Unassigned filters pool down to the resources not placed on the board
func Unassigned(doc *models.BoardDocument, pool []models.Resource) []models.Resource {
	placed := Placed(doc)
	out := make([]models.Resource, 0, len(pool))
	for _, r := range pool {
		if placed[r.ID] == 0 {
			out = append(out, r)
		}
	}
	return out
}
