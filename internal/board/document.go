// Package board holds the pure operations on a board document. Nothing in
// here talks to the network; callers decide when to push.
package board

import (
	"encoding/json"
	"fmt"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// New returns an empty document with the default status and location zones
func New() *models.BoardDocument {
	doc := &models.BoardDocument{
		Columns:        []models.Column{},
		PermanentBoxes: make(map[string][]models.Resource, len(models.DefaultStatusZones)),
		Locations:      make(map[string][]models.Resource, len(models.DefaultLocationZones)),
	}
	Normalize(doc)
	return doc
}

// Normalize replaces nil slices and maps so that a decoded document always
// serializes to the same shape, and makes sure the default zones exist
func Normalize(doc *models.BoardDocument) {
	if doc.Columns == nil {
		doc.Columns = []models.Column{}
	}
	for i := range doc.Columns {
		if doc.Columns[i].Items == nil {
			doc.Columns[i].Items = []models.Resource{}
		}
	}
	if doc.PermanentBoxes == nil {
		doc.PermanentBoxes = make(map[string][]models.Resource)
	}
	if doc.Locations == nil {
		doc.Locations = make(map[string][]models.Resource)
	}
	for _, key := range models.DefaultStatusZones {
		if doc.PermanentBoxes[key] == nil {
			doc.PermanentBoxes[key] = []models.Resource{}
		}
	}
	for _, key := range models.DefaultLocationZones {
		if doc.Locations[key] == nil {
			doc.Locations[key] = []models.Resource{}
		}
	}
}

// Clone deep-copies a document
func Clone(doc *models.BoardDocument) *models.BoardDocument {
	if doc == nil {
		return nil
	}
	out := &models.BoardDocument{
		Columns:        make([]models.Column, len(doc.Columns)),
		PermanentBoxes: cloneZones(doc.PermanentBoxes),
		Locations:      cloneZones(doc.Locations),
	}
	for i, col := range doc.Columns {
		out.Columns[i] = models.Column{
			ID:    col.ID,
			Name:  col.Name,
			Items: cloneItems(col.Items),
		}
	}
	return out
}

func cloneZones(zones map[string][]models.Resource) map[string][]models.Resource {
	if zones == nil {
		return nil
	}
	out := make(map[string][]models.Resource, len(zones))
	for k, items := range zones {
		out[k] = cloneItems(items)
	}
	return out
}

func cloneItems(items []models.Resource) []models.Resource {
	if items == nil {
		return nil
	}
	out := make([]models.Resource, len(items))
	copy(out, items)
	for i := range out {
		if out[i].CreatedAt != nil {
			t := *out[i].CreatedAt
			out[i].CreatedAt = &t
		}
	}
	return out
}

// boardData is the shape stored in the board_data column
type boardData struct {
	Columns []models.Column `json:"columns"`
}

// Encode splits a document into the three blobs stored on the board row
func Encode(doc *models.BoardDocument) (boardJSON, permanentJSON, locationJSON json.RawMessage, err error) {
	doc = Clone(doc)
	Normalize(doc)

	boardJSON, err = json.Marshal(boardData{Columns: doc.Columns})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode board data: %w", err)
	}
	permanentJSON, err = json.Marshal(doc.PermanentBoxes)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode permanent boxes: %w", err)
	}
	locationJSON, err = json.Marshal(doc.Locations)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode locations: %w", err)
	}
	return boardJSON, permanentJSON, locationJSON, nil
}

// Decode rebuilds a document from the three blobs. Missing or null blobs
// decode to empty containers.
func Decode(boardJSON, permanentJSON, locationJSON json.RawMessage) (*models.BoardDocument, error) {
	doc := &models.BoardDocument{}

	if len(boardJSON) > 0 {
		var bd boardData
		if err := json.Unmarshal(boardJSON, &bd); err != nil {
			return nil, fmt.Errorf("decode board data: %w", err)
		}
		doc.Columns = bd.Columns
	}
	if len(permanentJSON) > 0 {
		if err := json.Unmarshal(permanentJSON, &doc.PermanentBoxes); err != nil {
			return nil, fmt.Errorf("decode permanent boxes: %w", err)
		}
	}
	if len(locationJSON) > 0 {
		if err := json.Unmarshal(locationJSON, &doc.Locations); err != nil {
			return nil, fmt.Errorf("decode locations: %w", err)
		}
	}

	Normalize(doc)
	return doc, nil
}

// FromRow decodes the document held by a board row
func FromRow(row *models.CurrentBoard) (*models.BoardDocument, error) {
	return Decode(row.BoardData, row.PermanentBoxesData, row.LocationData)
}

// ToRow encodes doc into a singleton board row
func ToRow(doc *models.BoardDocument) (*models.CurrentBoard, error) {
	b, p, l, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	return &models.CurrentBoard{
		ID:                 models.CurrentBoardID,
		BoardData:          b,
		PermanentBoxesData: p,
		LocationData:       l,
	}, nil
}
