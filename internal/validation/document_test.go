package validation

import (
	"testing"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

func TestValidateDocument_Valid(t *testing.T) {
	doc := board.New()
	board.AddSite(doc, "Site 1")
	if err := board.MoveItem(doc, models.Resource{ID: "crew-1", Name: "Geno", Type: models.ResourceCrew}, board.ToColumn(0)); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}
	if err := board.MoveItem(doc, models.Resource{ID: "truck-1", Name: "Truck 101", Type: models.ResourceTruck}, board.ToPermanent(models.ZoneShop)); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}

	if errs := ValidateDocument(doc); len(errs) != 0 {
		t.Errorf("Expected valid document, got %+v", errs)
	}
}

func TestValidateDocument_DuplicatePlacement(t *testing.T) {
	geno := models.Resource{ID: "crew-1", Name: "Geno", Type: models.ResourceCrew}
	doc := board.New()
	doc.Columns = append(doc.Columns, models.Column{ID: "site-a", Name: "A", Items: []models.Resource{geno}})
	doc.Locations[models.ZoneKC] = []models.Resource{geno}

	errs := ValidateDocument(doc)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %+v", errs)
	}
	if errs[0].Value != "crew-1" {
		t.Errorf("Expected duplicate crew-1, got %v", errs[0].Value)
	}
}

func TestValidateDocument_BadColumnsAndItems(t *testing.T) {
	doc := board.New()
	doc.Columns = []models.Column{
		{ID: "", Name: "no id"},
		{ID: "site-a", Name: "A", Items: []models.Resource{{Name: "anonymous"}}},
		{ID: "site-a", Name: "A again"},
	}
	doc.PermanentBoxes[models.ZoneOff] = []models.Resource{{ID: "x-1", Name: "Forklift", Type: "forklift"}}

	errs := ValidateDocument(doc)

	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"columns[0].id", "columns[1].items[0].id", "columns[2].id", "permanentBoxes.off[0].type"} {
		if !fields[want] {
			t.Errorf("Expected error on %s, got %+v", want, errs)
		}
	}
}
