package board_test

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// For any sequence of added sites, encoding the document into the three row
// blobs and decoding it again yields the same columns.
func TestProperty_AddSiteRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("columns survive encode/decode", prop.ForAll(
		func(names []string) bool {
			doc := board.New()
			for _, name := range names {
				board.AddSite(doc, name)
			}

			row, err := board.ToRow(doc)
			if err != nil {
				t.Logf("encode failed: %v", err)
				return false
			}
			decoded, err := board.FromRow(row)
			if err != nil {
				t.Logf("decode failed: %v", err)
				return false
			}

			if len(decoded.Columns) != len(doc.Columns) {
				return false
			}
			for i := range doc.Columns {
				if decoded.Columns[i].ID != doc.Columns[i].ID ||
					decoded.Columns[i].Name != doc.Columns[i].Name ||
					len(decoded.Columns[i].Items) != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// For any sequence of moves, no resource ends up in two containers.
func TestProperty_MovesKeepPlacementUnique(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	zones := append(append([]string{}, models.DefaultStatusZones...), models.DefaultLocationZones...)

	properties.Property("each resource placed at most once", prop.ForAll(
		func(moves []int) bool {
			doc := board.New()
			board.AddSite(doc, "Site 1")
			board.AddSite(doc, "Site 2")

			for i, m := range moves {
				res := models.Resource{
					ID:   fmt.Sprintf("crew-%d", m%5),
					Name: fmt.Sprintf("Crew %d", m%5),
					Type: models.ResourceCrew,
				}
				var dest board.Destination
				switch target := (m + i) % (2 + len(zones)); {
				case target < 2:
					dest = board.ToColumn(target)
				case target-2 < len(models.DefaultStatusZones):
					dest = board.ToPermanent(zones[target-2])
				default:
					dest = board.ToLocation(zones[target-2])
				}
				if err := board.MoveItem(doc, res, dest); err != nil {
					t.Logf("move failed: %v", err)
					return false
				}
			}
			return len(board.Duplicates(doc)) == 0
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
