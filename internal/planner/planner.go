// Package planner is the board interaction layer of a client: it owns the
// local board document, the resource pools and the selection, and pushes
// the whole document after every admin change.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/rs/zerolog"
)

// Gate reports the role of the signed-in user
type Gate interface {
	IsAdmin() bool
}

// Syncer pushes and pulls the board document
type Syncer interface {
	PushBoard(ctx context.Context, doc *models.BoardDocument) error
	PullBoard(ctx context.Context) error
}

// ResourceStore reads and creates pool resources
type ResourceStore interface {
	ListResources(ctx context.Context, t models.ResourceType) ([]models.Resource, error)
	CreateResource(ctx context.Context, t models.ResourceType, name string) (*models.Resource, error)
}

// Subscriber delivers board events, normally an *events.Bus
type Subscriber interface {
	Subscribe(fn func(events.Event)) func()
}

// Planner is safe for concurrent use. No network call is made while its
// lock is held.
type Planner struct {
	gate      Gate
	syncer    Syncer
	resources ResourceStore
	log       zerolog.Logger

	mu        sync.Mutex
	doc       *models.BoardDocument
	pools     map[models.ResourceType][]models.Resource
	selection *board.Selection
	combos    []board.Combo
	dragging  *models.Resource

	unsubscribe func()
}

// New creates a planner with an empty board and subscribes it to sub. Every
// BoardSynced event replaces the local document wholesale.
func New(gate Gate, syncer Syncer, resources ResourceStore, sub Subscriber, log zerolog.Logger) *Planner {
	p := &Planner{
		gate:      gate,
		syncer:    syncer,
		resources: resources,
		log:       log.With().Str("component", "planner").Logger(),
		doc:       board.New(),
		pools:     make(map[models.ResourceType][]models.Resource),
		selection: board.NewSelection(),
	}
	p.unsubscribe = sub.Subscribe(p.onEvent)
	return p
}

func (p *Planner) onEvent(e events.Event) {
	if e.Type != events.BoardSynced || e.Document == nil {
		return
	}
	doc := board.Clone(e.Document)
	board.Normalize(doc)

	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
}

// Close detaches the planner from the event stream
func (p *Planner) Close() {
	p.unsubscribe()
}

// mutate applies fn to a copy of the document, installs the copy and pushes
// it. A push rejected because the remote row moved on triggers a pull so the
// local document converges on what other admins saved.
func (p *Planner) mutate(ctx context.Context, op string, fn func(doc *models.BoardDocument) error) error {
	if !p.gate.IsAdmin() {
		return models.ErrForbidden
	}

	p.mu.Lock()
	next := board.Clone(p.doc)
	if err := fn(next); err != nil {
		p.mu.Unlock()
		return err
	}
	p.doc = next
	snapshot := board.Clone(next)
	p.mu.Unlock()

	err := p.syncer.PushBoard(ctx, snapshot)
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrConflict) {
		p.log.Warn().Str("op", op).Msg("Local change lost to a newer board, pulling")
		if pullErr := p.syncer.PullBoard(ctx); pullErr != nil {
			p.log.Error().Err(pullErr).Msg("Pull after conflict failed")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// AddSite appends a column and returns it
func (p *Planner) AddSite(ctx context.Context, name string) (models.Column, error) {
	var col models.Column
	err := p.mutate(ctx, "add site", func(doc *models.BoardDocument) error {
		col = board.AddSite(doc, name)
		return nil
	})
	return col, err
}

// RenameSite renames the column at index
func (p *Planner) RenameSite(ctx context.Context, index int, name string) error {
	return p.mutate(ctx, "rename site", func(doc *models.BoardDocument) error {
		return board.RenameSite(doc, index, name)
	})
}

// DeleteSite removes the column at index and moves its resources to the
// available zone
func (p *Planner) DeleteSite(ctx context.Context, index int) error {
	return p.mutate(ctx, "delete site", func(doc *models.BoardDocument) error {
		released, err := board.DeleteSite(doc, index)
		if err == nil && len(released) > 0 {
			p.log.Debug().Int("released", len(released)).Msg("Site resources returned to available")
		}
		return err
	})
}

// ClearBoard removes every column
func (p *Planner) ClearBoard(ctx context.Context) error {
	return p.mutate(ctx, "clear board", func(doc *models.BoardDocument) error {
		board.ClearBoard(doc)
		return nil
	})
}

// MoveItem places res at dest. The drag in progress, if any, ends.
func (p *Planner) MoveItem(ctx context.Context, res models.Resource, dest board.Destination) error {
	err := p.mutate(ctx, "move item", func(doc *models.BoardDocument) error {
		return board.MoveItem(doc, res, dest)
	})
	p.mu.Lock()
	p.dragging = nil
	p.mu.Unlock()
	return err
}

// RemoveItem takes a resource off the board, back into the unassigned pool
func (p *Planner) RemoveItem(ctx context.Context, id string) error {
	return p.mutate(ctx, "remove item", func(doc *models.BoardDocument) error {
		if _, ok := board.RemoveItem(doc, id); !ok {
			return fmt.Errorf("resource %s: %w", id, models.ErrNotFound)
		}
		return nil
	})
}

// AddResource creates a resource and appends it to the local pool
func (p *Planner) AddResource(ctx context.Context, t models.ResourceType, name string) (*models.Resource, error) {
	if !p.gate.IsAdmin() {
		return nil, models.ErrForbidden
	}
	res, err := p.resources.CreateResource(ctx, t, name)
	if err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	p.mu.Lock()
	p.pools[t] = append(p.pools[t], *res)
	p.mu.Unlock()
	return res, nil
}

// LoadResources replaces the local pools with the stored resources
func (p *Planner) LoadResources(ctx context.Context) error {
	pools := make(map[models.ResourceType][]models.Resource, len(models.ResourceTypes))
	for _, t := range models.ResourceTypes {
		items, err := p.resources.ListResources(ctx, t)
		if err != nil {
			return fmt.Errorf("load %s: %w", t.Table(), err)
		}
		pools[t] = items
	}

	p.mu.Lock()
	p.pools = pools
	p.mu.Unlock()
	return nil
}

// StartDrag records res as being dragged
func (p *Planner) StartDrag(res models.Resource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dragging = &res
}

// Dragging returns the resource being dragged
func (p *Planner) Dragging() (models.Resource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dragging == nil {
		return models.Resource{}, false
	}
	return *p.dragging, true
}

// ToggleItemSelection adds or removes res from the selection and reports
// whether it is selected afterwards
func (p *Planner) ToggleItemSelection(res models.Resource) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection.Toggle(res)
}

// Selected returns the current selection
func (p *Planner) Selected() []models.Resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection.Items()
}

// AddCombo groups the selection under name and clears the selection.
// Combos live only in this planner.
func (p *Planner) AddCombo(name string) (board.Combo, error) {
	if !p.gate.IsAdmin() {
		return board.Combo{}, models.ErrForbidden
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	combo, err := board.NewCombo(name, p.selection.Items())
	if err != nil {
		return board.Combo{}, err
	}
	p.combos = append(p.combos, combo)
	p.selection.Clear()
	return combo, nil
}

// Combos returns the combos built so far
func (p *Planner) Combos() []board.Combo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]board.Combo, len(p.combos))
	copy(out, p.combos)
	return out
}

// Board returns a copy of the local document
func (p *Planner) Board() *models.BoardDocument {
	p.mu.Lock()
	defer p.mu.Unlock()
	return board.Clone(p.doc)
}

// Pool returns every known resource of type t
func (p *Planner) Pool(t models.ResourceType) []models.Resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Resource, len(p.pools[t]))
	copy(out, p.pools[t])
	return out
}

// Available returns the resources of type t not placed on the board
func (p *Planner) Available(t models.ResourceType) []models.Resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return board.Unassigned(p.doc, p.pools[t])
}
