package events

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(e Event) { got = append(got, "first:"+string(e.Type)) })
	bus.Subscribe(func(e Event) { got = append(got, "second:"+string(e.Type)) })

	bus.Publish(Event{Type: BoardSynced})

	assert.Equal(t, []string{"first:board.synced", "second:board.synced"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(Event) { calls++ })

	bus.Publish(Event{Type: BoardUpdated})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Type: BoardUpdated})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_HandlerMaySubscribe(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(func(Event) {
		bus.Subscribe(func(Event) {})
	})

	bus.Publish(Event{Type: BoardUpdated})
	assert.Equal(t, 2, bus.Len())
}

func TestRedisBridge_HandleSkipsOwnEvents(t *testing.T) {
	bus := NewBus()
	bridge := NewRedisBridge(nil, "board:current", bus, zerolog.Nop())

	var received []Event
	bus.Subscribe(func(e Event) { received = append(received, e) })

	own, err := json.Marshal(Event{Type: BoardUpdated, Origin: bridge.origin})
	require.NoError(t, err)
	bridge.handle(own)
	assert.Empty(t, received)

	other, err := json.Marshal(Event{
		Type:   BoardUpdated,
		Origin: "replica-2",
		Row:    &models.CurrentBoard{ID: models.CurrentBoardID, Version: 7},
	})
	require.NoError(t, err)
	bridge.handle(other)

	require.Len(t, received, 1)
	assert.Equal(t, int64(7), received[0].Row.Version)

	bridge.handle([]byte("{not json"))
	assert.Len(t, received, 1)
}
