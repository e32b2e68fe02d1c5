package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
)

func collectEvents(c *Controller) []Event {
	var events []Event
	for event := range c.Events() {
		events = append(events, event)
	}
	return events
}

func TestControllerSyncSelected(t *testing.T) {
	source := newFakeSource(testArticle(1, "SW10001"), testArticle(2, "SW10002"))
	target := newFakeTarget()
	syncer := newTestSyncer(t, source, target, entity.ModeUpsert)

	c := NewController(testInterop(), source, syncer)
	assert.Equal(t, StateIdle, c.State())

	agg, err := c.SyncSelected(context.Background(), []string{"1", "2"})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, c.State())
	assert.Equal(t, 2, agg.Total)
	assert.Equal(t, 2, agg.Successful)

	events := collectEvents(c)
	require.Len(t, events, 2)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Len(t, events[0].Batch, 2)
	assert.Equal(t, EventCompleted, events[1].Type)
}

func TestControllerSyncAllBatches(t *testing.T) {
	var articles []map[string]interface{}
	for i := 1; i <= 5; i++ {
		articles = append(articles, testArticle(i, fmt.Sprintf("SW%05d", i)))
	}

	source := newFakeSource(articles...)
	target := newFakeTarget()
	syncer := newTestSyncer(t, source, target, entity.ModeUpsert)

	c := NewController(testInterop(), source, syncer)
	c.BatchSize = 2

	agg, err := c.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, c.State())
	assert.Equal(t, 5, agg.Total)
	assert.Equal(t, 5, agg.Successful)
	assert.Len(t, target.created, 5)

	// Batches of 2, 2 and 1, each with its own progress event, then the
	// terminal event.
	events := collectEvents(c)
	require.Len(t, events, 4)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Equal(t, 2, events[0].Processed)
	assert.Equal(t, 5, events[0].Total)
	assert.Equal(t, EventProgress, events[1].Type)
	assert.Equal(t, 4, events[1].Processed)
	assert.Equal(t, EventProgress, events[2].Type)
	assert.Equal(t, 5, events[2].Processed)
	assert.Equal(t, EventCompleted, events[3].Type)
}

func TestControllerSyncAllNothingToSync(t *testing.T) {
	source := newFakeSource()
	syncer := newTestSyncer(t, source, newFakeTarget(), entity.ModeUpsert)

	c := NewController(testInterop(), source, syncer)

	agg, err := c.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, c.State())
	assert.Zero(t, agg.Total)

	events := collectEvents(c)
	require.Len(t, events, 1)
	assert.Equal(t, EventCompleted, events[0].Type)
	assert.Equal(t, "nothing to sync", events[0].Message)
}

func TestControllerSyncAllListingFailure(t *testing.T) {
	source := newFakeSource(testArticle(1, "SW10001"))
	syncer := newTestSyncer(t, source, newFakeTarget(), entity.ModeUpsert)
	source.listErr = errors.New("service unavailable")

	c := NewController(testInterop(), source, syncer)

	_, err := c.SyncAll(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateFailed, c.State())

	events := collectEvents(c)
	require.Len(t, events, 1)
	assert.Equal(t, EventFailed, events[0].Type)
	assert.Error(t, events[0].Err)
}

func TestControllerSyncAllCancellation(t *testing.T) {
	var articles []map[string]interface{}
	for i := 1; i <= 6; i++ {
		articles = append(articles, testArticle(i, fmt.Sprintf("SW%05d", i)))
	}

	source := newFakeSource(articles...)
	target := newFakeTarget()
	syncer := newTestSyncer(t, source, target, entity.ModeUpsert)

	ctx, cancel := context.WithCancel(context.Background())

	// Cancel while the first batch is in flight. The batch finishes, the
	// next one never starts.
	source.onGet = func(id string) {
		if id == "2" {
			cancel()
		}
	}

	c := NewController(testInterop(), source, syncer)
	c.BatchSize = 2

	agg, err := c.SyncAll(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, StateAborted, c.State())
	assert.Equal(t, 2, agg.Total)
	assert.Len(t, target.created, 2)

	events := collectEvents(c)
	require.Len(t, events, 2)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Equal(t, 2, events[0].Processed)
	assert.Equal(t, EventAborted, events[1].Type)
	assert.Equal(t, 2, events[1].Processed)
	assert.Equal(t, 6, events[1].Total)
}
