package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
)

func newTestSyncer(t *testing.T, source *fakeSource, target *fakeTarget, mode entity.Mode) *Syncer {
	t.Helper()

	syncer, err := New(
		context.Background(),
		testInterop(),
		source,
		target,
		entity.Articles,
		testMappings(),
		mode,
	)
	require.NoError(t, err)
	return syncer
}

func TestNewRejectsUnsupportedMode(t *testing.T) {
	_, err := New(
		context.Background(),
		testInterop(),
		newFakeSource(),
		newFakeTarget(),
		entity.Orders,
		testMappings(),
		entity.ModeCreate,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support")
}

func TestNewRejectsEmptyMappings(t *testing.T) {
	_, err := New(
		context.Background(),
		testInterop(),
		newFakeSource(),
		newFakeTarget(),
		entity.Articles,
		nil,
		entity.ModeUpsert,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no field mappings")
}

func TestNewRejectsInvalidMappings(t *testing.T) {
	_, err := New(
		context.Background(),
		testInterop(),
		newFakeSource(),
		newFakeTarget(),
		entity.Articles,
		[]mapping.FieldMapping{{SourceField: "name", TargetField: "vendor"}},
		entity.ModeUpsert,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping validation failed")
}

func TestSyncOneCreates(t *testing.T) {
	source := newFakeSource(testArticle(1, "SW10001"))
	target := newFakeTarget()
	syncer := newTestSyncer(t, source, target, entity.ModeUpsert)

	result := syncer.SyncOne(context.Background(), "1")

	assert.Equal(t, StatusCreated, result.Status)
	assert.True(t, result.Success)
	assert.NotZero(t, result.TargetID)

	require.Len(t, target.created, 1)
	assert.Equal(t, "Article 1", target.created[0]["title"])
}

func TestSyncOneUpdatesExisting(t *testing.T) {
	source := newFakeSource(testArticle(1, "SW10001"))
	target := newFakeTarget()
	target.existing["SW10001"] = provider.Record{
		"id": float64(555),
		"variants": []interface{}{
			map[string]interface{}{"id": float64(9001), "sku": "SW10001"},
		},
	}

	syncer := newTestSyncer(t, source, target, entity.ModeUpsert)
	result := syncer.SyncOne(context.Background(), "1")

	assert.Equal(t, StatusUpdated, result.Status)
	assert.True(t, result.Success)
	assert.Equal(t, int64(555), result.TargetID)

	// The projected variant addresses the variant that already exists.
	updated := target.updated[555]
	require.NotNil(t, updated)
	variant := updated["variants"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, int64(9001), variant["id"])
}

func TestSyncOneSourceMiss(t *testing.T) {
	syncer := newTestSyncer(t, newFakeSource(), newFakeTarget(), entity.ModeUpsert)

	result := syncer.SyncOne(context.Background(), "404")

	assert.Equal(t, StatusError, result.Status)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

func TestSyncOneUpdateModeSkipsMissing(t *testing.T) {
	source := newFakeSource(testArticle(1, "SW10001"))
	syncer := newTestSyncer(t, source, newFakeTarget(), entity.ModeUpdate)

	result := syncer.SyncOne(context.Background(), "1")

	// No create fallback in update mode; the miss is recorded, not acted on.
	assert.Equal(t, StatusSkipped, result.Status)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

func TestSyncOneWriteRejected(t *testing.T) {
	source := newFakeSource(testArticle(1, "SW10001"))
	target := newFakeTarget()
	target.createErr = &provider.TargetWriteError{
		Entity: entity.Articles,
		Op:     "create",
		Status: "422 Unprocessable Entity",
		Body:   "title can't be blank",
	}

	syncer := newTestSyncer(t, source, target, entity.ModeUpsert)
	result := syncer.SyncOne(context.Background(), "1")

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Error, "422")
}

func TestSyncManyPartialFailure(t *testing.T) {
	source := newFakeSource(
		testArticle(1, "SW10001"),
		testArticle(3, "SW10003"),
	)
	target := newFakeTarget()

	syncer := newTestSyncer(t, source, target, entity.ModeUpsert)
	agg := syncer.SyncMany(context.Background(), []string{"1", "2", "3"})

	assert.Equal(t, 3, agg.Total)
	assert.Equal(t, 2, agg.Successful)
	assert.Equal(t, 1, agg.Failed)

	// Results keep input order.
	require.Len(t, agg.Results, 3)
	assert.Equal(t, "1", agg.Results[0].SourceID)
	assert.True(t, agg.Results[0].Success)
	assert.Equal(t, "2", agg.Results[1].SourceID)
	assert.False(t, agg.Results[1].Success)
	assert.Equal(t, "3", agg.Results[2].SourceID)
	assert.True(t, agg.Results[2].Success)
}

func TestPreviewProjectsWithoutWriting(t *testing.T) {
	source := newFakeSource(testArticle(1, "SW10001"))
	target := newFakeTarget()

	projected, err := Preview(
		context.Background(),
		testInterop(),
		source,
		target,
		entity.Articles,
		testMappings(),
		"1",
	)
	require.NoError(t, err)

	assert.Equal(t, "Article 1", projected["title"])
	variant := projected["variants"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "SW10001", variant["sku"])

	assert.Empty(t, target.created)
	assert.Empty(t, target.updated)
}

func TestPreviewWorksForReadOnlyTypes(t *testing.T) {
	order := provider.Record{"id": 7, "number": "20001"}
	source := newFakeSource(order)

	projected, err := Preview(
		context.Background(),
		testInterop(),
		source,
		newFakeTarget(),
		entity.Orders,
		[]mapping.FieldMapping{{SourceField: "number", TargetField: "name"}},
		"7",
	)
	require.NoError(t, err)
	assert.Equal(t, "20001", projected["name"])
}
