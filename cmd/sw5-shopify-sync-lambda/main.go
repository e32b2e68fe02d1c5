package main

import (
	"context"
	"fmt"

	_ "github.com/shopmigrate/sw5-shopify-sync/internal/provider/shopify"
	_ "github.com/shopmigrate/sw5-shopify-sync/internal/provider/shopware5"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/viper"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/shopmigrate/sw5-shopify-sync/internal/sync"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
)

// SyncRequest optionally narrows a scheduled invocation down to specific
// entity types or source ids. An empty request runs the full sync for every
// entity type configured under sync.entities.
type SyncRequest struct {
	Entity string   `json:"entity,omitempty"`
	Mode   string   `json:"mode,omitempty"`
	IDs    []string `json:"ids,omitempty"`
}

type EntityResult struct {
	Entity     string `json:"entity"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
}

type SyncResult struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Entities []EntityResult `json:"entities,omitempty"`
}

func HandleRequest(ctx context.Context, request SyncRequest) (SyncResult, error) {
	i, err := interop.NewInteroperability()
	if err != nil {
		retErr := fmt.Errorf("failed to create interop: %s", err)
		return SyncResult{Success: false, Message: retErr.Error()}, retErr
	}

	defer i.Shutdown()

	source, err := provider.GetSource(i)
	if err != nil {
		retErr := fmt.Errorf("failed to create source: %s", err)
		return SyncResult{Success: false, Message: retErr.Error()}, retErr
	}

	target, err := provider.GetTarget(i)
	if err != nil {
		retErr := fmt.Errorf("failed to create target: %s", err)
		return SyncResult{Success: false, Message: retErr.Error()}, retErr
	}

	types, mode, err := resolveScope(request)
	if err != nil {
		return SyncResult{Success: false, Message: err.Error()}, err
	}

	store := mapping.NewFileStore(mappingFile())

	result := SyncResult{Success: true}

	for _, typ := range types {
		agg, err := syncEntity(ctx, i, source, target, store, typ, mode, request.IDs)
		if err != nil {
			retErr := fmt.Errorf("sync failed for %s: %s", typ, err)
			result.Success = false
			result.Message = retErr.Error()
			return result, retErr
		}

		result.Entities = append(result.Entities, EntityResult{
			Entity:     typ.String(),
			Total:      agg.Total,
			Successful: agg.Successful,
			Failed:     agg.Failed,
		})
	}

	return result, nil
}

func resolveScope(request SyncRequest) ([]entity.Type, entity.Mode, error) {
	modeName := request.Mode
	if modeName == "" {
		modeName = viper.GetString("sync.mode")
	}
	if modeName == "" {
		modeName = "upsert"
	}

	mode, err := entity.ParseMode(modeName)
	if err != nil {
		return nil, "", err
	}

	if request.Entity != "" {
		typ, err := entity.Parse(request.Entity)
		if err != nil {
			return nil, "", err
		}
		return []entity.Type{typ}, mode, nil
	}

	names := viper.GetStringSlice("sync.entities")
	if len(names) == 0 {
		names = []string{entity.Articles.String()}
	}

	var types []entity.Type
	for _, name := range names {
		typ, err := entity.Parse(name)
		if err != nil {
			return nil, "", err
		}
		types = append(types, typ)
	}

	return types, mode, nil
}

func syncEntity(
	ctx context.Context,
	i *interop.Interop,
	source provider.Source,
	target provider.Target,
	store mapping.Store,
	typ entity.Type,
	mode entity.Mode,
	ids []string,
) (*sync.Aggregate, error) {
	mappings, err := store.Load(typ)
	if err != nil {
		return nil, err
	}

	syncer, err := sync.New(ctx, i, source, target, typ, mappings, mode)
	if err != nil {
		return nil, err
	}

	controller := sync.NewController(i, source, syncer)
	go drainEvents(i, controller.Events())

	if len(ids) > 0 {
		return controller.SyncSelected(ctx, ids)
	}

	return controller.SyncAll(ctx)
}

func drainEvents(i *interop.Interop, events <-chan sync.Event) {
	for event := range events {
		if event.Type == sync.EventProgress {
			i.Logger.Debugf("%d/%d records processed", event.Processed, event.Total)
		}
	}
}

func mappingFile() string {
	file := viper.GetString("mappings.file")
	if file == "" {
		file = "mappings.json"
	}

	return file
}

func main() {
	lambda.Start(HandleRequest)
}
