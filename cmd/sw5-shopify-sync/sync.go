package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/sync"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
)

func newSyncCmd() *cobra.Command {
	var (
		entityName string
		modeName   string
		ids        string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Migrate records from the source platform to the target platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && ids == "" {
				return fmt.Errorf("either --ids or --all is required")
			}
			if all && ids != "" {
				return fmt.Errorf("--ids and --all are mutually exclusive")
			}

			typ, err := parseEntity(entityName)
			if err != nil {
				return err
			}

			mode, err := entity.ParseMode(modeName)
			if err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}

			defer app.i.Shutdown()

			mappings, err := newStore().Load(typ)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(
				context.Background(),
				syscall.SIGINT,
				syscall.SIGTERM,
			)
			defer stop()

			syncer, err := sync.New(ctx, app.i, app.source, app.target, typ, mappings, mode)
			if err != nil {
				return err
			}

			controller := sync.NewController(app.i, app.source, syncer)

			done := make(chan struct{})
			go reportEvents(app.i, controller.Events(), done)

			var agg *sync.Aggregate
			if all {
				agg, err = controller.SyncAll(ctx)
			} else {
				agg, err = controller.SyncSelected(ctx, splitIDs(ids))
			}

			<-done

			if printErr := printJSON(agg); printErr != nil {
				return printErr
			}

			if err != nil {
				return fmt.Errorf("sync did not complete: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&entityName, "entity", "e", "articles", "entity type (articles, customers, orders)")
	cmd.Flags().StringVarP(&modeName, "mode", "m", "upsert", "sync mode (create, update, upsert)")
	cmd.Flags().StringVar(&ids, "ids", "", "comma separated source record ids to sync")
	cmd.Flags().BoolVar(&all, "all", false, "sync every record of the entity type")

	return cmd
}

func reportEvents(i *interop.Interop, events <-chan sync.Event, done chan<- struct{}) {
	defer close(done)

	for event := range events {
		switch event.Type {
		case sync.EventProgress:
			i.Logger.Infof(
				"batch of %d done, %d/%d records processed",
				len(event.Batch),
				event.Processed,
				event.Total,
			)
		case sync.EventCompleted:
			i.Logger.Infof("sync completed: %s", event.Message)
		case sync.EventAborted:
			i.Logger.Warnf("sync aborted after %d/%d records", event.Processed, event.Total)
		case sync.EventFailed:
			i.Logger.Errorf("sync failed: %s", event.Err)
		}
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}
