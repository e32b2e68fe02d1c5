package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopmigrate/sw5-shopify-sync/internal/sync"
)

func newPreviewCmd() *cobra.Command {
	var (
		entityName string
		sourceID   string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the projected target record for one source record without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceID == "" {
				return fmt.Errorf("missing required flag --id")
			}

			typ, err := parseEntity(entityName)
			if err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}

			mappings, err := newStore().Load(typ)
			if err != nil {
				return err
			}
			if len(mappings) == 0 {
				return fmt.Errorf("no field mappings configured for %s", typ)
			}

			projected, err := sync.Preview(
				context.Background(),
				app.i,
				app.source,
				app.target,
				typ,
				mappings,
				sourceID,
			)
			if err != nil {
				return err
			}

			return printJSON(projected)
		},
	}

	cmd.Flags().StringVarP(&entityName, "entity", "e", "articles", "entity type (articles, customers, orders)")
	cmd.Flags().StringVar(&sourceID, "id", "", "source record id or number")

	return cmd
}
