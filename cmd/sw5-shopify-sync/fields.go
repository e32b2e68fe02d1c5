package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newFieldsCmd() *cobra.Command {
	var (
		entityName string
		side       string
		identifier string
	)

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Introspect the available field paths on either platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseEntity(entityName)
			if err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}

			ctx := context.Background()

			switch side {
			case "source":
				fields, err := app.source.Fields(ctx, typ, identifier)
				if err != nil {
					return err
				}
				return printJSON(fields)
			case "target":
				fields, err := app.target.Fields(ctx, typ, identifier)
				if err != nil {
					return err
				}
				return printJSON(fields)
			default:
				return fmt.Errorf("invalid side %q, expected source or target", side)
			}
		},
	}

	cmd.Flags().StringVarP(&entityName, "entity", "e", "articles", "entity type (articles, customers, orders)")
	cmd.Flags().StringVarP(&side, "side", "s", "source", "platform side (source or target)")
	cmd.Flags().StringVar(&identifier, "id", "", "introspect one specific record instead of sampling")

	return cmd
}
