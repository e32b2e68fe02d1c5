package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test connectivity to both platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			ctx := context.Background()

			sourceInfo, err := app.source.TestConnection(ctx)
			if err != nil {
				return fmt.Errorf("source connection failed: %w", err)
			}

			targetInfo, err := app.target.TestConnection(ctx)
			if err != nil {
				return fmt.Errorf("target connection failed: %w", err)
			}

			return printJSON(map[string]interface{}{
				"source": sourceInfo,
				"target": targetInfo,
			})
		},
	}
}
