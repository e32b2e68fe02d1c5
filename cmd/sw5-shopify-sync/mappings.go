package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
)

func newExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export-mappings",
		Short: "Export every entity type's field mappings to a bundle file",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := newStore().ExportAll()
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(bundle, "", "  ")
			if err != nil {
				return err
			}

			if err := os.WriteFile(file, data, 0644); err != nil {
				return fmt.Errorf("writing bundle: %w", err)
			}

			fmt.Printf("exported mappings for %d entity types to %s\n", len(bundle.Mappings), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "mappings-export.json", "bundle file to write")

	return cmd
}

func newImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import-mappings",
		Short: "Import field mappings from a bundle file, replacing the stored ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading bundle: %w", err)
			}

			var bundle mapping.ExportBundle
			if err := json.Unmarshal(data, &bundle); err != nil {
				return fmt.Errorf("parsing bundle %s: %w", file, err)
			}

			if err := newStore().ImportAll(&bundle); err != nil {
				return err
			}

			fmt.Printf("imported mappings for %d entity types from %s\n", len(bundle.Mappings), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "mappings-export.json", "bundle file to read")

	return cmd
}
