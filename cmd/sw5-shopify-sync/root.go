package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sw5-shopify-sync",
		Short:         "Migrate catalog entities from Shopware 5 to Shopify",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTestCmd(),
		newFieldsCmd(),
		newPreviewCmd(),
		newValidateCmd(),
		newSyncCmd(),
		newExportCmd(),
		newImportCmd(),
	)

	return root
}

// app holds the shared pieces every command needs once configuration has
// been loaded.
type app struct {
	i      *interop.Interop
	source provider.Source
	target provider.Target
}

func newApp() (*app, error) {
	i, err := interop.NewInteroperability()
	if err != nil {
		return nil, err
	}

	source, err := provider.GetSource(i)
	if err != nil {
		return nil, err
	}

	target, err := provider.GetTarget(i)
	if err != nil {
		return nil, err
	}

	return &app{i: i, source: source, target: target}, nil
}

func newStore() mapping.Store {
	file := viper.GetString("mappings.file")
	if file == "" {
		file = "mappings.json"
	}

	return mapping.NewFileStore(file)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func parseEntity(s string) (entity.Type, error) {
	typ, err := entity.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid entity %q: %w", s, err)
	}

	return typ, nil
}
