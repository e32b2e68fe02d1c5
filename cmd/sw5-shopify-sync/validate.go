package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
)

func newValidateCmd() *cobra.Command {
	var (
		entityName string
		modeName   string
		schema     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configured field mappings for an entity type",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseEntity(entityName)
			if err != nil {
				return err
			}

			mode, err := entity.ParseMode(modeName)
			if err != nil {
				return err
			}

			mappings, err := newStore().Load(typ)
			if err != nil {
				return err
			}

			issues := mapping.ValidateForSync(typ, mappings, mode)

			if schema {
				app, err := newApp()
				if err != nil {
					return err
				}

				schemaIssues, err := validateSchema(app, typ, mappings)
				if err != nil {
					app.i.Logger.Warnf("skipping schema validation: %s", err)
				} else {
					issues = append(issues, schemaIssues...)
				}
			}

			if err := printJSON(issues); err != nil {
				return err
			}

			if !mapping.Valid(issues) {
				return fmt.Errorf("mapping validation failed for %s", typ)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&entityName, "entity", "e", "articles", "entity type (articles, customers, orders)")
	cmd.Flags().StringVarP(&modeName, "mode", "m", "upsert", "sync mode (create, update, upsert)")
	cmd.Flags().BoolVar(&schema, "schema", false, "also check mapped paths against live platform schemas")

	return cmd
}

func validateSchema(app *app, typ entity.Type, mappings []mapping.FieldMapping) ([]mapping.ValidationIssue, error) {
	ctx := context.Background()

	sourceFields, err := app.source.Fields(ctx, typ, "")
	if err != nil {
		return nil, err
	}

	targetFields, err := app.target.Fields(ctx, typ, "")
	if err != nil {
		return nil, err
	}

	return mapping.ValidateAgainstSchema(
		mappings,
		fieldPaths(sourceFields),
		fieldPaths(targetFields),
	), nil
}

func fieldPaths(fields []provider.FieldDescriptor) []string {
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		paths = append(paths, f.Path)
	}

	return paths
}
