package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
)

func (sp *ShopifyProvider) newGraphqlClient() *graphql.Client {
	u := fmt.Sprintf("%s/graphql.json", sp.baseURL())

	return graphql.NewClient(u, sp.client).WithRequestModifier(
		func(req *http.Request) {
			req.Header.Add("Accept", "application/json")
			req.Header.Add("Content-Type", "application/json")
		},
	)
}

// findProductBySKU resolves a SKU to the full product record. SKU search is
// only available through GraphQL; listing and filtering by hand does not
// scale to real catalogs.
func (sp *ShopifyProvider) findProductBySKU(ctx context.Context, sku string) (provider.Record, error) {
	var q struct {
		ProductVariants struct {
			Edges []struct {
				Node struct {
					Sku     string
					Product struct {
						LegacyResourceId string `graphql:"legacyResourceId"`
					}
				}
			}
		} `graphql:"productVariants(first: 1, query: $query)"`
	}

	vars := map[string]interface{}{
		"query": "sku:" + sku,
	}

	if err := sp.newGraphqlClient().Query(ctx, &q, vars); err != nil {
		return nil, &provider.TransportError{Platform: "shopify", Op: "graphql productVariants", Err: err}
	}

	if len(q.ProductVariants.Edges) == 0 {
		return nil, &provider.NotFoundError{Entity: entity.Articles, Key: sku}
	}

	id, err := strconv.ParseInt(q.ProductVariants.Edges[0].Node.Product.LegacyResourceId, 10, 64)
	if err != nil {
		return nil, &provider.TransportError{
			Platform: "shopify",
			Op:       "graphql productVariants",
			Err:      fmt.Errorf("unexpected product id %q: %s", q.ProductVariants.Edges[0].Node.Product.LegacyResourceId, err),
		}
	}

	return sp.getProduct(ctx, id)
}

type metafieldDefinition struct {
	Namespace   string
	Key         string
	Name        string
	Type        string
	Description string
}

func (sp *ShopifyProvider) metafieldDefinitions(ctx context.Context) ([]metafieldDefinition, error) {
	var q struct {
		MetafieldDefinitions struct {
			Edges []struct {
				Node struct {
					Name        string
					Namespace   string
					Key         string
					Description string
					Type        struct {
						Name string
					}
				}
			}
		} `graphql:"metafieldDefinitions(first: 100, ownerType: PRODUCT)"`
	}

	if err := sp.newGraphqlClient().Query(ctx, &q, nil); err != nil {
		return nil, &provider.TransportError{Platform: "shopify", Op: "graphql metafieldDefinitions", Err: err}
	}

	defs := make([]metafieldDefinition, 0, len(q.MetafieldDefinitions.Edges))
	for _, edge := range q.MetafieldDefinitions.Edges {
		defs = append(defs, metafieldDefinition{
			Namespace:   edge.Node.Namespace,
			Key:         edge.Node.Key,
			Name:        edge.Node.Name,
			Type:        edge.Node.Type.Name,
			Description: edge.Node.Description,
		})
	}

	return defs, nil
}
