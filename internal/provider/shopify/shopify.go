// Package shopify implements the target side of the migration against the
// Shopify Admin API, using REST for reads and writes and GraphQL for SKU
// lookups and metafield definitions.
package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"golang.org/x/oauth2/clientcredentials"
)

type AuthType string

const (
	AUTH_TYPE_TOKEN AuthType = "token"
	AUTH_TYPE_OAUTH AuthType = "oauth"
)

const defaultApiVersion = "2024-01"

type ShopifyProvider struct {
	Interop     *interop.Interop
	ShopURL     string
	AccessToken string
	ApiVersion  string
	AuthType    AuthType
	PageSize    int

	client *http.Client
}

func init() {
	provider.RegisterTarget("shopify", New)
}

func New(i *interop.Interop, v *viper.Viper) (provider.Target, error) {
	v.AutomaticEnv()
	v.SetEnvPrefix("SW5_SHOPIFY_SHOPIFY")

	shopUrl := v.GetString("shopUrl")
	if shopUrl == "" {
		return nil, fmt.Errorf("missing shopify shop url")
	}

	apiVersion := v.GetString("apiVersion")
	if apiVersion == "" {
		apiVersion = defaultApiVersion
	}

	pageSize := v.GetInt("pageSize")
	if pageSize <= 0 {
		pageSize = 50
	}

	var authType AuthType

	s := strings.ToLower(v.GetString("authType"))
	if s == "" || s == string(AUTH_TYPE_TOKEN) {
		authType = AUTH_TYPE_TOKEN
	} else if s == string(AUTH_TYPE_OAUTH) {
		authType = AUTH_TYPE_OAUTH
	} else {
		return nil, fmt.Errorf("invalid authentication type: %s", s)
	}

	sp := &ShopifyProvider{
		Interop:    i,
		ShopURL:    strings.TrimRight(shopUrl, "/"),
		ApiVersion: apiVersion,
		AuthType:   authType,
		PageSize:   pageSize,
	}

	if authType == AUTH_TYPE_TOKEN {
		accessToken := v.GetString("accessToken")
		if accessToken == "" {
			return nil, fmt.Errorf("missing shopify access token")
		}
		sp.AccessToken = accessToken
		sp.client = sp.newHTTPClient(nil)
	} else {
		oauthClientId := v.GetString("oauthClientId")
		if oauthClientId == "" {
			return nil, fmt.Errorf("missing shopify oauth client ID")
		}

		oauthClientSecret := v.GetString("oauthClientSecret")
		if oauthClientSecret == "" {
			return nil, fmt.Errorf("missing shopify oauth secret key")
		}

		oauthTokenUrl := v.GetString("oauthTokenUrl")
		if oauthTokenUrl == "" {
			oauthTokenUrl = fmt.Sprintf("%s/admin/oauth/access_token", sp.shopBase())
		}

		oauthConfig := &clientcredentials.Config{
			ClientID:     oauthClientId,
			ClientSecret: oauthClientSecret,
			TokenURL:     oauthTokenUrl,
			Scopes:       v.GetStringSlice("oauthScopes"),
		}

		sp.client = sp.newHTTPClient(oauthConfig.Client(context.Background()).Transport)
	}

	return sp, nil
}

// shopBase accepts a bare myshopify domain or a full URL with scheme.
func (sp *ShopifyProvider) shopBase() string {
	if strings.Contains(sp.ShopURL, "://") {
		return sp.ShopURL
	}
	return "https://" + sp.ShopURL
}

func (sp *ShopifyProvider) TestConnection(ctx context.Context) (*provider.ConnectionInfo, error) {
	var resp struct {
		Shop map[string]interface{} `json:"shop"`
	}

	if err := sp.get(ctx, "shop", nil, &resp); err != nil {
		return &provider.ConnectionInfo{Success: false}, err
	}

	return &provider.ConnectionInfo{
		Success: true,
		Info: map[string]string{
			"shop_name":   cast.ToString(resp.Shop["name"]),
			"shop_domain": cast.ToString(resp.Shop["domain"]),
			"email":       cast.ToString(resp.Shop["email"]),
		},
	}, nil
}

func (sp *ShopifyProvider) Create(
	ctx context.Context,
	typ entity.Type,
	record provider.Record,
) (int64, error) {
	wrapper, err := wrapperKey(typ)
	if err != nil {
		return 0, err
	}

	var resp map[string]map[string]interface{}

	err = sp.send(ctx, "POST", collection(typ), provider.Record{wrapper: record}, &resp)
	if err != nil {
		return 0, tagWriteError(err, typ)
	}

	return cast.ToInt64(resp[wrapper]["id"]), nil
}

func (sp *ShopifyProvider) Update(
	ctx context.Context,
	typ entity.Type,
	id int64,
	record provider.Record,
) (int64, error) {
	wrapper, err := wrapperKey(typ)
	if err != nil {
		return 0, err
	}

	var resp map[string]map[string]interface{}

	path := fmt.Sprintf("%s/%d", collection(typ), id)
	err = sp.send(ctx, "PUT", path, provider.Record{wrapper: record}, &resp)
	if err == errStatusNotFound {
		return 0, &provider.NotFoundError{Entity: typ, Key: cast.ToString(id)}
	}
	if err != nil {
		return 0, tagWriteError(err, typ)
	}

	return cast.ToInt64(resp[wrapper]["id"]), nil
}

func (sp *ShopifyProvider) FindByNaturalKey(
	ctx context.Context,
	typ entity.Type,
	key string,
) (provider.Record, error) {
	switch typ {
	case entity.Articles:
		return sp.findProductBySKU(ctx, key)

	case entity.Customers:
		return sp.findCustomerByEmail(ctx, key)
	}

	return nil, &provider.NotFoundError{Entity: typ, Key: key}
}

func (sp *ShopifyProvider) Fields(
	ctx context.Context,
	typ entity.Type,
	identifier string,
) ([]provider.FieldDescriptor, error) {
	records, err := sp.sampleRecords(ctx, typ, identifier)
	if err != nil {
		return nil, err
	}

	fields := provider.MergeFields(records)
	annotateKnownFields(fields)

	if typ == entity.Articles {
		metafields, err := sp.metafieldFields(ctx)
		if err != nil {
			sp.Interop.Logger.Warnf("failed to fetch metafield definitions: %s", err)
		} else {
			fields = append(fields, metafields...)
		}
	}

	return fields, nil
}

// MetafieldTypes maps "namespace.key" to the store's declared metafield type,
// so list-typed metafields can be encoded correctly during projection.
func (sp *ShopifyProvider) MetafieldTypes(ctx context.Context) (map[string]string, error) {
	defs, err := sp.metafieldDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	types := make(map[string]string, len(defs))
	for _, def := range defs {
		types[def.Namespace+"."+def.Key] = def.Type
	}

	return types, nil
}

func (sp *ShopifyProvider) sampleRecords(
	ctx context.Context,
	typ entity.Type,
	identifier string,
) ([]provider.Record, error) {
	if identifier != "" && typ == entity.Articles {
		record, err := sp.findProductBySKU(ctx, identifier)
		if err != nil {
			return nil, err
		}
		return []provider.Record{record}, nil
	}

	return sp.list(ctx, typ, 20)
}

func (sp *ShopifyProvider) metafieldFields(ctx context.Context) ([]provider.FieldDescriptor, error) {
	defs, err := sp.metafieldDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	fields := make([]provider.FieldDescriptor, 0, len(defs))
	for _, def := range defs {
		fields = append(fields, provider.FieldDescriptor{
			Path:        fmt.Sprintf("metafields[].%s.%s", def.Namespace, def.Key),
			Type:        def.Type,
			Description: strings.TrimSpace(def.Name + " - " + def.Description),
		})
	}

	return fields, nil
}

// annotateKnownFields marks the fields the sync cannot work without and adds
// the descriptions the mapping UI shows next to common product fields.
func annotateKnownFields(fields []provider.FieldDescriptor) {
	for i := range fields {
		if desc, ok := fieldDescriptions[fields[i].Path]; ok {
			fields[i].Description = desc
		}
		if fields[i].Path == "title" || fields[i].Path == "variants[].price" {
			fields[i].Required = true
		}
	}
}

var fieldDescriptions = map[string]string{
	"title":                        "Product title",
	"body_html":                    "Product description (HTML)",
	"vendor":                       "Product vendor/manufacturer",
	"product_type":                 "Product type/category",
	"tags":                         "Comma-separated tags",
	"status":                       "Product status: active, draft, archived",
	"variants[].sku":               "Stock Keeping Unit",
	"variants[].price":             "Product price",
	"variants[].compare_at_price":  "Compare at price (original price)",
	"variants[].barcode":           "Product barcode",
	"variants[].weight":            "Product weight",
	"variants[].weight_unit":       "Weight unit",
	"variants[].inventory_quantity": "Inventory quantity",
	"variants[].taxable":           "Whether product is taxable",
	"variants[].requires_shipping": "Whether product requires shipping",
	"images[].src":                 "Image URL",
	"images[].alt":                 "Image alt text",
	"options[].name":               "Option name (e.g., Size, Color)",
	"options[].values":             "Option values",
	"email":                        "Customer email address",
	"first_name":                   "Customer first name",
	"last_name":                    "Customer last name",
}

// tagWriteError records which entity type a rejected write was for; the HTTP
// layer below does not know.
func tagWriteError(err error, typ entity.Type) error {
	var writeErr *provider.TargetWriteError
	if errors.As(err, &writeErr) {
		writeErr.Entity = typ
	}
	return err
}

func collection(typ entity.Type) string {
	switch typ {
	case entity.Articles:
		return "products"
	case entity.Customers:
		return "customers"
	case entity.Orders:
		return "orders"
	}
	return typ.String()
}

func wrapperKey(typ entity.Type) (string, error) {
	switch typ {
	case entity.Articles:
		return "product", nil
	case entity.Customers:
		return "customer", nil
	}
	// Orders are created via checkout; the Admin API will not take writes.
	return "", &provider.TargetWriteError{Entity: typ, Op: "write", Status: "read-only"}
}
