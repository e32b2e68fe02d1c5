// Package shopware5 implements the source side of the migration against the
// Shopware 5 REST API.
package shopware5

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/icholy/digest"
	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type Shopware5Provider struct {
	Interop  *interop.Interop
	ApiURL   string
	ApiUser  string
	ApiKey   string
	PageSize int

	client *http.Client
}

func init() {
	provider.RegisterSource("shopware5", New)
}

func New(i *interop.Interop, v *viper.Viper) (provider.Source, error) {
	v.AutomaticEnv()
	v.SetEnvPrefix("SW5_SHOPIFY_SW5")

	apiUrl := v.GetString("apiUrl")
	if apiUrl == "" {
		return nil, fmt.Errorf("missing shopware api url")
	}

	apiUser := v.GetString("apiUser")
	if apiUser == "" {
		return nil, fmt.Errorf("missing shopware api user")
	}

	apiKey := v.GetString("apiKey")
	if apiKey == "" {
		return nil, fmt.Errorf("missing shopware api key")
	}

	pageSize := v.GetInt("pageSize")
	if pageSize <= 0 {
		pageSize = 100
	}

	swp := &Shopware5Provider{
		Interop:  i,
		ApiURL:   strings.TrimRight(apiUrl, "/"),
		ApiUser:  apiUser,
		ApiKey:   apiKey,
		PageSize: pageSize,
	}
	swp.client = swp.newHTTPClient()

	return swp, nil
}

// newHTTPClient wires retries around a digest-auth transport. The Shopware 5
// REST API only speaks HTTP digest authentication.
func (swp *Shopware5Provider) newHTTPClient() *http.Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.Logger = nil
	retry.HTTPClient = &http.Client{
		Transport: &digest.Transport{
			Username: swp.ApiUser,
			Password: swp.ApiKey,
		},
	}

	return retry.StandardClient()
}

func (swp *Shopware5Provider) TestConnection(ctx context.Context) (*provider.ConnectionInfo, error) {
	var resp struct {
		Success  bool        `json:"success"`
		Version  string      `json:"version"`
		Revision interface{} `json:"revision"`
	}

	if err := swp.get(ctx, "version", nil, &resp); err != nil {
		return &provider.ConnectionInfo{Success: false}, err
	}

	return &provider.ConnectionInfo{
		Success: true,
		Info: map[string]string{
			"version":  resp.Version,
			"revision": cast.ToString(resp.Revision),
		},
	}, nil
}

func (swp *Shopware5Provider) List(
	ctx context.Context,
	typ entity.Type,
	limit, offset int,
) (*provider.Page, error) {
	countOnly := limit <= 0
	if countOnly {
		// The SW5 API has no bare counting call; fetch one row and drop it.
		limit = 1
	}

	params := map[string]string{
		"limit": strconv.Itoa(limit),
		"start": strconv.Itoa(offset),
	}

	var resp listEnvelope
	if err := swp.get(ctx, endpoint(typ), params, &resp); err != nil {
		return nil, err
	}

	page := &provider.Page{Records: resp.Data, Total: resp.Total}
	if countOnly {
		page.Records = nil
	}

	return page, nil
}

// GetByID accepts a numeric id or the platform's human-facing number: the
// article number for articles, the email address for customers and the order
// number for orders.
func (swp *Shopware5Provider) GetByID(
	ctx context.Context,
	typ entity.Type,
	id string,
) (provider.Record, error) {
	if _, err := strconv.Atoi(id); err == nil {
		return swp.getOne(ctx, typ, id, nil)
	}

	switch typ {
	case entity.Articles:
		// useNumberAsId resolves the article number server side, much faster
		// than listing and filtering.
		return swp.getOne(ctx, typ, id, map[string]string{"useNumberAsId": "true"})

	case entity.Customers:
		return swp.findBy(ctx, typ, id, func(record provider.Record) bool {
			return strings.EqualFold(cast.ToString(record["email"]), id)
		})

	case entity.Orders:
		return swp.findBy(ctx, typ, id, func(record provider.Record) bool {
			return cast.ToString(record["number"]) == id
		})
	}

	return nil, fmt.Errorf("cannot look up %s by %q", typ, id)
}

func (swp *Shopware5Provider) Fields(
	ctx context.Context,
	typ entity.Type,
	identifier string,
) ([]provider.FieldDescriptor, error) {
	var records []provider.Record

	if identifier != "" {
		record, err := swp.GetByID(ctx, typ, identifier)
		if err != nil {
			return nil, err
		}
		records = []provider.Record{record}
	} else {
		page, err := swp.List(ctx, typ, fieldSampleSize(typ), 0)
		if err != nil {
			return nil, err
		}
		records = page.Records
	}

	fields := provider.MergeFields(records)

	if typ == entity.Articles {
		fields = append(fields, propertyValueFields(records)...)
	}

	return fields, nil
}

// fieldSampleSize follows the original tool: articles vary more, so more
// samples are worth the extra listing cost.
func fieldSampleSize(typ entity.Type) int {
	if typ == entity.Articles {
		return 20
	}
	return 10
}

// propertyValueFields adds the combined propertyValues.value descriptor:
// article property values are a flat list whose values users map as one
// pipe-joined string.
func propertyValueFields(records []provider.Record) []provider.FieldDescriptor {
	for _, record := range records {
		values, ok := record["propertyValues"].([]interface{})
		if !ok || len(values) == 0 {
			continue
		}

		var parts []string
		for _, item := range values {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if v, ok := obj["value"]; ok {
				parts = append(parts, cast.ToString(v))
			}
		}

		sample := strings.Join(parts, " | ")
		if len(sample) > 100 {
			sample = sample[:100]
		}

		return []provider.FieldDescriptor{{
			Path:        "propertyValues.value",
			Type:        "string",
			SampleValue: sample,
			Description: fmt.Sprintf("Property values (combined from %d items)", len(parts)),
		}}
	}

	return nil
}

func (swp *Shopware5Provider) findBy(
	ctx context.Context,
	typ entity.Type,
	key string,
	match func(provider.Record) bool,
) (provider.Record, error) {
	offset := 0

	for {
		page, err := swp.List(ctx, typ, swp.PageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, record := range page.Records {
			if match(record) {
				return record, nil
			}
		}

		offset += len(page.Records)
		if len(page.Records) == 0 || offset >= page.Total {
			return nil, &provider.NotFoundError{Entity: typ, Key: key}
		}
	}
}

func endpoint(typ entity.Type) string {
	return typ.String()
}
