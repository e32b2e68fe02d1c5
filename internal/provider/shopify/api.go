package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/spf13/cast"
	"github.com/tomnomnom/linkheader"
)

// tokenTransport injects the Admin API access token into every request.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-Shopify-Access-Token", t.token)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// newHTTPClient wires retries around the authenticated transport. The retry
// policy honors Retry-After, which is how the Admin API signals 429 rate
// limiting.
func (sp *ShopifyProvider) newHTTPClient(base http.RoundTripper) *http.Client {
	var transport http.RoundTripper = base

	if sp.AuthType == AUTH_TYPE_TOKEN {
		transport = &tokenTransport{token: sp.AccessToken, base: base}
	}

	retry := retryablehttp.NewClient()
	retry.RetryMax = 4
	retry.Logger = nil
	retry.HTTPClient = &http.Client{Transport: transport}

	return retry.StandardClient()
}

func (sp *ShopifyProvider) baseURL() string {
	return fmt.Sprintf("%s/admin/api/%s", sp.shopBase(), sp.ApiVersion)
}

var errStatusNotFound = fmt.Errorf("not found")

func (sp *ShopifyProvider) get(
	ctx context.Context,
	path string,
	params map[string]string,
	result interface{},
) error {
	u := fmt.Sprintf("%s/%s.json", sp.baseURL(), path)

	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u = u + "?" + q.Encode()
	}

	_, err := sp.do(ctx, "GET", u, nil, result)
	return err
}

func (sp *ShopifyProvider) send(
	ctx context.Context,
	method string,
	path string,
	payload interface{},
	result interface{},
) error {
	u := fmt.Sprintf("%s/%s.json", sp.baseURL(), path)

	_, err := sp.do(ctx, method, u, payload, result)
	return err
}

// do performs one Admin API call and returns the next-page URL from the Link
// header, when the response carries one.
func (sp *ShopifyProvider) do(
	ctx context.Context,
	method string,
	u string,
	payload interface{},
	result interface{},
) (string, error) {
	sp.Interop.Logger.Debugf("making shopify %s request using URL %s...", method, u)

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return "", err
	}

	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")

	resp, err := sp.client.Do(req)
	if err != nil {
		return "", &provider.TransportError{Platform: "shopify", Op: method + " " + u, Err: err}
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &provider.TransportError{Platform: "shopify", Op: method + " " + u, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", errStatusNotFound

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &provider.TransportError{
			Platform: "shopify",
			Op:       method + " " + u,
			Err:      fmt.Errorf("authentication failed: %s", resp.Status),
		}

	case resp.StatusCode >= 400:
		if method == "GET" {
			return "", &provider.TransportError{
				Platform: "shopify",
				Op:       method + " " + u,
				Err:      fmt.Errorf("unexpected status: %s", resp.Status),
			}
		}
		return "", writeError(method, resp.Status, body)
	}

	sp.Interop.Logger.Debugf("read %d bytes, unmarshaling JSON...", len(body))

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return "", &provider.TransportError{Platform: "shopify", Op: method + " " + u, Err: err}
		}
	}

	return nextPageURL(resp.Header.Get("Link")), nil
}

func nextPageURL(header string) string {
	for _, link := range linkheader.Parse(header) {
		if link.Rel == "next" {
			return link.URL
		}
	}
	return ""
}

// writeError flattens Shopify's {"errors": ...} payload into a
// TargetWriteError message.
func writeError(method, status string, body []byte) error {
	op := "create"
	if method == "PUT" {
		op = "update"
	}

	var payload struct {
		Errors interface{} `json:"errors"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Errors != nil {
		message = cast.ToString(fmt.Sprintf("%v", payload.Errors))
	}

	return &provider.TargetWriteError{Op: op, Status: status, Body: message}
}

// list walks the Link-header pagination until sampleLimit records have been
// collected.
func (sp *ShopifyProvider) list(
	ctx context.Context,
	typ entity.Type,
	sampleLimit int,
) ([]provider.Record, error) {
	params := map[string]string{"limit": cast.ToString(sp.PageSize)}
	if typ == entity.Orders {
		params["status"] = "any"
	}

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}

	u := fmt.Sprintf("%s/%s.json?%s", sp.baseURL(), collection(typ), q.Encode())

	var records []provider.Record

	for u != "" && len(records) < sampleLimit {
		var resp map[string][]map[string]interface{}

		next, err := sp.do(ctx, "GET", u, nil, &resp)
		if err != nil {
			return nil, err
		}

		for _, record := range resp[collection(typ)] {
			records = append(records, record)
		}

		u = next
	}

	if len(records) > sampleLimit {
		records = records[:sampleLimit]
	}

	return records, nil
}

// findCustomerByEmail uses the Admin customer search endpoint.
func (sp *ShopifyProvider) findCustomerByEmail(ctx context.Context, email string) (provider.Record, error) {
	var resp struct {
		Customers []map[string]interface{} `json:"customers"`
	}

	err := sp.get(ctx, "customers/search", map[string]string{"query": "email:" + email}, &resp)
	if err == errStatusNotFound || (err == nil && len(resp.Customers) == 0) {
		return nil, &provider.NotFoundError{Entity: entity.Customers, Key: email}
	}
	if err != nil {
		return nil, err
	}

	return resp.Customers[0], nil
}

// getProduct fetches the full product record, including variant ids, which
// updates preserve.
func (sp *ShopifyProvider) getProduct(ctx context.Context, id int64) (provider.Record, error) {
	var resp struct {
		Product map[string]interface{} `json:"product"`
	}

	err := sp.get(ctx, fmt.Sprintf("products/%d", id), nil, &resp)
	if err == errStatusNotFound {
		return nil, &provider.NotFoundError{Entity: entity.Articles, Key: cast.ToString(id)}
	}
	if err != nil {
		return nil, err
	}

	return resp.Product, nil
}
