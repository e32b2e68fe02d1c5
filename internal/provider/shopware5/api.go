package shopware5

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
)

type listEnvelope struct {
	Data    []map[string]interface{} `json:"data"`
	Total   int                      `json:"total"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
}

type itemEnvelope struct {
	Data    map[string]interface{} `json:"data"`
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
}

func (swp *Shopware5Provider) get(
	ctx context.Context,
	path string,
	params map[string]string,
	result interface{},
) error {
	u := fmt.Sprintf("%s/%s", swp.ApiURL, path)

	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u = u + "?" + q.Encode()
	}

	swp.Interop.Logger.Debugf("making shopware request using URL %s...", u)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}

	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")

	resp, err := swp.client.Do(req)
	if err != nil {
		return &provider.TransportError{Platform: "shopware5", Op: "GET " + path, Err: err}
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &provider.TransportError{Platform: "shopware5", Op: "GET " + path, Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return errStatusNotFound
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &provider.TransportError{
			Platform: "shopware5",
			Op:       "GET " + path,
			Err:      fmt.Errorf("authentication failed: %s", resp.Status),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return &provider.TransportError{
			Platform: "shopware5",
			Op:       "GET " + path,
			Err:      fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	swp.Interop.Logger.Debugf("read %d bytes, unmarshaling JSON...", len(body))

	if err := json.Unmarshal(body, result); err != nil {
		return &provider.TransportError{Platform: "shopware5", Op: "GET " + path, Err: err}
	}

	return nil
}

// errStatusNotFound marks a raw 404 inside the HTTP layer; callers rewrap it
// with the entity type and key they were resolving.
var errStatusNotFound = fmt.Errorf("not found")

func (swp *Shopware5Provider) getOne(
	ctx context.Context,
	typ entity.Type,
	id string,
	params map[string]string,
) (provider.Record, error) {
	var resp itemEnvelope

	err := swp.get(ctx, fmt.Sprintf("%s/%s", endpoint(typ), id), params, &resp)
	if err == errStatusNotFound {
		return nil, &provider.NotFoundError{Entity: typ, Key: id}
	}
	if err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, &provider.NotFoundError{Entity: typ, Key: id}
	}

	return resp.Data, nil
}
