package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fleetdesk/portal/internal/core/domain"
	"github.com/fleetdesk/portal/internal/core/ports"
)

// Resource is the set of authenticated fetch wrappers for one REST
// collection. Each call issues exactly one request and never retries.
type Resource[T any] struct {
	client *Client
	name   string
}

var _ ports.ResourceClient[domain.Car] = (*Resource[domain.Car])(nil)

func newResource[T any](c *Client, name string) *Resource[T] {
	return &Resource[T]{client: c, name: name}
}

// Name is the collection path segment, e.g. "fuel-prices".
func (r *Resource[T]) Name() string { return r.name }

// List fetches the collection.
func (r *Resource[T]) List(ctx context.Context, token string, q ports.ListQuery) ([]T, error) {
	var out []T
	if err := r.call(ctx, token, http.MethodGet, r.collectionPath()+encodeQuery(q), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get fetches one record.
func (r *Resource[T]) Get(ctx context.Context, token, id string) (*T, error) {
	var out T
	if err := r.call(ctx, token, http.MethodGet, r.itemPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a new record and returns the backend's copy.
func (r *Resource[T]) Create(ctx context.Context, token string, payload T) (*T, error) {
	var out T
	if err := r.call(ctx, token, http.MethodPost, r.collectionPath(), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a record and returns the backend's copy.
func (r *Resource[T]) Update(ctx context.Context, token, id string, payload T) (*T, error) {
	var out T
	if err := r.call(ctx, token, http.MethodPut, r.itemPath(id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, token, id string) error {
	return r.call(ctx, token, http.MethodDelete, r.itemPath(id), nil, nil)
}

func (r *Resource[T]) collectionPath() string {
	return "/" + r.name
}

func (r *Resource[T]) itemPath(id string) string {
	return "/" + r.name + "/" + url.PathEscape(id)
}

// call checks the token before touching the network, sends the request
// with the bearer header and decodes a 2xx body into out.
func (r *Resource[T]) call(ctx context.Context, token, method, path string, body, out any) error {
	if token == "" {
		return domain.ErrMissingToken
	}

	req, err := r.client.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.do(req, r.name)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", domain.ErrBackendUnavailable, r.name, err)
	}
	if err := decodeBody(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.name, err)
	}
	return nil
}

// decodeBody unmarshals raw into out, unwrapping a {"data": ...} envelope
// when present. An empty body or a null envelope leaves out untouched.
func decodeBody(raw []byte, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err == nil {
			if data, ok := env["data"]; ok {
				data = bytes.TrimSpace(data)
				if len(data) == 0 || string(data) == "null" {
					return nil
				}
				raw = data
			}
		}
	}
	return json.Unmarshal(raw, out)
}

func encodeQuery(q ports.ListQuery) string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
