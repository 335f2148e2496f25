package rest

import (
	"context"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/schema"
)

// Filter narrows a List call. Zero values are omitted from the query.
type Filter struct {
	Search string
	From   string // yyyy-MM-dd
	To     string // yyyy-MM-dd
	Page   int
	Limit  int
	Extra  map[string]string
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	for k, v := range f.Extra {
		q.Set(k, v)
	}
	return q
}

// Page is one page of list results.
type Page struct {
	Items      []map[string]any `json:"items"`
	TotalCount int              `json:"totalCount"`
	Page       int              `json:"page"`
	PageCount  int              `json:"pageCount"`
}

// Resource binds a record schema to its /admin/{name} collection. Records
// read back from the server are merged over the schema defaults, so callers
// always see a fully populated tree.
type Resource struct {
	client *Client
	name   string
	schema recordkit.Schema
}

// Resource returns the accessor for one collection.
func (c *Client) Resource(name string, s recordkit.Schema) *Resource {
	return &Resource{client: c, name: name, schema: s}
}

// Schema exposes the bound schema for form rendering.
func (r *Resource) Schema() recordkit.Schema { return r.schema }

func (r *Resource) base() string { return "/admin/" + r.name }

// List fetches one page of records. Reads are cached and concurrent
// identical calls are coalesced into one round trip.
//
// The wire shape keys the collection by resource name next to pagination
// metadata:
//
//	{"data": {"work_orders": [...], "pagination": {"total_count": 41, ...}}}
func (r *Resource) List(ctx context.Context, f Filter) (Page, error) {
	raw, err := r.client.get(ctx, r.name, r.base(), f.query())
	if err != nil {
		return Page{}, err
	}
	var env map[string]json.RawMessage
	if uerr := json.Unmarshal(raw, &env); uerr != nil {
		return Page{}, networkError(uerr)
	}
	var p Page
	if items, ok := env[r.name]; ok {
		if uerr := json.Unmarshal(items, &p.Items); uerr != nil {
			return Page{}, networkError(uerr)
		}
	}
	if pg, ok := env["pagination"]; ok {
		var meta struct {
			TotalCount int `json:"total_count"`
			Page       int `json:"page"`
			PageCount  int `json:"page_count"`
		}
		if uerr := json.Unmarshal(pg, &meta); uerr != nil {
			return Page{}, networkError(uerr)
		}
		p.TotalCount, p.Page, p.PageCount = meta.TotalCount, meta.Page, meta.PageCount
	}
	for i, it := range p.Items {
		p.Items[i] = r.schema.Merge(it)
	}
	return p, nil
}

// Get fetches one record and merges it over the schema defaults.
func (r *Resource) Get(ctx context.Context, id string) (map[string]any, error) {
	raw, err := r.client.get(ctx, r.name, r.base()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return r.decodeRecord(raw)
}

// Create validates and normalizes the record, then POSTs it. Validation
// failure returns recordkit.Issues without touching the network; the
// caller's input map is never mutated either way.
func (r *Resource) Create(ctx context.Context, rec map[string]any) (map[string]any, error) {
	norm, err := r.schema.Validate(ctx, rec)
	if err != nil {
		return nil, err
	}
	raw, reqErr := r.client.mutate(ctx, "POST", r.name, r.base(), stripRowKeys(norm))
	if reqErr != nil {
		return nil, reqErr
	}
	return r.decodeRecord(raw)
}

// Update PATCHes a partial record. The partial is validated as part of the
// full merged view, so cross-field rules still see every path, but only the
// caller's keys go over the wire.
func (r *Resource) Update(ctx context.Context, id string, partial map[string]any) (map[string]any, error) {
	if _, err := r.schema.Validate(ctx, r.schema.Merge(partial)); err != nil {
		return nil, err
	}
	raw, reqErr := r.client.mutate(ctx, "PATCH", r.name, r.base()+"/"+url.PathEscape(id), stripRowKeys(partial))
	if reqErr != nil {
		return nil, reqErr
	}
	return r.decodeRecord(raw)
}

// Delete removes a record.
func (r *Resource) Delete(ctx context.Context, id string) error {
	_, err := r.client.mutate(ctx, "DELETE", r.name, r.base()+"/"+url.PathEscape(id), nil)
	return err
}

// decodeRecord unwraps the resource-keyed envelope ({"customers": {...}})
// and falls back to a bare record object for servers that skip the key.
func (r *Resource) decodeRecord(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, networkError(err)
	}
	body := raw
	if inner, ok := env[r.name]; ok {
		body = inner
	}
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, networkError(err)
	}
	return r.schema.Merge(rec), nil
}

// stripRowKeys removes the client-side row identity before a payload goes
// over the wire. Operates on a copy; the input is not mutated.
func stripRowKeys(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, e := range v {
		out[k] = stripRowKeysValue(e)
	}
	return out
}

func stripRowKeysValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if k == schema.RowKey {
				continue
			}
			out[k] = stripRowKeysValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = stripRowKeysValue(e)
		}
		return out
	default:
		return v
	}
}
