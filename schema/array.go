package schema

import (
	"context"
	"strconv"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/google/uuid"
)

// RowKey is the synthetic element identity carried by object-valued list
// entries. It is stable for the lifetime of a session, independent of array
// position, so inserting or removing a row never re-addresses in-flight
// edits of its siblings. The server ignores it.
const RowKey = "_key"

// ArrayOf returns an ordered-list adapter over the given element adapter.
// Neutral default is the empty list; empty lists are valid unless MinItems
// says otherwise. Object elements gain a RowKey during normalization when
// they don't already carry one.
func ArrayOf(elem Adapter) Adapter {
	el := elem
	return Adapter{
		kind: recordkit.KindList,
		def:  func() any { return []any{} },
		elem: &el,
		parse: func(ctx context.Context, v any) (any, error) {
			items, ok := v.([]any)
			if !ok {
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "list"})
			}
			out := make([]any, 0, len(items))
			var iss recordkit.Issues
			for i, raw := range items {
				idx := strconv.Itoa(i)
				if raw == nil {
					raw = el.def()
				}
				var key string
				if m, ok := raw.(map[string]any); ok {
					key, _ = m[RowKey].(string)
				}
				parsed, err := el.parse(ctx, raw)
				if err != nil {
					child, ok := recordkit.AsIssues(err)
					if !ok {
						child = recordkit.Issues{{Path: "", Code: recordkit.CodeParseError, Message: err.Error()}}
					}
					iss = recordkit.AppendIssues(iss, recordkit.Rebase(idx, child)...)
					if recordkit.IsFailFast(ctx) {
						return nil, iss
					}
					continue
				}
				if m, ok := parsed.(map[string]any); ok {
					if key == "" {
						key = uuid.NewString()
					}
					m[RowKey] = key
				}
				out = append(out, parsed)
			}
			if len(iss) > 0 {
				return nil, iss
			}
			return out, nil
		},
	}
}

// ElementDefaults returns a fresh default value for one list element, the
// way "add row" UI affordances need it. Object elements come pre-keyed.
func (a Adapter) ElementDefaults() any {
	if a.kind != recordkit.KindList || a.elem == nil {
		return nil
	}
	v := a.elem.def()
	if m, ok := v.(map[string]any); ok {
		m[RowKey] = uuid.NewString()
	}
	return v
}
