package schema

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/codec"
)

var dateCodec = codec.DateISO()

func dateOnly(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// String returns a string field adapter. Neutral default is "".
func String() Adapter {
	return Adapter{
		kind: recordkit.KindString,
		def:  func() any { return "" },
		parse: func(_ context.Context, v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "string"})
			}
			return s, nil
		},
	}
}

// Bool returns a boolean field adapter. Neutral default is false; paper
// forms that pre-check a box declare .Default(true) at the field step.
func Bool() Adapter {
	return Adapter{
		kind: recordkit.KindBool,
		def:  func() any { return false },
		parse: func(_ context.Context, v any) (any, error) {
			b, ok := v.(bool)
			if !ok {
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "bool"})
			}
			return b, nil
		},
	}
}

// Number returns a float field adapter. Form widgets deliver strings, so
// numeric strings coerce before range checks; a non-numeric string is an
// invalid_type issue, never a silent NaN. JSON decoding may deliver
// json.Number or float64; both are accepted.
func Number() Adapter {
	return Adapter{
		kind: recordkit.KindNumber,
		def:  func() any { return float64(0) },
		parse: func(_ context.Context, v any) (any, error) {
			switch n := v.(type) {
			case float64:
				return n, nil
			case int:
				return float64(n), nil
			case int64:
				return float64(n), nil
			case json.Number:
				f, err := strconv.ParseFloat(n.String(), 64)
				if err != nil {
					return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "number", "got": n.String()})
				}
				return f, nil
			case string:
				s := strings.TrimSpace(n)
				if s == "" {
					return float64(0), nil
				}
				f, err := strconv.ParseFloat(s, 64)
				if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
					return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "number", "got": n})
				}
				return f, nil
			default:
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "number"})
			}
		},
	}
}

// Int returns an integer field adapter with the same string coercion rules
// as Number; fractional input is rejected.
func Int() Adapter {
	return Adapter{
		kind: recordkit.KindInt,
		def:  func() any { return 0 },
		parse: func(_ context.Context, v any) (any, error) {
			switch n := v.(type) {
			case int:
				return n, nil
			case int64:
				return int(n), nil
			case float64:
				if math.Trunc(n) != n {
					return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "integer", "got": n})
				}
				return int(n), nil
			case json.Number:
				i, err := n.Int64()
				if err != nil {
					return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "integer", "got": n.String()})
				}
				return int(i), nil
			case string:
				s := strings.TrimSpace(n)
				if s == "" {
					return 0, nil
				}
				i, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "integer", "got": n})
				}
				return int(i), nil
			default:
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "integer"})
			}
		},
	}
}

// Enum returns a string adapter restricted to the given tags. The empty
// string always passes (emptiness is the business of Required) so an
// optional enum can stay unselected.
func Enum(tags ...string) Adapter {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return Adapter{
		kind:    recordkit.KindEnum,
		def:     func() any { return "" },
		options: tags,
		parse: func(_ context.Context, v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "string"})
			}
			if s == "" {
				return s, nil
			}
			if _, ok := set[s]; !ok {
				return nil, selfIssue(recordkit.CodeInvalidEnum, map[string]any{"got": s, "options": strings.Join(tags, ",")})
			}
			return s, nil
		},
	}
}

// Date returns a calendar-date adapter. Values normalize to the canonical
// yyyy-MM-dd string; RFC3339 instants from the server are truncated to their
// date. The empty string means "no date".
func Date() Adapter {
	return Adapter{
		kind: recordkit.KindDate,
		def:  func() any { return "" },
		parse: func(_ context.Context, v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "date string"})
			}
			if s == "" {
				return s, nil
			}
			norm, err := dateCodec.Normalize(s)
			if err != nil {
				return nil, selfIssue(recordkit.CodeInvalidFormat, map[string]any{"got": s, "expected": codec.DisplayDate})
			}
			return norm, nil
		},
	}
}

// ObjectOf embeds a built sub-schema as a composite field. Defaults, merge
// and validation all delegate; issue paths come back relative to the
// sub-record and are rebased by the object engine.
func ObjectOf(s recordkit.Schema) Adapter {
	return Adapter{
		kind: recordkit.KindObject,
		def:  func() any { return s.Defaults() },
		sub:  s,
		parse: func(ctx context.Context, v any) (any, error) {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, selfIssue(recordkit.CodeInvalidType, map[string]any{"expected": "object"})
			}
			return s.Validate(ctx, m)
		},
	}
}
