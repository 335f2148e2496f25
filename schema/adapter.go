package schema

import (
	"context"
	"fmt"
	"regexp"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/i18n"
)

// Adapter is the per-field unit the object builder composes. It carries the
// field kind for renderers, a neutral-default constructor, and a parse
// closure that coerces raw widget input into the canonical typed value.
// Rule methods wrap the parse closure, so chaining order is evaluation
// order. Issues are reported relative to the field itself; the object
// engine rebases them under the field's path.
type Adapter struct {
	kind    recordkit.FieldKind
	def     func() any
	parse   func(ctx context.Context, v any) (any, error)
	options []string
	sub     recordkit.Schema // nested object schema, when kind == KindObject
	elem    *Adapter         // element adapter, when kind == KindList
}

// Kind reports the field kind.
func (a Adapter) Kind() recordkit.FieldKind { return a.kind }

// Options reports enum tags (nil for non-enum adapters).
func (a Adapter) Options() []string { return a.options }

// Default returns the adapter's neutral default value.
func (a Adapter) Default() any { return a.def() }

// Parse coerces and validates one raw value.
func (a Adapter) Parse(ctx context.Context, v any) (any, error) { return a.parse(ctx, v) }

func selfIssue(code string, params map[string]any) recordkit.Issues {
	data := make(map[string]string, len(params))
	for k, p := range params {
		data[k] = fmt.Sprint(p)
	}
	return recordkit.Issues{{Path: "", Code: code, Message: i18n.T(code, data), Params: params}}
}

// wrap layers an extra check over the adapter's parse, running it on the
// already-coerced value.
func (a Adapter) wrap(check func(ctx context.Context, v any) recordkit.Issues) Adapter {
	prev := a.parse
	out := a
	out.parse = func(ctx context.Context, v any) (any, error) {
		val, err := prev(ctx, v)
		if err != nil {
			return nil, err
		}
		if iss := check(ctx, val); len(iss) > 0 {
			return nil, iss
		}
		return val, nil
	}
	return out
}

// NonEmpty rejects empty strings.
func (a Adapter) NonEmpty() Adapter {
	return a.wrap(func(_ context.Context, v any) recordkit.Issues {
		if s, ok := v.(string); ok && s == "" {
			return selfIssue(recordkit.CodeRequired, nil)
		}
		return nil
	})
}

// MinLen rejects strings shorter than n runes. Empty strings pass unless the
// field is also NonEmpty or Required: optional fields stay optional.
func (a Adapter) MinLen(n int) Adapter {
	return a.wrap(func(_ context.Context, v any) recordkit.Issues {
		if s, ok := v.(string); ok && s != "" && len([]rune(s)) < n {
			return selfIssue(recordkit.CodeTooShort, map[string]any{"min": n, "got": len([]rune(s))})
		}
		return nil
	})
}

// MaxLen rejects strings longer than n runes.
func (a Adapter) MaxLen(n int) Adapter {
	return a.wrap(func(_ context.Context, v any) recordkit.Issues {
		if s, ok := v.(string); ok && len([]rune(s)) > n {
			return selfIssue(recordkit.CodeTooLong, map[string]any{"max": n, "got": len([]rune(s))})
		}
		return nil
	})
}

// Pattern rejects non-empty strings that do not match the anchored
// expression. A malformed expression is a programming error and panics at
// declaration time.
func (a Adapter) Pattern(expr string) Adapter {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		panic(fmt.Sprintf("%s: bad pattern %q: %v", recordkit.CodeSchemaError, expr, err))
	}
	return a.wrap(func(_ context.Context, v any) recordkit.Issues {
		if s, ok := v.(string); ok && s != "" && !re.MatchString(s) {
			return selfIssue(recordkit.CodePattern, map[string]any{"pattern": expr})
		}
		return nil
	})
}

// Min rejects numbers below n (inclusive bound).
func (a Adapter) Min(n float64) Adapter {
	return a.wrap(func(_ context.Context, v any) recordkit.Issues {
		if f, ok := numericValue(v); ok && f < n {
			return selfIssue(recordkit.CodeTooSmall, map[string]any{"min": n, "got": f})
		}
		return nil
	})
}

// Max rejects numbers above n (inclusive bound).
func (a Adapter) Max(n float64) Adapter {
	return a.wrap(func(_ context.Context, v any) recordkit.Issues {
		if f, ok := numericValue(v); ok && f > n {
			return selfIssue(recordkit.CodeTooBig, map[string]any{"max": n, "got": f})
		}
		return nil
	})
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// NotInFuture rejects non-empty date values after the reference date. The
// reference time comes from recordkit.WithNow so tests pin it.
func (a Adapter) NotInFuture() Adapter {
	if a.kind != recordkit.KindDate {
		panic(fmt.Sprintf("%s: NotInFuture applies to Date fields", recordkit.CodeSchemaError))
	}
	return a.wrap(func(ctx context.Context, v any) recordkit.Issues {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil
		}
		t, err := dateCodec.Decode(s)
		if err != nil {
			return nil // format issues were already reported by the base parse
		}
		now := recordkit.Now(ctx)
		y, m, d := now.Date()
		today := dateOnly(y, m, d)
		if t.After(today) {
			return selfIssue(recordkit.CodeNotInFuture, map[string]any{"got": s})
		}
		return nil
	})
}

// MinItems rejects lists with fewer than n elements.
func (a Adapter) MinItems(n int) Adapter {
	if a.kind != recordkit.KindList {
		panic(fmt.Sprintf("%s: MinItems applies to list fields", recordkit.CodeSchemaError))
	}
	return a.wrap(func(_ context.Context, v any) recordkit.Issues {
		if items, ok := v.([]any); ok && len(items) < n {
			return selfIssue(recordkit.CodeTooFewItems, map[string]any{"min": n, "got": len(items)})
		}
		return nil
	})
}
