package recordkit

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// FieldKind classifies a field for rendering collaborators.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindBool   FieldKind = "bool"
	KindNumber FieldKind = "number"
	KindInt    FieldKind = "int"
	KindDate   FieldKind = "date"
	KindEnum   FieldKind = "enum"
	KindObject FieldKind = "object"
	KindList   FieldKind = "list"
)

// FieldInfo is the declaration-ordered metadata a Record Schema exposes for
// one field. Display and validation read the same declaration: VisibleWhen
// is the predicate a renderer consults before showing the widget.
type FieldInfo struct {
	Name     string
	Path     string // Full dot path from the record root.
	Kind     FieldKind
	Required bool
	Options  []string // Enum tags, when Kind == KindEnum.
	// VisibleWhen reports whether the field is relevant for the given record.
	// nil means always visible.
	VisibleWhen func(record map[string]any) bool
	// Children lists nested fields for object fields and element fields for
	// list fields (list element paths are relative to one element).
	Children []FieldInfo
}

// Schema is the contract between a declarative record definition, the
// validation engine, and the REST layer.
//
// Validate runs coercion, normalization, defaults and every rule in one
// pass, aggregating all issues so a form can show every problem at once
// on submit. ValidateField
// re-checks a single path plus any record rule that declares it as a
// dependent (blur/change feedback). Both are pure: same schema, same input,
// same output, with the current time injected via WithNow when a rule needs
// it.
type Schema interface {
	// Defaults returns a fully populated record tree. Every path any rule or
	// display binding references resolves to a defined value.
	Defaults() map[string]any
	// Merge lays a fetched (possibly partial) record over the schema
	// defaults, recursing into nested objects and list elements. It never
	// fails; invalid values are kept as-is for Validate to report.
	Merge(fetched map[string]any) map[string]any
	// Validate returns the normalized record, or Issues listing every
	// problem in schema-declaration order.
	Validate(ctx context.Context, rec map[string]any) (map[string]any, error)
	// ValidateField returns the issues for a single dot path.
	ValidateField(ctx context.Context, rec map[string]any, path string) error
	// Fields returns declaration-ordered field metadata.
	Fields() []FieldInfo
}

// ---- Validation-time context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
	_ctxKeyNow
)

// WithFailFast returns a child context that makes validation stop at the
// first issue instead of aggregating.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current validation should stop on the
// first issue.
func IsFailFast(ctx context.Context) bool {
	b, _ := ctx.Value(_ctxKeyFailFast).(bool)
	return b
}

// WithNow pins the reference time used by time-sensitive rules such as
// "completion date may not be in the future". Tests set it to a fixed
// instant; production callers usually leave it unset.
func WithNow(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, _ctxKeyNow, t)
}

// Now returns the reference time injected via WithNow, or time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(_ctxKeyNow).(time.Time); ok {
		return t
	}
	return time.Now()
}

// ---- Path access ----

// Lookup resolves a dot path against a record tree. List indices are
// decimal segments: "sprinklers.2.make". The second result is false when
// any segment is missing or of the wrong shape.
func Lookup(rec map[string]any, path string) (any, bool) {
	if path == "" {
		return rec, true
	}
	var cur any = rec
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// LookupString is Lookup narrowed to string values; non-strings and missing
// paths read as "".
func LookupString(rec map[string]any, path string) string {
	v, ok := Lookup(rec, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// LookupBool is Lookup narrowed to bool values; missing paths read as false.
func LookupBool(rec map[string]any, path string) bool {
	v, ok := Lookup(rec, path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
