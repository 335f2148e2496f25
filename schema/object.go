package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/i18n"
)

// Predicate evaluates against a post-coercion record rooted at the schema
// that declared it.
type Predicate func(record map[string]any) bool

// WhenFalse builds a predicate that is true when the boolean at path is
// false. The usual shape of regulatory forms: "if not conforming, explain".
func WhenFalse(path string) Predicate {
	return func(rec map[string]any) bool { return !recordkit.LookupBool(rec, path) }
}

// WhenTrue builds a predicate that is true when the boolean at path is true.
func WhenTrue(path string) Predicate {
	return func(rec map[string]any) bool { return recordkit.LookupBool(rec, path) }
}

// WhenEquals builds a predicate that is true when the string at path equals
// want.
func WhenEquals(path, want string) Predicate {
	return func(rec map[string]any) bool { return recordkit.LookupString(rec, path) == want }
}

type fieldDef struct {
	name        string
	ad          Adapter
	required    bool
	visible     Predicate
	defOverride any
	hasOverride bool
}

type condRequire struct {
	path string
	name string
	pred Predicate
}

type recordRule struct {
	name string
	fn   func(ctx context.Context, rec map[string]any) recordkit.Issues
	deps []string
}

// Builder accumulates a record-type declaration. Field order is declaration
// order and drives both Fields() and issue ordering.
type Builder struct {
	fields      []fieldDef
	index       map[string]int
	conds       []condRequire
	rules       []recordRule
	strict      bool
	passthrough []string
	errs        []string
}

// Object creates a new record-schema builder. Unknown keys are stripped by
// default; the server may decorate records with attributes the client never
// declared.
func Object() *Builder {
	return &Builder{index: map[string]int{}}
}

// FieldStep scopes chained options to the field just declared, then yields
// back to the builder, mirroring how a paper form reads: field, then its
// qualifiers.
type FieldStep struct {
	b   *Builder
	idx int
}

// Field registers a field with its adapter.
func (b *Builder) Field(name string, ad Adapter) *FieldStep {
	if _, dup := b.index[name]; dup {
		b.errs = append(b.errs, fmt.Sprintf("duplicate field %q", name))
	} else {
		b.index[name] = len(b.fields)
	}
	b.fields = append(b.fields, fieldDef{name: name, ad: ad})
	return &FieldStep{b: b, idx: len(b.fields) - 1}
}

// Required marks the field as required: after coercion its value must be
// non-empty (strings) or non-empty (lists).
func (f *FieldStep) Required() *Builder {
	f.b.fields[f.idx].required = true
	return f.b
}

// Default overrides the adapter's neutral default. The value is normalized
// through the field adapter at Build time, so a bad default fails fast.
func (f *FieldStep) Default(v any) *Builder {
	f.b.fields[f.idx].defOverride = v
	f.b.fields[f.idx].hasOverride = true
	return f.b
}

// VisibleWhen attaches the display-relevance predicate renderers consult.
// Validation does not read it; a hidden field still validates, which is why
// conditional requirements are declared with RequireWhen instead.
func (f *FieldStep) VisibleWhen(pred Predicate) *Builder {
	f.b.fields[f.idx].visible = pred
	return f.b
}

// Field chains a new field declaration from a field step.
func (f *FieldStep) Field(name string, ad Adapter) *FieldStep { return f.b.Field(name, ad) }

// RequireWhen proxies the builder-level declaration.
func (f *FieldStep) RequireWhen(path, name string, pred Predicate) *Builder {
	return f.b.RequireWhen(path, name, pred)
}

// Rule proxies the builder-level declaration.
func (f *FieldStep) Rule(name string, fn func(ctx context.Context, rec map[string]any) recordkit.Issues, dependsOn ...string) *Builder {
	return f.b.Rule(name, fn, dependsOn...)
}

// Passthrough proxies the builder-level declaration.
func (f *FieldStep) Passthrough(names ...string) *Builder { return f.b.Passthrough(names...) }

// UnknownStrict proxies the builder-level declaration.
func (f *FieldStep) UnknownStrict() *Builder { return f.b.UnknownStrict() }

// Build proxies the builder-level Build.
func (f *FieldStep) Build() (recordkit.Schema, error) { return f.b.Build() }

// MustBuild proxies the builder-level MustBuild.
func (f *FieldStep) MustBuild() recordkit.Schema { return f.b.MustBuild() }

// RequireWhen declares a conditional requirement: when pred(record) holds,
// the string at path must be non-empty. The path may address a nested
// field; it is checked against the declared tree at Build time, so a typo
// is a build failure, not a silently dead rule.
func (b *Builder) RequireWhen(path, name string, pred Predicate) *Builder {
	b.conds = append(b.conds, condRequire{path: path, name: name, pred: pred})
	return b
}

// Rule adds a whole-record rule evaluated after every field coerced.
// dependsOn lists the dot paths whose single-field re-validation should
// re-run this rule.
func (b *Builder) Rule(name string, fn func(ctx context.Context, rec map[string]any) recordkit.Issues, dependsOn ...string) *Builder {
	b.rules = append(b.rules, recordRule{name: name, fn: fn, deps: dependsOn})
	return b
}

// Passthrough names server-owned attributes (id, audit columns) that are
// copied through untouched instead of being stripped as unknown.
func (b *Builder) Passthrough(names ...string) *Builder {
	b.passthrough = append(b.passthrough, names...)
	return b
}

// UnknownStrict makes undeclared keys an unknown_key issue instead of being
// stripped.
func (b *Builder) UnknownStrict() *Builder {
	b.strict = true
	return b
}

// Build validates the declaration and returns the schema. Declaration
// mistakes (duplicate fields, a rule referencing an undeclared path, a
// default that fails its own field's validation) are reported here, never
// deferred to runtime.
func (b *Builder) Build() (recordkit.Schema, error) {
	errs := append([]string(nil), b.errs...)

	o := &objectSchema{
		fields:      append([]fieldDef(nil), b.fields...),
		index:       make(map[string]int, len(b.index)),
		conds:       append([]condRequire(nil), b.conds...),
		rules:       append([]recordRule(nil), b.rules...),
		strict:      b.strict,
		passthrough: make(map[string]struct{}, len(b.passthrough)),
	}
	for k, v := range b.index {
		o.index[k] = v
	}
	for _, p := range b.passthrough {
		o.passthrough[p] = struct{}{}
	}

	// Normalize explicit defaults through their own adapters.
	ctx := context.Background()
	for i := range o.fields {
		fd := &o.fields[i]
		if !fd.hasOverride {
			continue
		}
		v, err := fd.ad.parse(ctx, fd.defOverride)
		if err != nil {
			errs = append(errs, fmt.Sprintf("field %q: default does not validate: %v", fd.name, err))
			continue
		}
		fd.defOverride = v
	}

	// Every declared rule path must resolve in the defaults tree.
	defaults := o.Defaults()
	for _, c := range o.conds {
		if _, ok := recordkit.Lookup(defaults, c.path); !ok {
			errs = append(errs, fmt.Sprintf("rule %q references undeclared path %q", c.name, c.path))
		}
	}
	for _, r := range o.rules {
		for _, dep := range r.deps {
			if _, ok := recordkit.Lookup(defaults, dep); !ok {
				errs = append(errs, fmt.Sprintf("rule %q depends on undeclared path %q", r.name, dep))
			}
		}
	}

	if len(errs) > 0 {
		return nil, recordkit.Issues{{Path: "", Code: recordkit.CodeSchemaError, Message: strings.Join(errs, "; ")}}
	}
	return o, nil
}

// MustBuild is like Build but panics on error. Record declarations are
// package-level, so a malformed schema fails at init.
func (b *Builder) MustBuild() recordkit.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// ---- engine ----

type objectSchema struct {
	fields      []fieldDef
	index       map[string]int
	conds       []condRequire
	rules       []recordRule
	strict      bool
	passthrough map[string]struct{}
}

var _ recordkit.Schema = (*objectSchema)(nil)

func (fd *fieldDef) defaultValue() any {
	if fd.hasOverride {
		return cloneAny(fd.defOverride)
	}
	return fd.ad.def()
}

func (o *objectSchema) Defaults() map[string]any {
	out := make(map[string]any, len(o.fields))
	for i := range o.fields {
		fd := &o.fields[i]
		out[fd.name] = fd.defaultValue()
	}
	return out
}

func (o *objectSchema) Merge(fetched map[string]any) map[string]any {
	out := o.Defaults()
	for k, fv := range fetched {
		if fv == nil {
			continue
		}
		if _, pass := o.passthrough[k]; pass {
			out[k] = cloneAny(fv)
			continue
		}
		i, known := o.index[k]
		if !known {
			continue
		}
		fd := &o.fields[i]
		switch fd.ad.kind {
		case recordkit.KindObject:
			if m, ok := fv.(map[string]any); ok {
				out[k] = fd.ad.sub.Merge(m)
			}
		case recordkit.KindList:
			items, ok := fv.([]any)
			if !ok {
				continue
			}
			merged := make([]any, 0, len(items))
			for _, it := range items {
				if m, ok := it.(map[string]any); ok && fd.ad.elem != nil && fd.ad.elem.kind == recordkit.KindObject {
					em := fd.ad.elem.sub.Merge(m)
					if key, _ := m[RowKey].(string); key != "" {
						em[RowKey] = key
					}
					merged = append(merged, em)
					continue
				}
				merged = append(merged, cloneAny(it))
			}
			out[k] = merged
		default:
			out[k] = cloneAny(fv)
		}
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func (o *objectSchema) Validate(ctx context.Context, rec map[string]any) (map[string]any, error) {
	if rec == nil {
		rec = map[string]any{}
	}
	out := make(map[string]any, len(o.fields))
	var iss recordkit.Issues

	for i := range o.fields {
		fd := &o.fields[i]
		raw, exists := rec[fd.name]
		if !exists || raw == nil {
			out[fd.name] = fd.defaultValue()
		} else {
			parsed, err := fd.ad.parse(ctx, raw)
			if err != nil {
				child, ok := recordkit.AsIssues(err)
				if !ok {
					child = recordkit.Issues{{Path: "", Code: recordkit.CodeParseError, Message: err.Error()}}
				}
				iss = recordkit.AppendIssues(iss, recordkit.Rebase(fd.name, child)...)
				if recordkit.IsFailFast(ctx) {
					return nil, iss
				}
				// keep a defined value so later rules read the tree safely
				out[fd.name] = fd.defaultValue()
				continue
			}
			out[fd.name] = parsed
		}
		if fd.required && isEmptyValue(out[fd.name]) {
			iss = recordkit.AppendIssues(iss, recordkit.Issue{
				Path: fd.name, Code: recordkit.CodeRequired, Message: i18n.T(recordkit.CodeRequired, nil),
			})
			if recordkit.IsFailFast(ctx) {
				return nil, iss
			}
		}
	}

	// Undeclared keys: audit passthrough, strict complaint, or strip.
	var unknown []string
	for k := range rec {
		if _, known := o.index[k]; known {
			continue
		}
		if _, pass := o.passthrough[k]; pass {
			out[k] = cloneAny(rec[k])
			continue
		}
		if o.strict {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		iss = recordkit.AppendIssues(iss, recordkit.Issue{
			Path: k, Code: recordkit.CodeUnknownKey, Message: i18n.T(recordkit.CodeUnknownKey, nil),
		})
		if recordkit.IsFailFast(ctx) {
			return nil, iss
		}
	}

	iss = recordkit.AppendIssues(iss, o.conditionalIssues(out, "")...)
	if recordkit.IsFailFast(ctx) && len(iss) > 0 {
		return nil, iss
	}
	iss = recordkit.AppendIssues(iss, o.ruleIssues(ctx, out, nil)...)

	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// conditionalIssues evaluates RequireWhen declarations against a
// post-coercion record. onlyPath narrows evaluation for single-field
// re-validation.
func (o *objectSchema) conditionalIssues(rec map[string]any, onlyPath string) recordkit.Issues {
	var iss recordkit.Issues
	for _, c := range o.conds {
		if onlyPath != "" && c.path != onlyPath {
			continue
		}
		if !c.pred(rec) {
			continue
		}
		if recordkit.LookupString(rec, c.path) != "" {
			continue
		}
		iss = recordkit.AppendIssues(iss, recordkit.Issue{
			Path: c.path, Code: recordkit.CodeRequired, Message: i18n.T(recordkit.CodeRequired, nil), Rule: c.name,
		})
	}
	return iss
}

func (o *objectSchema) ruleIssues(ctx context.Context, rec map[string]any, onlyDep []string) recordkit.Issues {
	var iss recordkit.Issues
	for _, r := range o.rules {
		if onlyDep != nil && !ruleDependsOnAny(r, onlyDep) {
			continue
		}
		out := r.fn(ctx, rec)
		for _, it := range out {
			it.Rule = r.name
			iss = recordkit.AppendIssues(iss, it)
		}
		if recordkit.IsFailFast(ctx) && len(iss) > 0 {
			return iss
		}
	}
	return iss
}

func ruleDependsOnAny(r recordRule, paths []string) bool {
	for _, dep := range r.deps {
		for _, p := range paths {
			if dep == p || strings.HasPrefix(p, dep+".") {
				return true
			}
		}
	}
	return false
}

func (o *objectSchema) ValidateField(ctx context.Context, rec map[string]any, path string) error {
	if rec == nil {
		rec = map[string]any{}
	}
	top := path
	if i := strings.IndexByte(path, '.'); i >= 0 {
		top = path[:i]
	}
	fi, known := o.index[top]
	if !known {
		return recordkit.Issues{{Path: path, Code: recordkit.CodeSchemaError, Message: "path not declared: " + path}}
	}
	fd := &o.fields[fi]

	var iss recordkit.Issues
	raw, exists := rec[fd.name]
	if exists && raw != nil {
		if _, err := fd.ad.parse(ctx, raw); err != nil {
			if child, ok := recordkit.AsIssues(err); ok {
				for _, it := range recordkit.Rebase(fd.name, child) {
					if it.Path == path || strings.HasPrefix(it.Path, path+".") {
						iss = recordkit.AppendIssues(iss, it)
					}
				}
			}
		}
	}
	if fd.required && top == path && (!exists || isEmptyValue(raw)) {
		iss = recordkit.AppendIssues(iss, recordkit.Issue{
			Path: path, Code: recordkit.CodeRequired, Message: i18n.T(recordkit.CodeRequired, nil),
		})
	}

	// Conditional requirements and dependent record rules see the merged
	// post-default view of the whole record.
	merged := o.Merge(rec)
	iss = recordkit.AppendIssues(iss, o.conditionalIssues(merged, path)...)
	iss = recordkit.AppendIssues(iss, o.ruleIssues(ctx, merged, []string{path})...)

	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (o *objectSchema) Fields() []recordkit.FieldInfo {
	out := make([]recordkit.FieldInfo, 0, len(o.fields))
	for i := range o.fields {
		fd := &o.fields[i]
		info := recordkit.FieldInfo{
			Name:     fd.name,
			Path:     fd.name,
			Kind:     fd.ad.kind,
			Required: fd.required,
			Options:  fd.ad.options,
		}
		if fd.visible != nil {
			pred := fd.visible
			info.VisibleWhen = func(rec map[string]any) bool { return pred(rec) }
		}
		switch fd.ad.kind {
		case recordkit.KindObject:
			info.Children = rebaseInfos(fd.name, fd.ad.sub.Fields())
		case recordkit.KindList:
			if fd.ad.elem != nil && fd.ad.elem.kind == recordkit.KindObject {
				// element paths stay relative to one element
				info.Children = fd.ad.elem.sub.Fields()
			}
		}
		out = append(out, info)
	}
	return out
}

func rebaseInfos(prefix string, infos []recordkit.FieldInfo) []recordkit.FieldInfo {
	out := make([]recordkit.FieldInfo, len(infos))
	for i, in := range infos {
		in.Path = recordkit.JoinPath(prefix, in.Path)
		if in.Kind == recordkit.KindObject {
			in.Children = rebaseInfos(prefix, in.Children)
		}
		out[i] = in
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneAny(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneAny(e)
		}
		return out
	default:
		return v
	}
}
