package recordkit

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and stable matching).
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeNotInFuture   = "not_in_future"
	CodeTooFewItems   = "too_few_items"
	CodeUnknownKey    = "unknown_key"
	CodeParseError    = "parse_error"
	// SchemaError marks a malformed schema declaration. It is a programming
	// error and surfaces as a Build failure or panic, never as form feedback.
	CodeSchemaError = "schema_error"
)

// Issue represents a single validation entry addressed at one field.
type Issue struct {
	Path    string // Dot path within the record (for example: sprinklers.2.make).
	Code    string // One of the codes listed above.
	Message string
	Hint    string         // Optional: remediation hints, expected formats, etc.
	Params  map[string]any // Structured parameters ({"min":1,"got":42}) for i18n and logs.
	Rule    string         // Optionally records the record-rule name that produced this issue.
}

// Issues is a collection of validation entries that implements error.
// The engine appends issues in schema-declaration order, so the slice order
// is stable across runs for identical input.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// ByPath projects the issues onto a path -> message map for form binding.
// When a path collected several issues, the first one wins; the full slice
// stays available for detail views.
func (iss Issues) ByPath() map[string]string {
	if len(iss) == 0 {
		return nil
	}
	out := make(map[string]string, len(iss))
	for _, it := range iss {
		if _, ok := out[it.Path]; ok {
			continue
		}
		out[it.Path] = it.Message
	}
	return out
}

// At returns the issues recorded for exactly the given path.
func (iss Issues) At(path string) Issues {
	var out Issues
	for _, it := range iss {
		if it.Path == path {
			out = append(out, it)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice
// when needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// JoinPath joins a parent path and a child segment with a dot. An empty
// parent yields the segment itself, so adapters can report issues relative
// to their own root and have the engine rebase them.
func JoinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// Rebase prefixes every issue path with the given parent path.
func Rebase(parent string, iss Issues) Issues {
	if parent == "" || len(iss) == 0 {
		return iss
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = JoinPath(parent, it.Path)
		out[i] = it
	}
	return out
}
