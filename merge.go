package recordkit

// MergeDefaults lays a fetched record over a defaults tree and returns a new
// tree; neither input is mutated. Keys present in fetched win; keys only in
// defaults are kept, so a partial server response never produces an
// undefined nested access. Nested maps merge recursively. Lists are taken
// whole from fetched: element-level defaulting needs the schema and is done
// by Schema.Merge.
func MergeDefaults(defaults, fetched map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(fetched))
	for k, dv := range defaults {
		out[k] = cloneValue(dv)
	}
	for k, fv := range fetched {
		dv, ok := out[k]
		if !ok {
			out[k] = cloneValue(fv)
			continue
		}
		dm, dok := dv.(map[string]any)
		fm, fok := fv.(map[string]any)
		if dok && fok {
			out[k] = MergeDefaults(dm, fm)
			continue
		}
		out[k] = cloneValue(fv)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
