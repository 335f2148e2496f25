// Package middleware validates JSON request bodies against a record schema
// before the handler runs, so a BFF can enforce the exact same rules the
// dashboard applies client-side.
package middleware

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	recordkit "github.com/emberwatch/recordkit"
)

type ctxKeyRecord struct{}

// RecordFromContext retrieves the normalized record stored by ValidateJSON.
func RecordFromContext(ctx context.Context) (map[string]any, bool) {
	rec, ok := ctx.Value(ctxKeyRecord{}).(map[string]any)
	return rec, ok
}

// ValidateJSON decodes the request body, validates it against s, and invokes
// next with the normalized record in the context. A malformed body is a 400;
// validation issues come back as 422 with the path -> message map the form
// layer already understands:
//
//	{"errors": {"plansAndInstructions.plans.deviationsExplanation": "this field is required"}}
func ValidateJSON(s recordkit.Schema, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "malformed JSON body"})
			return
		}
		norm, err := s.Validate(r.Context(), raw)
		if err != nil {
			if iss, ok := recordkit.AsIssues(err); ok {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": iss.ByPath()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": err.Error()})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyRecord{}, norm)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
