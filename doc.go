// Package recordkit is the validated-record core shared by the Emberwatch
// admin products: a declarative description of a record type (fields,
// defaults, validation rules), an engine that turns raw form input into a
// normalized record or an aggregated list of field issues, and a REST
// repository layer with cache invalidation on top of the admin API.
//
// The root package holds the vocabulary every layer speaks: Issue/Issues,
// the Schema contract, context-injected validation options, and the
// defaults deep-merge. Concrete builders live in the schema package; the
// regulatory record types (above-ground sprinkler test, underground piping
// test, and friends) live in the records package; HTTP access lives in rest.
package recordkit
