// Package schema builds recordkit.Schema implementations from declarative
// field definitions. A record type is declared once, with its fields,
// defaults, coercion, validation rules and conditional requirements, and the
// engine interprets that declaration for defaults, merging, whole-record
// validation and single-field re-validation.
//
//	sch := schema.Object().
//		Field("propertyName", schema.String().NonEmpty()).Required().
//		Field("dateOfWork", schema.Date().NotInFuture()).
//		Field("sprinklers", schema.ArrayOf(schema.ObjectOf(sprinkler))).
//		MustBuild()
//
// Raw input always comes from form widgets, so numeric adapters coerce from
// strings and report invalid_type instead of producing NaN. Unknown keys are
// stripped unless the builder opts into UnknownStrict; audit attributes the
// server owns are declared with Passthrough.
package schema
