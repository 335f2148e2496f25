package records

import (
	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/schema"
)

const emailPattern = `[^@\s]+@[^@\s]+\.[^@\s]+`

// User is a dashboard operator account.
func User() recordkit.Schema {
	return schema.Object().
		Field("username", schema.String().MinLen(3).Pattern(`[a-z0-9_.-]+`)).Required().
		Field("email", schema.String().Pattern(emailPattern)).Required().
		Field("role", schema.Enum("admin", "office", "technician")).Default("technician").
		Field("active", schema.Bool()).Default(true).
		Passthrough(auditAttrs...).
		MustBuild()
}

// Department groups users and constrains which forms they may file.
// allowedForms is shape-checked only; whether an id names a real form is
// the server's call.
func Department() recordkit.Schema {
	return schema.Object().
		Field("name", schema.String().NonEmpty()).Required().
		Field("allowedForms", schema.ArrayOf(schema.String())).
		Passthrough(auditAttrs...).
		MustBuild()
}

// Customer is a billing/inspection customer with its contact roster.
func Customer() recordkit.Schema {
	contact := schema.Object().
		Field("name", schema.String()).
		Field("phone", schema.String().Pattern(`[0-9+() .-]{7,20}`)).
		Field("email", schema.String().Pattern(emailPattern)).
		MustBuild()

	return schema.Object().
		Field("name", schema.String().NonEmpty()).Required().
		Field("billingAddress", schema.String()).
		Field("contacts", schema.ArrayOf(schema.ObjectOf(contact))).
		Passthrough(auditAttrs...).
		MustBuild()
}
