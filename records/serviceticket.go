package records

import (
	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/schema"
)

// ServiceTicket is the field record of work performed against a work order,
// including parts and the customer's signature reference.
func ServiceTicket() recordkit.Schema {
	part := schema.Object().
		Field("description", schema.String()).
		Field("quantity", schema.Int().Min(0)).
		Field("unitPriceCents", schema.Int().Min(0)).
		MustBuild()

	return schema.Object().
		Field("workOrderID", schema.String()).Required().
		Field("technician", schema.String()).
		Field("dateOfService", schema.Date().NotInFuture()).
		Field("laborHours", schema.Number().Min(0)).
		Field("partsUsed", schema.ArrayOf(schema.ObjectOf(part))).
		Field("signatureKey", schema.String()).
		Field("notes", schema.String()).
		Passthrough(auditAttrs...).
		MustBuild()
}
