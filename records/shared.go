package records

import (
	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/schema"
)

// auditAttrs are server-owned columns present on every resource.
var auditAttrs = []string{"id", "createdAt", "updatedAt", "createdBy"}

// propertyDetails is the header section shared by every test-report form:
// which property was inspected, where it is, and when the work happened.
func propertyDetails() recordkit.Schema {
	return schema.Object().
		Field("propertyName", schema.String()).Required().
		Field("address", schema.String()).
		Field("city", schema.String()).
		Field("state", schema.String().MaxLen(2)).
		Field("zip", schema.String().Pattern(`\d{5}(-\d{4})?`)).
		Field("dateOfWork", schema.Date().NotInFuture()).
		MustBuild()
}

// hydrostaticTest records the pressure test section common to the
// above-ground and underground forms. Pressure arrives as widget text and
// coerces to a number before the range check.
func hydrostaticTest() recordkit.Schema {
	return schema.Object().
		Field("pressurePsi", schema.Number().Min(0)).
		Field("durationHours", schema.Number().Min(0)).
		Field("result", schema.Enum("pass", "fail")).
		MustBuild()
}
