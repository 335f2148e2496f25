package records

import (
	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/schema"
)

// AlarmMonitoring is the alarm monitoring and transmission test record.
func AlarmMonitoring() recordkit.Schema {
	transmitter := schema.Object().
		Field("location", schema.String()).
		Field("signalType", schema.Enum("fire", "supervisory", "trouble")).
		Field("receivedByMonitoring", schema.Bool()).Default(true).
		MustBuild()

	return schema.Object().
		Field("propertyDetails", schema.ObjectOf(propertyDetails())).
		Field("monitoringCompany", schema.String()).Required().
		Field("accountNumber", schema.String()).
		Field("testDate", schema.Date().NotInFuture()).
		Field("transmitters", schema.ArrayOf(schema.ObjectOf(transmitter))).
		Field("alarmOperatedProperly", schema.Bool()).Default(true).
		Field("explanation", schema.String()).
		VisibleWhen(schema.WhenFalse("alarmOperatedProperly")).
		RequireWhen("explanation", "explain_alarm_failure",
			schema.WhenFalse("alarmOperatedProperly")).
		Field("remarks", schema.String()).
		Passthrough(auditAttrs...).
		MustBuild()
}
