package records

import (
	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/schema"
)

// AboveGround is the above-ground sprinkler-system test report. The section
// layout follows the regulatory paper form: property header, plans and
// instructions, installed sprinklers, hydrostatic test, alarms and valves,
// free-form remarks.
func AboveGround() recordkit.Schema {
	plans := schema.Object().
		Field("conformsToAcceptedPlans", schema.Bool()).Default(true).
		Field("equipmentApproved", schema.Bool()).Default(true).
		Field("deviationsExplanation", schema.String()).
		VisibleWhen(schema.WhenFalse("conformsToAcceptedPlans")).
		RequireWhen("deviationsExplanation", "explain_plan_deviations",
			schema.WhenFalse("conformsToAcceptedPlans")).
		MustBuild()

	instructions := schema.Object().
		Field("componentsLeftInPlace", schema.Bool()).Default(true).
		Field("explanation", schema.String()).
		VisibleWhen(schema.WhenFalse("componentsLeftInPlace")).
		RequireWhen("explanation", "explain_removed_components",
			schema.WhenFalse("componentsLeftInPlace")).
		MustBuild()

	sprinkler := schema.Object().
		Field("make", schema.String()).
		Field("model", schema.String()).
		Field("yearOfManufacture", schema.Int().Min(1900)).
		Field("orificeSize", schema.String()).
		Field("quantity", schema.Int().Min(0)).
		Field("temperatureRating", schema.String()).
		MustBuild()

	dryValve := schema.Object().
		Field("make", schema.String()).
		Field("model", schema.String()).
		Field("serialNumber", schema.String()).
		MustBuild()

	dryPipeTest := schema.Object().
		Field("dryValve", schema.ObjectOf(dryValve)).
		Field("timeToTripSeconds", schema.Number().Min(0)).
		Field("waterPressurePsi", schema.Number().Min(0)).
		Field("airPressurePsi", schema.Number().Min(0)).
		Field("tripPointAirPressurePsi", schema.Number().Min(0)).
		MustBuild()

	alarms := schema.Object().
		Field("alarmOperatedProperly", schema.Bool()).Default(true).
		Field("dryPipeOperatingTests", schema.ArrayOf(schema.ObjectOf(dryPipeTest))).
		MustBuild()

	return schema.Object().
		Field("propertyDetails", schema.ObjectOf(propertyDetails())).
		Field("plansAndInstructions", schema.ObjectOf(
			schema.Object().
				Field("plans", schema.ObjectOf(plans)).
				Field("instructions", schema.ObjectOf(instructions)).
				MustBuild())).
		Field("sprinklers", schema.ArrayOf(schema.ObjectOf(sprinkler))).
		Field("hydrostaticTest", schema.ObjectOf(hydrostaticTest())).
		Field("alarmsAndValves", schema.ObjectOf(alarms)).
		Field("remarks", schema.String()).
		Passthrough(auditAttrs...).
		MustBuild()
}
