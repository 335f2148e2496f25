package records

import (
	"context"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/schema"
)

// Underground is the underground piping test report.
func Underground() recordkit.Schema {
	pipes := schema.Object().
		Field("typesOfPipe", schema.String()).
		Field("typesOfJoint", schema.String()).
		Field("conformsToStandard", schema.Bool()).Default(true).
		Field("explanation", schema.String()).
		VisibleWhen(schema.WhenFalse("conformsToStandard")).
		RequireWhen("explanation", "explain_standard_deviations",
			schema.WhenFalse("conformsToStandard")).
		MustBuild()

	flushing := schema.Object().
		Field("newUndergroundFlushed", schema.Bool()).Default(true).
		Field("flowRateGpm", schema.Number().Min(0)).
		Field("howFlowObtained", schema.Enum("hydrant", "open pipe", "other")).
		MustBuild()

	leakage := schema.Object().
		Field("allowedGallonsPerHour", schema.Number().Min(0)).
		Field("measuredGallonsPerHour", schema.Number().Min(0)).
		MustBuild()

	material := schema.Object().
		Field("item", schema.String()).
		Field("manufacturer", schema.String()).
		Field("quantity", schema.Int().Min(0)).
		MustBuild()

	return schema.Object().
		Field("propertyDetails", schema.ObjectOf(propertyDetails())).
		Field("pipesAndJoints", schema.ObjectOf(pipes)).
		Field("flushingTests", schema.ObjectOf(flushing)).
		Field("hydrostaticTest", schema.ObjectOf(hydrostaticTest())).
		Field("leakageTest", schema.ObjectOf(leakage)).
		Field("materials", schema.ArrayOf(schema.ObjectOf(material))).
		Field("remarks", schema.String()).
		Passthrough(auditAttrs...).
		Rule("leakage_within_allowance", leakageWithinAllowance,
			"leakageTest.allowedGallonsPerHour", "leakageTest.measuredGallonsPerHour").
		MustBuild()
}

func leakageWithinAllowance(_ context.Context, rec map[string]any) recordkit.Issues {
	allowed, okA := recordkit.Lookup(rec, "leakageTest.allowedGallonsPerHour")
	measured, okM := recordkit.Lookup(rec, "leakageTest.measuredGallonsPerHour")
	if !okA || !okM {
		return nil
	}
	a, _ := allowed.(float64)
	m, _ := measured.(float64)
	if a > 0 && m > a {
		return recordkit.Issues{{
			Path:    "leakageTest.measuredGallonsPerHour",
			Code:    recordkit.CodeTooBig,
			Message: "measured leakage exceeds the allowed rate",
			Params:  map[string]any{"max": a, "got": m},
		}}
	}
	return nil
}
