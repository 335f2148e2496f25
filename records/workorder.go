package records

import (
	"context"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/i18n"
	"github.com/emberwatch/recordkit/schema"
)

// WorkOrder is a scheduled job for a customer property.
func WorkOrder() recordkit.Schema {
	return schema.Object().
		Field("customerID", schema.String()).Required().
		Field("departmentID", schema.String()).
		Field("description", schema.String().NonEmpty()).Required().
		Field("status", schema.Enum("open", "scheduled", "completed", "cancelled")).Default("open").
		Field("scheduledDate", schema.Date()).
		Field("completedDate", schema.Date().NotInFuture()).
		VisibleWhen(schema.WhenEquals("status", "completed")).
		Rule("completed_needs_date", completedNeedsDate, "status", "completedDate").
		Passthrough(auditAttrs...).
		MustBuild()
}

func completedNeedsDate(_ context.Context, rec map[string]any) recordkit.Issues {
	if recordkit.LookupString(rec, "status") != "completed" {
		return nil
	}
	if recordkit.LookupString(rec, "completedDate") != "" {
		return nil
	}
	return recordkit.Issues{{
		Path:    "completedDate",
		Code:    recordkit.CodeRequired,
		Message: i18n.T(recordkit.CodeRequired, nil),
	}}
}
