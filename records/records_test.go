package records_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	rk "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/records"
)

// every declared path must resolve in the defaults tree, so display
// bindings and rules never read an undefined value
func TestDefaults_CoverEveryDeclaredPath(t *testing.T) {
	for name, e := range records.Registry() {
		def := e.Schema.Defaults()
		var walk func(infos []rk.FieldInfo)
		walk = func(infos []rk.FieldInfo) {
			for _, fi := range infos {
				if _, ok := rk.Lookup(def, fi.Path); !ok {
					t.Errorf("%s: path %s undefined in defaults", name, fi.Path)
				}
				if fi.Kind == rk.KindObject {
					walk(fi.Children)
				}
				// list element paths are relative to an element; nothing to
				// resolve while the default list is empty
			}
		}
		walk(e.Schema.Fields())
	}
}

func TestValidate_Deterministic(t *testing.T) {
	sch := records.AboveGround()
	ctx := context.Background()
	rec := map[string]any{
		"plansAndInstructions": map[string]any{
			"plans": map[string]any{"conformsToAcceptedPlans": false},
		},
		"hydrostaticTest": map[string]any{"pressurePsi": "abc"},
	}

	_, err1 := sch.Validate(ctx, rec)
	_, err2 := sch.Validate(ctx, rec)
	iss1, _ := rk.AsIssues(err1)
	iss2, _ := rk.AsIssues(err2)
	if len(iss1) == 0 {
		t.Fatalf("expected issues")
	}
	for i := range iss1 {
		if iss1[i].Path != iss2[i].Path || iss1[i].Code != iss2[i].Code {
			t.Fatalf("runs differ at %d: %v vs %v", i, iss1[i], iss2[i])
		}
	}
}

func TestAboveGround_PlanDeviationExplanation(t *testing.T) {
	sch := records.AboveGround()
	ctx := context.Background()

	rec := map[string]any{
		"propertyDetails": map[string]any{"propertyName": "Central City Mall"},
		"plansAndInstructions": map[string]any{
			"plans": map[string]any{
				"conformsToAcceptedPlans": false,
				"deviationsExplanation":   "",
			},
		},
	}
	_, err := sch.Validate(ctx, rec)
	iss, _ := rk.AsIssues(err)
	if len(iss) != 1 || iss[0].Path != "plansAndInstructions.plans.deviationsExplanation" {
		t.Fatalf("expected exactly one issue at the explanation path, got %v", iss)
	}

	rec["plansAndInstructions"].(map[string]any)["plans"].(map[string]any)["conformsToAcceptedPlans"] = true
	if _, err := sch.Validate(ctx, rec); err != nil {
		t.Fatalf("conforming plan needs no explanation, got %v", err)
	}
}

func TestAboveGround_PressureCoercion(t *testing.T) {
	sch := records.AboveGround()
	ctx := context.Background()

	out, err := sch.Validate(ctx, map[string]any{
		"propertyDetails": map[string]any{"propertyName": "Central City Mall"},
		"hydrostaticTest": map[string]any{"pressurePsi": "200"},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	v, _ := rk.Lookup(out, "hydrostaticTest.pressurePsi")
	if f, ok := v.(float64); !ok || f != 200 {
		t.Fatalf("expected number 200, got %T %v", v, v)
	}

	_, err = sch.Validate(ctx, map[string]any{
		"propertyDetails": map[string]any{"propertyName": "Central City Mall"},
		"hydrostaticTest": map[string]any{"pressurePsi": "abc"},
	})
	iss, _ := rk.AsIssues(err)
	if len(iss) != 1 || iss[0].Path != "hydrostaticTest.pressurePsi" || iss[0].Code != rk.CodeInvalidType {
		t.Fatalf("expected invalid_type at pressurePsi, got %v", iss)
	}
}

func TestAboveGround_OptionalListsAndSubfields(t *testing.T) {
	sch := records.AboveGround()
	ctx := context.Background()

	// empty dry-pipe list is fine
	rec := map[string]any{
		"propertyDetails": map[string]any{"propertyName": "Central City Mall"},
		"alarmsAndValves": map[string]any{"dryPipeOperatingTests": []any{}},
	}
	if _, err := sch.Validate(ctx, rec); err != nil {
		t.Fatalf("empty list should pass, got %v", err)
	}

	// a dry-pipe entry without dryValve.make is still fine: sub-fields
	// default to "" and are not required
	rec["alarmsAndValves"] = map[string]any{
		"dryPipeOperatingTests": []any{
			map[string]any{"timeToTripSeconds": "42"},
		},
	}
	out, err := sch.Validate(ctx, rec)
	if err != nil {
		t.Fatalf("entry with defaults should pass, got %v", err)
	}
	if v, ok := rk.Lookup(out, "alarmsAndValves.dryPipeOperatingTests.0.dryValve.make"); !ok || v != "" {
		t.Fatalf("dryValve.make should default to empty, got %v ok=%v", v, ok)
	}
}

func TestDepartment_AllowedFormsPermissive(t *testing.T) {
	sch := records.Department()
	out, err := sch.Validate(context.Background(), map[string]any{
		"name":         "Inspections",
		"allowedForms": []any{"above_ground_tests", "not_a_real_form_id"},
	})
	if err != nil {
		t.Fatalf("unknown form ids are the server's problem, got %v", err)
	}
	forms, _ := rk.Lookup(out, "allowedForms")
	if !reflect.DeepEqual(forms, []any{"above_ground_tests", "not_a_real_form_id"}) {
		t.Fatalf("list mangled: %v", forms)
	}
}

func TestWorkOrder_CompletedNeedsDate(t *testing.T) {
	sch := records.WorkOrder()
	ctx := rk.WithNow(context.Background(), time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	base := map[string]any{
		"customerID":  "c-9",
		"description": "annual inspection",
	}

	base["status"] = "completed"
	_, err := sch.Validate(ctx, base)
	iss, _ := rk.AsIssues(err)
	if len(iss) != 1 || iss[0].Path != "completedDate" || iss[0].Rule != "completed_needs_date" {
		t.Fatalf("expected completedDate requirement, got %v", iss)
	}

	base["completedDate"] = "2026-01-15"
	if _, err := sch.Validate(ctx, base); err != nil {
		t.Fatalf("dated completion should pass, got %v", err)
	}

	base["status"] = "open"
	delete(base, "completedDate")
	if _, err := sch.Validate(ctx, base); err != nil {
		t.Fatalf("open order needs no completion date, got %v", err)
	}
}

func TestUnderground_LeakageRule(t *testing.T) {
	sch := records.Underground()
	ctx := context.Background()
	rec := map[string]any{
		"propertyDetails": map[string]any{"propertyName": "Pier 9"},
		"leakageTest": map[string]any{
			"allowedGallonsPerHour":  "2.5",
			"measuredGallonsPerHour": "4",
		},
	}
	_, err := sch.Validate(ctx, rec)
	iss, _ := rk.AsIssues(err)
	if len(iss) != 1 || iss[0].Path != "leakageTest.measuredGallonsPerHour" {
		t.Fatalf("expected leakage issue, got %v", iss)
	}

	rec["leakageTest"].(map[string]any)["measuredGallonsPerHour"] = "2"
	if _, err := sch.Validate(ctx, rec); err != nil {
		t.Fatalf("within allowance should pass, got %v", err)
	}
}

func TestRegistry_KnowsEveryResource(t *testing.T) {
	want := []string{
		"above_ground_tests", "underground_tests", "alarm_monitoring_records",
		"work_orders", "service_tickets", "users", "departments", "customers",
	}
	if got := records.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("registry names: %v", got)
	}
	if _, ok := records.Lookup("above_ground_tests"); !ok {
		t.Fatalf("lookup failed")
	}
}

func TestFormOptions_Embedded(t *testing.T) {
	opts := records.FormOptions()
	if len(opts.Forms) == 0 {
		t.Fatalf("no forms in catalog")
	}
	if opts.Forms[0].ID != "above_ground_tests" {
		t.Fatalf("unexpected first form: %+v", opts.Forms[0])
	}
	if got := opts.Enums["work_order_status"]; len(got) != 4 || got[0] != "open" {
		t.Fatalf("work order statuses: %v", got)
	}
}
