package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRecord(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "record.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestValidate_ExitCodes(t *testing.T) {
	valid := writeRecord(t, `{"name": "Inspections", "allowedForms": ["above_ground_tests"]}`)
	if code := run([]string{"validate", "-r", "departments", "-f", valid}); code != exitOK {
		t.Fatalf("valid record: exit %d", code)
	}

	invalid := writeRecord(t, `{"allowedForms": []}`)
	if code := run([]string{"validate", "-r", "departments", "-f", invalid}); code != exitFail {
		t.Fatalf("invalid record: exit %d", code)
	}

	if code := run([]string{"validate", "-r", "departments"}); code != exitUsage {
		t.Fatalf("missing file: exit %d", code)
	}
	if code := run([]string{"validate", "-r", "nope", "-f", valid}); code != exitUsage {
		t.Fatalf("unknown resource: exit %d", code)
	}
	if code := run([]string{"frobnicate"}); code != exitUsage {
		t.Fatalf("unknown command: exit %d", code)
	}
	if code := run(nil); code != exitUsage {
		t.Fatalf("no args: exit %d", code)
	}
}

func TestResources_ListsRegistry(t *testing.T) {
	if code := run([]string{"resources"}); code != exitOK {
		t.Fatalf("resources: exit %d", code)
	}
}

func TestList_RequiresBaseURL(t *testing.T) {
	t.Setenv("RECORDKIT_BASE_URL", "")
	if code := run([]string{"list", "-r", "work_orders"}); code != exitUsage {
		t.Fatalf("missing base url: exit %d", code)
	}
}
