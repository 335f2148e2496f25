package records

import (
	"fmt"
	"sync"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/rest"
)

// Entry binds one resource name to its schema and display label.
type Entry struct {
	Name   string // REST path segment under /admin/.
	Label  string
	Schema recordkit.Schema
}

var (
	registryOnce sync.Once
	registry     map[string]Entry
	registryKeys []string
)

func buildRegistry() {
	entries := []Entry{
		{Name: "above_ground_tests", Label: "Above-Ground Sprinkler Test", Schema: AboveGround()},
		{Name: "underground_tests", Label: "Underground Piping Test", Schema: Underground()},
		{Name: "alarm_monitoring_records", Label: "Alarm Monitoring Record", Schema: AlarmMonitoring()},
		{Name: "work_orders", Label: "Work Order", Schema: WorkOrder()},
		{Name: "service_tickets", Label: "Service Ticket", Schema: ServiceTicket()},
		{Name: "users", Label: "User", Schema: User()},
		{Name: "departments", Label: "Department", Schema: Department()},
		{Name: "customers", Label: "Customer", Schema: Customer()},
	}
	registry = make(map[string]Entry, len(entries))
	for _, e := range entries {
		registry[e.Name] = e
		registryKeys = append(registryKeys, e.Name)
	}
}

// Registry returns every known resource, keyed by name.
func Registry() map[string]Entry {
	registryOnce.Do(buildRegistry)
	out := make(map[string]Entry, len(registry))
	for k, v := range registry {
		out[k] = v
	}
	return out
}

// Names returns the resource names in registration order.
func Names() []string {
	registryOnce.Do(buildRegistry)
	return append([]string(nil), registryKeys...)
}

// Lookup resolves one resource by name.
func Lookup(name string) (Entry, bool) {
	registryOnce.Do(buildRegistry)
	e, ok := registry[name]
	return e, ok
}

// Resource binds a registered record type to a REST client.
func Resource(c *rest.Client, name string) (*rest.Resource, error) {
	e, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (known: %v)", name, Names())
	}
	return c.Resource(e.Name, e.Schema), nil
}
