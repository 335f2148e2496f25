package records

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed options.yaml
var optionsYAML []byte

// FormOption is one selectable form in the canonical catalog.
type FormOption struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Options is the canonical form/option catalog embedded with the library.
// It feeds pickers and display labels; client-side validation deliberately
// does not enforce membership against it (the server is authoritative, and
// a stale client must not reject ids the server already accepts).
type Options struct {
	Forms []FormOption        `yaml:"forms"`
	Enums map[string][]string `yaml:"enums"`
}

var (
	optionsOnce sync.Once
	options     Options
)

// FormOptions returns the embedded catalog. The YAML ships inside the
// binary, so a parse failure is a build defect and panics.
func FormOptions() Options {
	optionsOnce.Do(func() {
		if err := yaml.Unmarshal(optionsYAML, &options); err != nil {
			panic(fmt.Sprintf("records: embedded options.yaml: %v", err))
		}
	})
	return options
}
