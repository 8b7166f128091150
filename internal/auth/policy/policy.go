package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRow is applied to any department without a row of its own.
const DefaultRow = "default"

var ErrInvalidTable = errors.New("policy: invalid permission table")

//go:embed policy.yaml
var embeddedTable []byte

// Policy is an immutable department x action permission table. It is safe
// for concurrent use.
type Policy struct {
	rows    map[string]map[Action]bool
	aliases map[string]string
}

type document struct {
	Aliases     map[string]string          `yaml:"aliases"`
	Departments map[string]map[string]bool `yaml:"departments"`
}

// Default returns the table shipped with the binary.
func Default() *Policy {
	p, err := Parse(embeddedTable)
	if err != nil {
		panic(fmt.Sprintf("policy: embedded table is broken: %v", err))
	}
	return p
}

// LoadFile reads an operator supplied table. It is held to the same rules as
// the embedded one.
func LoadFile(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML permission table. A table is rejected
// unless it has a default row and every row lists every known action.
func Parse(raw []byte) (*Policy, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	p := &Policy{
		rows:    make(map[string]map[Action]bool, len(doc.Departments)),
		aliases: make(map[string]string, len(doc.Aliases)),
	}

	for name, entries := range doc.Departments {
		dept := normalize(name)
		if dept == "" {
			return nil, fmt.Errorf("%w: empty department name", ErrInvalidTable)
		}
		if _, dup := p.rows[dept]; dup {
			return nil, fmt.Errorf("%w: department %q listed twice", ErrInvalidTable, dept)
		}

		row := make(map[Action]bool, len(allActions))
		for key, allowed := range entries {
			a := Action(key)
			if !a.Known() {
				return nil, fmt.Errorf("%w: department %q: unknown action %q", ErrInvalidTable, dept, key)
			}
			row[a] = allowed
		}
		for _, a := range allActions {
			if _, ok := row[a]; !ok {
				return nil, fmt.Errorf("%w: department %q: missing action %q", ErrInvalidTable, dept, a)
			}
		}
		p.rows[dept] = row
	}

	if _, ok := p.rows[DefaultRow]; !ok {
		return nil, fmt.Errorf("%w: no %q row", ErrInvalidTable, DefaultRow)
	}

	for alias, target := range doc.Aliases {
		alias, target = normalize(alias), normalize(target)
		if _, ok := p.rows[target]; !ok {
			return nil, fmt.Errorf("%w: alias %q points at unknown department %q", ErrInvalidTable, alias, target)
		}
		if _, ok := p.rows[alias]; ok {
			return nil, fmt.Errorf("%w: alias %q shadows a department", ErrInvalidTable, alias)
		}
		p.aliases[alias] = target
	}

	return p, nil
}

// CanPerform reports whether members of department may perform action.
// Unknown departments get the default row, unknown actions are denied.
func (p *Policy) CanPerform(department string, action Action) bool {
	if p == nil || !action.Known() {
		return false
	}
	row, ok := p.rows[p.resolve(department)]
	if !ok {
		row = p.rows[DefaultRow]
	}
	return row[action]
}

// Allowed returns the actions granted to department, in display order.
func (p *Policy) Allowed(department string) []Action {
	var out []Action
	for _, a := range allActions {
		if p.CanPerform(department, a) {
			out = append(out, a)
		}
	}
	return out
}

// Departments returns the department rows, default last.
func (p *Policy) Departments() []string {
	out := make([]string, 0, len(p.rows))
	for name := range p.rows {
		if name != DefaultRow {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return append(out, DefaultRow)
}

// HasRow reports whether department (or its alias) has a row of its own.
func (p *Policy) HasRow(department string) bool {
	dept := p.resolve(department)
	_, ok := p.rows[dept]
	return ok && dept != DefaultRow
}

func (p *Policy) resolve(department string) string {
	dept := normalize(department)
	if target, ok := p.aliases[dept]; ok {
		return target
	}
	return dept
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
