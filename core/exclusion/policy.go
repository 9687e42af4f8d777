package exclusion

import (
	"sort"
	"strings"
)

// Kind identifies the object family an exclusion rule applies to.
type Kind string

const (
	Databases Kind = "databases"
	Schemas   Kind = "schemas"
	Roles     Kind = "roles"
)

// Policy is a static, case-insensitive exact-name filter per kind.
// The zero value excludes nothing.
type Policy struct {
	rules map[Kind]map[string]struct{}
}

// NewPolicy builds a policy from configuration.
func NewPolicy(cfg Config) Policy {
	p := Policy{rules: make(map[Kind]map[string]struct{})}
	p.add(Databases, cfg.Databases)
	p.add(Schemas, cfg.Schemas)
	p.add(Roles, cfg.Roles)
	return p
}

func (p Policy) add(kind Kind, names []string) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	p.rules[kind] = set
}

// Excludes reports whether name is a known system object of the given kind.
func (p Policy) Excludes(kind Kind, name string) bool {
	set, ok := p.rules[kind]
	if !ok {
		return false
	}
	_, hit := set[strings.ToLower(name)]
	return hit
}

// Names returns the configured names for a kind, lower-cased and sorted.
func (p Policy) Names(kind Kind) []string {
	out := make([]string, 0, len(p.rules[kind]))
	for n := range p.rules[kind] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
