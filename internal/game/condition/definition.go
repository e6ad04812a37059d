package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the static rules payload for one condition kind. Builtin
// defaults cover the standard conditions; YAML files may overlay them for
// house rules.
type Definition struct {
	Kind                 string   `yaml:"kind"`
	Name                 string   `yaml:"name"`
	AttackPenalty        int      `yaml:"attack_penalty"` // subtracted from the owner's attack rolls
	ACPenalty            int      `yaml:"ac_penalty"`     // subtracted from the owner's AC
	SpeedFactor          *float64 `yaml:"speed_factor"`   // movement multiplier; nil = 1.0
	RestrictActions      []string `yaml:"restrict_actions"`
	OutgoingDisadvantage bool     `yaml:"outgoing_disadvantage"` // owner attacks at disadvantage
	OutgoingAdvantage    bool     `yaml:"outgoing_advantage"`
	IncomingAdvantage    bool     `yaml:"incoming_advantage"` // attacks against the owner have advantage
	IncomingDisadvantage bool     `yaml:"incoming_disadvantage"`
}

// Speed returns the movement multiplier, defaulting to 1.
func (d *Definition) Speed() float64 {
	if d.SpeedFactor == nil {
		return 1
	}
	return *d.SpeedFactor
}

// Registry holds Definitions keyed by Kind.
type Registry struct {
	defs map[Kind]*Definition
}

func zero() *float64 { v := 0.0; return &v }

// DefaultRegistry returns a Registry preloaded with the standard rules for
// every builtin condition kind.
func DefaultRegistry() *Registry {
	r := &Registry{defs: make(map[Kind]*Definition)}
	noActions := []string{"attack", "dash", "dodge", "disengage", "reaction"}
	all := append([]string{"move"}, noActions...)

	for kind, def := range map[Kind]*Definition{
		Blinded:       {OutgoingDisadvantage: true, IncomingAdvantage: true},
		Charmed:       {},
		Deafened:      {},
		Frightened:    {OutgoingDisadvantage: true},
		Grappled:      {SpeedFactor: zero()},
		Incapacitated: {RestrictActions: noActions},
		Invisible:     {OutgoingAdvantage: true, IncomingDisadvantage: true},
		Paralyzed:     {RestrictActions: all, SpeedFactor: zero(), IncomingAdvantage: true},
		Petrified:     {RestrictActions: all, SpeedFactor: zero(), IncomingAdvantage: true},
		Poisoned:      {OutgoingDisadvantage: true},
		Prone:         {OutgoingDisadvantage: true, IncomingAdvantage: true},
		Restrained:    {SpeedFactor: zero(), OutgoingDisadvantage: true, IncomingAdvantage: true},
		Stunned:       {RestrictActions: all, SpeedFactor: zero(), IncomingAdvantage: true},
		Unconscious:   {RestrictActions: all, SpeedFactor: zero(), IncomingAdvantage: true},
		Exhaustion:    {OutgoingDisadvantage: true},
		Dodging:       {IncomingDisadvantage: true},
		Disengaging:   {},
	} {
		name := kind.String()
		def.Kind = name
		def.Name = strings.ToUpper(name[:1]) + name[1:]
		r.defs[kind] = def
	}
	return r
}

// Get returns the Definition for kind, or (nil, false).
func (r *Registry) Get(kind Kind) (*Definition, bool) {
	d, ok := r.defs[kind]
	return d, ok
}

// Register adds or replaces the definition for its named kind.
//
// Precondition: def must not be nil and def.Kind must parse.
func (r *Registry) Register(def *Definition) error {
	kind, err := ParseKind(def.Kind)
	if err != nil {
		return err
	}
	r.defs[kind] = def
	return nil
}

// LoadDirectory overlays every *.yaml file in dir onto the registry. Each
// file holds one Definition; unknown fields are rejected.
//
// Precondition: dir must be a readable directory.
// Postcondition: on error the registry is left partially updated only for
// files that parsed before the failure.
func (r *Registry) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("condition: reading definition dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("condition: reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return fmt.Errorf("condition: parsing %q: %w", path, err)
		}
		if err := r.Register(&def); err != nil {
			return fmt.Errorf("condition: %q: %w", path, err)
		}
	}
	return nil
}
