// Package concentration tracks each caster's single active concentration
// spell and resolves save-or-break checks when the caster takes damage.
package concentration

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Indefinite marks a record with no round duration.
const Indefinite = -1

// Record is one caster's active concentration.
type Record struct {
	Owner     string   `json:"owner"`
	Spell     string   `json:"spell"`
	Targets   []string `json:"targets,omitempty"`
	Remaining int      `json:"remaining"` // rounds left; Indefinite = no duration
}

// CheckResult reports the outcome of a concentration save.
type CheckResult struct {
	Concentrating bool   // false = the owner had nothing to check (no-op)
	Spell         string
	DC            int
	Roll          int // the kept d20 die
	Total         int // die + save modifier
	Held          bool
	Mode          dice.RollMode
}

// Tracker holds at most one Record per caster. It is not safe for
// concurrent use; the caller must serialise access per encounter.
type Tracker struct {
	records map[string]*Record
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{records: make(map[string]*Record)}
}

// Set records a new concentration for owner, unconditionally breaking any
// prior record first. The broken record, if any, is returned so callers can
// surface the silent break.
//
// Postcondition: Get(owner) returns the new record.
func (t *Tracker) Set(owner, spell string, targets []string, duration int) (broken *Record) {
	if prior, ok := t.records[owner]; ok {
		broken = prior
	}
	t.records[owner] = &Record{
		Owner:     owner,
		Spell:     spell,
		Targets:   targets,
		Remaining: duration,
	}
	return broken
}

// Get returns the active record for owner.
func (t *Tracker) Get(owner string) (Record, bool) {
	if r, ok := t.records[owner]; ok {
		return *r, true
	}
	return Record{}, false
}

// Break removes owner's record, returning it. Breaking a non-concentrating
// owner is a reported no-op, never an error.
func (t *Tracker) Break(owner string) (Record, bool) {
	r, ok := t.records[owner]
	if !ok {
		return Record{}, false
	}
	delete(t.records, owner)
	return *r, true
}

// Tick decrements owner's remaining duration by one round; a record
// reaching 0 is removed and reported as expired. Indefinite records and
// non-concentrating owners are untouched.
func (t *Tracker) Tick(owner string) (expired bool) {
	r, ok := t.records[owner]
	if !ok || r.Remaining == Indefinite {
		return false
	}
	r.Remaining--
	if r.Remaining <= 0 {
		delete(t.records, owner)
		return true
	}
	return false
}

// Check resolves the save-or-break roll after owner takes damage.
// DC = max(10, damage/2); the save is a d20 (+saveMod) under mode; failure
// removes the record. A non-concentrating owner yields a no-op result.
//
// Precondition: damage >= 0; src must be non-nil.
// Postcondition: result.Held == false implies Get(owner) reports no record.
func (t *Tracker) Check(owner string, damage, saveMod int, mode dice.RollMode, src dice.Source) CheckResult {
	r, ok := t.records[owner]
	if !ok {
		return CheckResult{Concentrating: false}
	}

	dc := damage / 2
	if dc < 10 {
		dc = 10
	}

	roll := dice.RollD20(saveMod, mode, src)
	result := CheckResult{
		Concentrating: true,
		Spell:         r.Spell,
		DC:            dc,
		Roll:          roll.Kept[0],
		Total:         roll.Total(),
		Held:          roll.Total() >= dc,
		Mode:          mode,
	}
	if !result.Held {
		delete(t.records, owner)
	}
	return result
}

// Owners returns every concentrating caster id, sorted.
func (t *Tracker) Owners() []string {
	out := make([]string, 0, len(t.records))
	for owner := range t.records {
		out = append(out, owner)
	}
	sort.Strings(out)
	return out
}
