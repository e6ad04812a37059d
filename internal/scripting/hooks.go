package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

// Lua hook function names invoked by the Dispatcher.
const (
	hookConditionApplied = "on_condition_applied"
	hookConditionExpired = "on_condition_expired"
	hookAuraTick         = "on_aura_tick"
)

// Dispatcher adapts encounter lifecycle events onto Lua hook functions.
// It satisfies the encounter package's Hooks interface. Hooks that are not
// defined in any loaded script are silently skipped; Lua errors never
// propagate back into combat resolution.
type Dispatcher struct {
	mgr *Manager
}

// NewDispatcher creates a Dispatcher backed by mgr.
//
// Precondition: mgr must be non-nil.
func NewDispatcher(mgr *Manager) *Dispatcher {
	if mgr == nil {
		panic("scripting: NewDispatcher precondition violated: mgr must be non-nil")
	}
	return &Dispatcher{mgr: mgr}
}

// ConditionApplied invokes on_condition_applied(encounter_id, participant_id, kind).
func (d *Dispatcher) ConditionApplied(encounterID, participantID string, kind condition.Kind) {
	d.mgr.CallHook(encounterID, hookConditionApplied, //nolint:errcheck
		lua.LString(encounterID),
		lua.LString(participantID),
		lua.LString(kind.String()),
	)
}

// ConditionExpired invokes on_condition_expired(encounter_id, participant_id, kind).
func (d *Dispatcher) ConditionExpired(encounterID, participantID string, kind condition.Kind) {
	d.mgr.CallHook(encounterID, hookConditionExpired, //nolint:errcheck
		lua.LString(encounterID),
		lua.LString(participantID),
		lua.LString(kind.String()),
	)
}

// AuraTicked invokes on_aura_tick(encounter_id, aura_id, affected) where
// affected is an array table of participant IDs.
func (d *Dispatcher) AuraTicked(encounterID, auraID string, affected []string) {
	d.mgr.callHook(encounterID, hookAuraTick, func(L *lua.LState) []lua.LValue { //nolint:errcheck
		tbl := L.NewTable()
		for _, id := range affected {
			tbl.Append(lua.LString(id))
		}
		return []lua.LValue{
			lua.LString(encounterID),
			lua.LString(auraID),
			tbl,
		}
	})
}
