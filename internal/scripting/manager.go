package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// globalKey is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no encounter VM is found.
const globalKey = "__global__"

// ParticipantInfo is a snapshot of a participant's state passed to Lua
// callbacks.
type ParticipantInfo struct {
	ID         string
	Name       string
	Kind       string
	HP         int
	MaxHP      int
	AC         int
	Conditions []string
}

// Manager owns one sandboxed LState per encounter and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook after all load calls complete.
// Each LState is single-threaded; the mutex serializes concurrent calls to
// the same VM.
type Manager struct {
	mu      sync.Mutex
	states  map[string]*lua.LState
	cancels map[string]func()
	roller  *dice.Roller
	logger  *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetParticipant func(encounterID, participantID string) *ParticipantInfo
	Participants   func(encounterID string) []*ParticipantInfo
	ApplyCondition func(encounterID, participantID, kind string, duration int) error
	ApplyDamage    func(encounterID, participantID string, amount int) error
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty VM map.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: NewManager precondition violated: roller must be non-nil")
	}
	if logger == nil {
		panic("scripting: NewManager precondition violated: logger must be non-nil")
	}
	return &Manager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]func()),
		roller:  roller,
		logger:  logger,
	}
}

// LoadEncounter creates a sandboxed VM for encounterID, registers all
// engine.* modules, then executes every *.lua file in scriptDir in
// lexicographic order.
//
// Precondition: encounterID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Encounter VM is registered; returns error on Lua load failure.
func (m *Manager) LoadEncounter(encounterID, scriptDir string, instLimit int) error {
	return m.loadInto(encounterID, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for shared hook scripts accessible
// as a CallHook fallback from any encounter.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalKey, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		if oldCancel := m.cancels[key]; oldCancel != nil {
			oldCancel()
		}
		old.Close()
	}
	m.states[key] = L
	m.cancels[key] = cancel
	m.mu.Unlock()
	return nil
}

// Release closes and removes the VM for encounterID, if one exists.
// The "__global__" VM is never released by this method.
func (m *Manager) Release(encounterID string) {
	if encounterID == globalKey {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if L, ok := m.states[encounterID]; ok {
		if cancel := m.cancels[encounterID]; cancel != nil {
			cancel()
		}
		L.Close()
		delete(m.states, encounterID)
		delete(m.cancels, encounterID)
	}
}

// Close releases every VM, including the global one. The Manager must not
// be used after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, L := range m.states {
		if cancel := m.cancels[key]; cancel != nil {
			cancel()
		}
		L.Close()
	}
	m.states = make(map[string]*lua.LState)
	m.cancels = make(map[string]func())
}

// CallHook calls the named Lua global function in encounterID's VM. If the
// encounter has no VM, the __global__ VM is tried as a fallback. Returns
// (LNil, nil) if the hook is not defined or no VM exists. Lua runtime errors
// are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(encounterID, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.callHook(encounterID, hook, func(*lua.LState) []lua.LValue { return args })
}

// callHook resolves the VM and invokes hook with arguments produced by
// build. The builder runs under the VM lock so it may allocate tables on
// the resolved LState.
func (m *Manager) callHook(encounterID, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L, ok := m.states[encounterID]
	if !ok {
		L = m.states[globalKey]
	}

	if L == nil {
		m.logger.Info("scripting: no VM for encounter",
			zap.String("encounter", encounterID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	args := build(L)

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("encounter", encounterID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}
