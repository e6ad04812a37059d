package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with log, dice, participant,
// and combat submodules.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	engine.RawSetString("log", m.logModule(L))
	engine.RawSetString("dice", m.diceModule(L))
	engine.RawSetString("participant", m.participantModule(L))
	engine.RawSetString("combat", m.combatModule(L))

	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	logFn := func(log func(msg string, fields ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	tbl.RawSetString("debug", L.NewFunction(logFn(m.logger.Debug)))
	tbl.RawSetString("info", L.NewFunction(logFn(m.logger.Info)))
	tbl.RawSetString("warn", L.NewFunction(logFn(m.logger.Warn)))
	tbl.RawSetString("error", L.NewFunction(logFn(m.logger.Error)))
	return tbl
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("roll", L.NewFunction(func(L *lua.LState) int {
		expr := L.CheckString(1)
		result, err := m.roller.RollExpr(expr)
		if err != nil {
			L.RaiseError("engine.dice.roll: %v", err)
			return 0
		}
		out := L.NewTable()
		out.RawSetString("total", lua.LNumber(result.Total()))
		out.RawSetString("dice", lua.LNumber(result.Total()-result.Modifier))
		out.RawSetString("modifier", lua.LNumber(result.Modifier))
		L.Push(out)
		return 1
	}))
	return tbl
}

func (m *Manager) participantModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()

	lookup := func(L *lua.LState) *ParticipantInfo {
		if m.GetParticipant == nil {
			return nil
		}
		return m.GetParticipant(L.CheckString(1), L.CheckString(2))
	}

	tbl.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		info := lookup(L)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(participantToTable(L, info))
		return 1
	}))

	tbl.RawSetString("get_hp", L.NewFunction(func(L *lua.LState) int {
		info := lookup(L)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(info.HP))
		return 1
	}))

	tbl.RawSetString("get_ac", L.NewFunction(func(L *lua.LState) int {
		info := lookup(L)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(info.AC))
		return 1
	}))

	tbl.RawSetString("get_conditions", L.NewFunction(func(L *lua.LState) int {
		info := lookup(L)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		conds := L.NewTable()
		for _, c := range info.Conditions {
			conds.Append(lua.LString(c))
		}
		L.Push(conds)
		return 1
	}))

	return tbl
}

func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()

	tbl.RawSetString("apply_condition", L.NewFunction(func(L *lua.LState) int {
		if m.ApplyCondition == nil {
			return 0
		}
		encID := L.CheckString(1)
		pID := L.CheckString(2)
		kind := L.CheckString(3)
		duration := L.CheckInt(4)
		if err := m.ApplyCondition(encID, pID, kind, duration); err != nil {
			m.logger.Warn("scripting: apply_condition failed",
				zap.String("encounter", encID),
				zap.String("participant", pID),
				zap.String("kind", kind),
				zap.Error(err),
			)
		}
		return 0
	}))

	tbl.RawSetString("apply_damage", L.NewFunction(func(L *lua.LState) int {
		if m.ApplyDamage == nil {
			return 0
		}
		encID := L.CheckString(1)
		pID := L.CheckString(2)
		amount := L.CheckInt(3)
		if err := m.ApplyDamage(encID, pID, amount); err != nil {
			m.logger.Warn("scripting: apply_damage failed",
				zap.String("encounter", encID),
				zap.String("participant", pID),
				zap.Int("amount", amount),
				zap.Error(err),
			)
		}
		return 0
	}))

	sides := func(L *lua.LState) (self *ParticipantInfo, others []*ParticipantInfo) {
		if m.Participants == nil {
			return nil, nil
		}
		encID := L.CheckString(1)
		pID := L.CheckString(2)
		for _, info := range m.Participants(encID) {
			if info.ID == pID {
				self = info
			} else {
				others = append(others, info)
			}
		}
		return self, others
	}

	tbl.RawSetString("enemies", L.NewFunction(func(L *lua.LState) int {
		self, others := sides(L)
		if self == nil {
			L.Push(lua.LNil)
			return 1
		}
		out := L.NewTable()
		for _, o := range others {
			if o.Kind != self.Kind {
				out.Append(participantToTable(L, o))
			}
		}
		L.Push(out)
		return 1
	}))

	tbl.RawSetString("allies", L.NewFunction(func(L *lua.LState) int {
		self, others := sides(L)
		if self == nil {
			L.Push(lua.LNil)
			return 1
		}
		out := L.NewTable()
		for _, o := range others {
			if o.Kind == self.Kind {
				out.Append(participantToTable(L, o))
			}
		}
		L.Push(out)
		return 1
	}))

	tbl.RawSetString("enemy_count", L.NewFunction(func(L *lua.LState) int {
		self, others := sides(L)
		count := 0
		if self != nil {
			for _, o := range others {
				if o.Kind != self.Kind {
					count++
				}
			}
		}
		L.Push(lua.LNumber(count))
		return 1
	}))

	tbl.RawSetString("ally_count", L.NewFunction(func(L *lua.LState) int {
		self, others := sides(L)
		count := 0
		if self != nil {
			for _, o := range others {
				if o.Kind == self.Kind {
					count++
				}
			}
		}
		L.Push(lua.LNumber(count))
		return 1
	}))

	return tbl
}

func participantToTable(L *lua.LState, info *ParticipantInfo) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("id", lua.LString(info.ID))
	tbl.RawSetString("name", lua.LString(info.Name))
	tbl.RawSetString("kind", lua.LString(info.Kind))
	tbl.RawSetString("hp", lua.LNumber(info.HP))
	tbl.RawSetString("max_hp", lua.LNumber(info.MaxHP))
	tbl.RawSetString("ac", lua.LNumber(info.AC))
	conds := L.NewTable()
	for _, c := range info.Conditions {
		conds.Append(lua.LString(c))
	}
	tbl.RawSetString("conditions", conds)
	return tbl
}
