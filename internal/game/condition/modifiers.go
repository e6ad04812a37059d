package condition

// AttackMod returns the net attack roll modifier from all active conditions.
//
// Postcondition: Returns <= 0.
func AttackMod(s *Set, reg *Registry) int {
	total := 0
	for _, inst := range s.All() {
		if def, ok := reg.Get(inst.Kind); ok && def.AttackPenalty > 0 {
			total -= def.AttackPenalty
		}
	}
	return total
}

// ACMod returns the net armor class modifier from all active conditions.
//
// Postcondition: Returns <= 0.
func ACMod(s *Set, reg *Registry) int {
	total := 0
	for _, inst := range s.All() {
		if def, ok := reg.Get(inst.Kind); ok && def.ACPenalty > 0 {
			total -= def.ACPenalty
		}
	}
	return total
}

// SpeedMultiplier returns the combined movement multiplier from all active
// conditions; 0 when any condition zeroes movement.
//
// Postcondition: Returns a value in [0, 1].
func SpeedMultiplier(s *Set, reg *Registry) float64 {
	mult := 1.0
	for _, inst := range s.All() {
		if def, ok := reg.Get(inst.Kind); ok {
			mult *= def.Speed()
		}
	}
	return mult
}

// IsActionRestricted reports whether action is blocked by any active
// condition's RestrictActions list.
func IsActionRestricted(s *Set, reg *Registry, action string) bool {
	for _, inst := range s.All() {
		def, ok := reg.Get(inst.Kind)
		if !ok {
			continue
		}
		for _, r := range def.RestrictActions {
			if r == action {
				return true
			}
		}
	}
	return false
}

// AttackRollBias reports the advantage and disadvantage pressure on an
// attack from attacker against target. Callers apply the cancellation rule:
// when both are present the roll is normal.
func AttackRollBias(attacker, target *Set, reg *Registry) (advantage, disadvantage bool) {
	for _, inst := range attacker.All() {
		if def, ok := reg.Get(inst.Kind); ok {
			if def.OutgoingAdvantage {
				advantage = true
			}
			if def.OutgoingDisadvantage {
				disadvantage = true
			}
		}
	}
	for _, inst := range target.All() {
		if def, ok := reg.Get(inst.Kind); ok {
			if def.IncomingAdvantage {
				advantage = true
			}
			if def.IncomingDisadvantage {
				disadvantage = true
			}
		}
	}
	return advantage, disadvantage
}
