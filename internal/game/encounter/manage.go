package encounter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/concentration"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// ApplyCondition puts a condition on a living participant. Duration is
// in rounds; condition.Indefinite disables expiry. Re-applying an active
// condition refreshes its duration; exhaustion stacks by level instead.
func (e *Encounter) ApplyCondition(participantID string, kind condition.Kind, duration int, source string) error {
	if err := e.ensureActive(); err != nil {
		return err
	}
	p, err := e.Participant(participantID)
	if err != nil {
		return err
	}
	if !p.Alive() {
		return fmt.Errorf("%w: %s is dead", ErrIllegalState, participantID)
	}
	if err := p.Conditions.Apply(kind, duration, source); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	e.emitConditionApplied(participantID, kind)
	e.logger.Debug("condition applied",
		zap.String("participant", participantID),
		zap.Stringer("condition", kind),
		zap.Int("duration", duration))
	return nil
}

// RemoveCondition clears a condition early. Removing an absent condition
// is a no-op, never an error.
func (e *Encounter) RemoveCondition(participantID string, kind condition.Kind) error {
	if err := e.ensureActive(); err != nil {
		return err
	}
	p, err := e.Participant(participantID)
	if err != nil {
		return err
	}
	if !p.Conditions.Has(kind) {
		return nil
	}
	p.Conditions.Remove(kind)
	e.emitConditionExpired(participantID, kind)
	e.logger.Debug("condition removed",
		zap.String("participant", participantID),
		zap.Stringer("condition", kind))
	return nil
}

// DamageResult reports the outcome of directly applied damage.
type DamageResult struct {
	ParticipantID       string
	Lost                int
	HP                  int
	Dropped             bool
	Killed              bool
	ConcentrationBroken string
}

// ApplyDamage applies flat damage outside attack resolution, for scripted
// or environmental sources. The usual drop rules apply: monsters die at 0,
// players fall unconscious, and damage on an already-downed player counts
// as a death-save failure.
func (e *Encounter) ApplyDamage(participantID string, amount int) (DamageResult, error) {
	if err := e.ensureActive(); err != nil {
		return DamageResult{}, err
	}
	p, err := e.Participant(participantID)
	if err != nil {
		return DamageResult{}, err
	}
	if !p.Alive() {
		return DamageResult{}, fmt.Errorf("%w: %s is dead", ErrIllegalState, participantID)
	}
	if amount < 0 {
		return DamageResult{}, fmt.Errorf("%w: damage must not be negative", ErrInvalid)
	}

	wasAtZero := p.AtZero()
	lost := p.applyDamage(amount)
	result := DamageResult{ParticipantID: participantID, Lost: lost}
	result.Dropped, result.Killed = e.dropOrKill(p, amount, wasAtZero, false)
	result.HP = p.HP

	if lost > 0 && !p.Dead {
		check := e.concentration.Check(p.ID, lost, p.SaveMod, dice.Normal, e.roller.Source())
		if check.Concentrating && !check.Held {
			result.ConcentrationBroken = check.Spell
		}
	}
	if p.Dead {
		if broken, held := e.concentration.Break(p.ID); held {
			result.ConcentrationBroken = broken.Spell
		}
	}

	e.logger.Debug("direct damage applied",
		zap.String("participant", participantID),
		zap.Int("amount", amount),
		zap.Int("hp", p.HP))
	return result, nil
}

// SetConcentration records a participant's concentration on a spell,
// silently breaking any prior spell. The broken record, if any, is
// returned so callers can surface it.
func (e *Encounter) SetConcentration(participantID, spell string, targets []string, duration int) (*concentration.Record, error) {
	if err := e.ensureActive(); err != nil {
		return nil, err
	}
	p, err := e.Participant(participantID)
	if err != nil {
		return nil, err
	}
	if !p.Alive() {
		return nil, fmt.Errorf("%w: %s is dead", ErrIllegalState, participantID)
	}
	if spell == "" {
		return nil, fmt.Errorf("%w: spell name is required", ErrInvalid)
	}
	for _, t := range targets {
		if _, err := e.Participant(t); err != nil {
			return nil, err
		}
	}
	broken := e.concentration.Set(participantID, spell, targets, duration)
	e.logger.Debug("concentration set",
		zap.String("participant", participantID),
		zap.String("spell", spell))
	return broken, nil
}

// BreakConcentration ends a participant's concentration. Breaking when
// not concentrating is a reported no-op.
func (e *Encounter) BreakConcentration(participantID string) (concentration.Record, bool, error) {
	if err := e.ensureActive(); err != nil {
		return concentration.Record{}, false, err
	}
	if _, err := e.Participant(participantID); err != nil {
		return concentration.Record{}, false, err
	}
	r, ok := e.concentration.Break(participantID)
	if ok {
		e.logger.Debug("concentration broken",
			zap.String("participant", participantID),
			zap.String("spell", r.Spell))
	}
	return r, ok, nil
}

// CheckConcentration forces a save-or-break roll, for damage sources the
// engine does not resolve itself.
func (e *Encounter) CheckConcentration(participantID string, damage int, mode dice.RollMode) (concentration.CheckResult, error) {
	if err := e.ensureActive(); err != nil {
		return concentration.CheckResult{}, err
	}
	p, err := e.Participant(participantID)
	if err != nil {
		return concentration.CheckResult{}, err
	}
	if damage < 0 {
		return concentration.CheckResult{}, fmt.Errorf("%w: damage must not be negative", ErrInvalid)
	}
	return e.concentration.Check(participantID, damage, p.SaveMod, mode, e.roller.Source()), nil
}
