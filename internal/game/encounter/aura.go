package encounter

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
)

// AuraIndefinite marks an aura with no round duration.
const AuraIndefinite = -1

// SaveSpec describes the saving throw an aura allows. Half grants half
// damage on a success instead of negating the effect.
type SaveSpec struct {
	DC   int
	Half bool
}

// AuraEffect is the payload applied to each affected participant per
// tick. Damage and Healing are dice expressions; a zero Condition means
// no condition is applied.
type AuraEffect struct {
	Damage            string
	Healing           string
	Condition         condition.Kind
	ConditionDuration int
	Save              *SaveSpec
}

// Aura is a persistent area effect centered on its owner.
type Aura struct {
	ID      string
	Name    string
	OwnerID string
	// Radius is in feet, measured with the encounter's distance mode.
	Radius int
	// Remaining is the rounds left; AuraIndefinite disables expiry.
	Remaining int
	Effect    AuraEffect

	seq int
}

// AuraParams configures AddAura.
type AuraParams struct {
	Name    string
	OwnerID string
	Radius  int
	// Duration in rounds; AuraIndefinite or 0 means no expiry.
	Duration int
	Effect   AuraEffect
}

// AddAura attaches an aura to a living owner and returns its id.
func (e *Encounter) AddAura(params AuraParams) (string, error) {
	if err := e.ensureActive(); err != nil {
		return "", err
	}
	owner, err := e.Participant(params.OwnerID)
	if err != nil {
		return "", err
	}
	if !owner.Alive() {
		return "", fmt.Errorf("%w: aura owner %s is dead", ErrIllegalState, owner.ID)
	}
	if params.Name == "" {
		return "", fmt.Errorf("%w: aura name is required", ErrInvalid)
	}
	if params.Radius <= 0 {
		return "", fmt.Errorf("%w: aura radius must be positive", ErrInvalid)
	}
	if params.Effect.Damage != "" {
		if _, err := dice.Parse(params.Effect.Damage); err != nil {
			return "", fmt.Errorf("%w: aura damage expression: %v", ErrInvalid, err)
		}
	}
	if params.Effect.Healing != "" {
		if _, err := dice.Parse(params.Effect.Healing); err != nil {
			return "", fmt.Errorf("%w: aura healing expression: %v", ErrInvalid, err)
		}
	}
	if params.Effect.Condition != condition.KindUnknown && !params.Effect.Condition.Valid() {
		return "", fmt.Errorf("%w: aura condition %d", ErrInvalid, params.Effect.Condition)
	}
	if params.Effect.Save != nil && params.Effect.Save.DC <= 0 {
		return "", fmt.Errorf("%w: aura save dc must be positive", ErrInvalid)
	}

	duration := params.Duration
	if duration <= 0 {
		duration = AuraIndefinite
	}
	a := &Aura{
		ID:        uuid.NewString(),
		Name:      params.Name,
		OwnerID:   params.OwnerID,
		Radius:    params.Radius,
		Remaining: duration,
		Effect:    params.Effect,
		seq:       e.auraSeq,
	}
	e.auraSeq++
	e.auras[a.ID] = a
	e.logger.Debug("aura added",
		zap.String("aura", a.ID),
		zap.String("name", a.Name),
		zap.String("owner", a.OwnerID),
		zap.Int("radius", a.Radius))
	return a.ID, nil
}

// RemoveAura detaches an aura by id.
func (e *Encounter) RemoveAura(id string) error {
	if err := e.ensureActive(); err != nil {
		return err
	}
	if _, ok := e.auras[id]; !ok {
		return fmt.Errorf("%w: aura %s", ErrNotFound, id)
	}
	delete(e.auras, id)
	e.logger.Debug("aura removed", zap.String("aura", id))
	return nil
}

// Auras returns active auras in creation order.
func (e *Encounter) Auras() []Aura {
	out := make([]Aura, 0, len(e.auras))
	for _, a := range e.auras {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// AuraTarget reports one participant's resolution against one aura tick.
type AuraTarget struct {
	ParticipantID string
	Saved         bool
	SaveTotal     int
	Damage        int
	Healing       int
	// ConditionApplied is KindUnknown when no condition landed.
	ConditionApplied    condition.Kind
	Dropped             bool
	Killed              bool
	ConcentrationBroken string
}

// AuraTickResult reports one aura's full tick.
type AuraTickResult struct {
	AuraID   string
	Name     string
	Affected []AuraTarget
	// Expired is set when the tick consumed the aura's last round or its
	// owner is no longer alive; the aura has been removed.
	Expired bool
}

// ProcessAuras resolves every aura once against the supplied target
// list, in aura creation order, then decrements durations. Targets
// outside the radius, dead targets, and the aura's owner are skipped.
// An aura whose owner has died expires without ticking.
func (e *Encounter) ProcessAuras(targetIDs []string) ([]AuraTickResult, error) {
	if err := e.ensureActive(); err != nil {
		return nil, err
	}
	targets := make([]*Participant, 0, len(targetIDs))
	for _, id := range targetIDs {
		p, err := e.Participant(id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, p)
	}

	ordered := make([]*Aura, 0, len(e.auras))
	for _, a := range e.auras {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	results := make([]AuraTickResult, 0, len(ordered))
	for _, a := range ordered {
		result := AuraTickResult{AuraID: a.ID, Name: a.Name}

		owner := e.participants[a.OwnerID]
		if owner == nil || !owner.Alive() {
			result.Expired = true
			delete(e.auras, a.ID)
			results = append(results, result)
			continue
		}

		affected := make([]string, 0, len(targets))
		for _, t := range targets {
			if t.ID == a.OwnerID || !t.Alive() {
				continue
			}
			if geometry.Distance(owner.Position, t.Position, e.mode) > a.Radius {
				continue
			}
			result.Affected = append(result.Affected, e.applyAuraEffect(a, t))
			affected = append(affected, t.ID)
		}

		if a.Remaining != AuraIndefinite {
			a.Remaining--
			if a.Remaining <= 0 {
				result.Expired = true
				delete(e.auras, a.ID)
			}
		}
		if e.hooks != nil {
			e.hooks.AuraTicked(e.ID, a.ID, affected)
		}
		results = append(results, result)
	}
	return results, nil
}

// applyAuraEffect resolves one aura against one participant: roll the
// save if any, then apply damage, healing, and condition per the save
// rule.
func (e *Encounter) applyAuraEffect(a *Aura, target *Participant) AuraTarget {
	out := AuraTarget{ParticipantID: target.ID}

	saved := false
	if a.Effect.Save != nil {
		roll := dice.RollD20(target.SaveMod, dice.Normal, e.roller.Source())
		out.SaveTotal = roll.Total()
		saved = roll.Total() >= a.Effect.Save.DC
		out.Saved = saved
	}

	if a.Effect.Damage != "" {
		negated := saved && !a.Effect.Save.Half
		if !negated {
			roll, err := dice.RollExpr(a.Effect.Damage, e.roller.Source())
			if err == nil {
				dmg := roll.Total()
				if saved && a.Effect.Save.Half {
					dmg /= 2
				}
				wasAtZero := target.AtZero()
				lost := target.applyDamage(dmg)
				out.Damage = dmg
				out.Dropped, out.Killed = e.dropOrKill(target, dmg, wasAtZero, false)
				if lost > 0 && !target.Dead {
					check := e.concentration.Check(target.ID, lost, target.SaveMod, dice.Normal, e.roller.Source())
					if check.Concentrating && !check.Held {
						out.ConcentrationBroken = check.Spell
					}
				}
				if target.Dead {
					if broken, held := e.concentration.Break(target.ID); held {
						out.ConcentrationBroken = broken.Spell
					}
				}
			}
		}
	}

	if a.Effect.Healing != "" && !target.Dead {
		roll, err := dice.RollExpr(a.Effect.Healing, e.roller.Source())
		if err == nil {
			wasAtZero := target.AtZero()
			out.Healing = target.heal(roll.Total())
			if wasAtZero && target.HP > 0 {
				target.DeathSaves.reset()
				target.Conditions.Remove(condition.Unconscious)
				e.emitConditionExpired(target.ID, condition.Unconscious)
			}
		}
	}

	if a.Effect.Condition != condition.KindUnknown && !saved && !target.Dead {
		duration := a.Effect.ConditionDuration
		if duration <= 0 {
			duration = condition.Indefinite
		}
		if err := target.Conditions.Apply(a.Effect.Condition, duration, a.Name); err == nil {
			out.ConditionApplied = a.Effect.Condition
			e.emitConditionApplied(target.ID, a.Effect.Condition)
		}
	}
	return out
}
