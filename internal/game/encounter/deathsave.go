package encounter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// DeathSaveResult reports one death saving throw.
type DeathSaveResult struct {
	ParticipantID string
	Roll          dice.RollResult
	Natural       int
	Successes     int
	Failures      int
	Stable        bool
	Dead          bool
	// Revived is set on a natural 20: the participant returns to 1 hp.
	Revived bool
}

// RollDeathSave rolls a death saving throw for a player at 0 hit points.
// A modified total of 10 or higher is a success, three successes
// stabilize; below 10 is a failure, three failures kill. Naturals key on
// the kept die before the modifier: a natural 1 counts as two failures
// and a natural 20 revives at 1 hit point.
//
// Precondition: the participant is a player at 0 hp, neither stable nor
// dead.
func (e *Encounter) RollDeathSave(participantID string, mod int, mode dice.RollMode) (*DeathSaveResult, error) {
	if err := e.ensureActive(); err != nil {
		return nil, err
	}
	p, err := e.Participant(participantID)
	if err != nil {
		return nil, err
	}
	if p.Kind != KindPlayer {
		return nil, fmt.Errorf("%w: %s does not roll death saves", ErrIllegalState, participantID)
	}
	if p.Dead {
		return nil, fmt.Errorf("%w: %s is dead", ErrIllegalState, participantID)
	}
	if !p.AtZero() {
		return nil, fmt.Errorf("%w: %s is not at 0 hp", ErrIllegalState, participantID)
	}
	if p.DeathSaves.Stable {
		return nil, fmt.Errorf("%w: %s is already stable", ErrIllegalState, participantID)
	}

	roll := dice.RollD20(mod, mode, e.roller.Source())
	natural := roll.Kept[0]

	switch {
	case natural == 20:
		p.HP = 1
		p.DeathSaves.reset()
		p.Conditions.Remove(condition.Unconscious)
		e.emitConditionExpired(p.ID, condition.Unconscious)
	case natural == 1:
		p.DeathSaves.Failures += 2
	case roll.Total() >= 10:
		p.DeathSaves.Successes++
	default:
		p.DeathSaves.Failures++
	}

	if p.DeathSaves.Successes >= 3 {
		p.DeathSaves.Stable = true
	}
	if p.DeathSaves.Failures >= 3 {
		p.Dead = true
	}

	result := &DeathSaveResult{
		ParticipantID: p.ID,
		Roll:          roll,
		Natural:       natural,
		Successes:     p.DeathSaves.Successes,
		Failures:      p.DeathSaves.Failures,
		Stable:        p.DeathSaves.Stable,
		Dead:          p.Dead,
		Revived:       natural == 20,
	}
	e.logger.Debug("death save rolled",
		zap.String("participant", p.ID),
		zap.Int("natural", natural),
		zap.Int("successes", result.Successes),
		zap.Int("failures", result.Failures),
		zap.Bool("dead", result.Dead))
	return result, nil
}
