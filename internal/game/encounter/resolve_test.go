package encounter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// TestAttack_Nat1AlwaysMisses: a natural 1 misses even when the total
// clears the armor class.
func TestAttack_Nat1AlwaysMisses(t *testing.T) {
	src := &script{vals: []int{19, 4, 0}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	a.AttackBonus = 20
	a.DamageExpr = "1d6"
	b := monster("B", 8, 2, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	res, err := e.ExecuteAction("A", encounter.Action{Type: encounter.ActionAttack, TargetID: "B"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attack.Natural)
	assert.False(t, res.Attack.Hit)
	assert.Equal(t, 0, res.Attack.Damage)
	assert.Equal(t, 8, b.HP)
	assert.True(t, a.Economy.ActionUsed, "a miss still spends the action")
}

// TestAttack_EconomyExhausted: the second attack in one turn is refused
// without touching the target.
func TestAttack_EconomyExhausted(t *testing.T) {
	src := &script{vals: []int{19, 4, 15, 2}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	a.AttackBonus = 4
	a.DamageExpr = "1d6"
	b := monster("B", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	_, err := e.ExecuteAction("A", encounter.Action{Type: encounter.ActionAttack, TargetID: "B"})
	require.NoError(t, err)
	hpAfterFirst := b.HP

	_, err = e.ExecuteAction("A", encounter.Action{Type: encounter.ActionAttack, TargetID: "B"})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
	assert.Equal(t, hpAfterFirst, b.HP)
}

// TestAttack_ReactionBypassesTurnOrder: a reaction attack from the
// off-turn participant spends the reaction, not the action.
func TestAttack_ReactionBypassesTurnOrder(t *testing.T) {
	src := &script{vals: []int{19, 4, 15, 2}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	b.AttackBonus = 3
	b.DamageExpr = "1d6"
	e := newEncounter(t, src, []*encounter.Participant{a, b})
	require.Equal(t, "A", e.CurrentActor().ID)

	res, err := e.ExecuteAction("B", encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "A",
		Reaction: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Attack.Hit)
	assert.True(t, b.Economy.ReactionUsed)
	assert.False(t, b.Economy.ActionUsed)

	_, err = e.ExecuteAction("B", encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "A",
		Reaction: true,
	})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
}

// TestAttack_DodgingImposesDisadvantage: attacking a dodging target
// rolls two dice and keeps the lower.
func TestAttack_DodgingImposesDisadvantage(t *testing.T) {
	src := &script{vals: []int{
		19, 4, // initiative: A first
		15, 2, // B's reaction attack vs dodging A: dice 16 and 3, keeps 3
	}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	b.AttackBonus = 2
	b.DamageExpr = "1d6"
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	_, err := e.ExecuteAction("A", encounter.Action{Type: encounter.ActionDodge})
	require.NoError(t, err)

	res, err := e.ExecuteAction("B", encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "A",
		Reaction: true,
	})
	require.NoError(t, err)
	assert.Len(t, res.Attack.Roll.Rolled, 2)
	assert.Equal(t, 3, res.Attack.Natural)
	assert.False(t, res.Attack.Hit) // 3+2 = 5 vs AC 12
}

// TestAttack_AdvantageDisadvantageCancel: requested advantage against a
// dodging target collapses to a single-die normal roll.
func TestAttack_AdvantageDisadvantageCancel(t *testing.T) {
	src := &script{vals: []int{19, 4, 11}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	a.AttackBonus = 4
	a.DamageExpr = "1d6"
	b := monster("B", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	require.NoError(t, b.Conditions.Apply(condition.Dodging, 1, "test"))
	res, err := e.ExecuteAction("A", encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "B",
		Mode:     dice.Advantage,
	})
	require.NoError(t, err)
	assert.Len(t, res.Attack.Roll.Rolled, 1)
}

// TestAttack_RestrictedActor: a stunned actor cannot attack.
func TestAttack_RestrictedActor(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	a.DamageExpr = "1d6"
	b := monster("B", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	require.NoError(t, a.Conditions.Apply(condition.Stunned, condition.Indefinite, "test"))
	_, err := e.ExecuteAction("A", encounter.Action{Type: encounter.ActionAttack, TargetID: "B"})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
}

// TestAttack_CoverAddsAC: half cover raises the effective armor class
// by 2, turning a clean hit into a near thing.
func TestAttack_CoverAddsAC(t *testing.T) {
	// A short wall stub crossing the sight line between the square
	// centers of (0,0) and (3,0): it blocks 3 of the 29 interior fine
	// points, which grades as half cover.
	stub := grid.WallSegment{
		A: geometry.FinePoint{X: 14, Y: 5},
		B: geometry.FinePoint{X: 16, Y: 5},
	}
	src := &script{vals: []int{19, 4, 13, 2}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	a.AttackBonus = 2
	a.DamageExpr = "1d6"
	b := monster("B", 20, 14, 30, geometry.Position{X: 3, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b},
		func(p *encounter.Params) { p.Walls = []grid.WallSegment{stub} })

	cover, err := e.CheckCover(encounter.Of("A"), encounter.Of("B"))
	require.NoError(t, err)
	require.Equal(t, geometry.CoverHalf, cover)

	res, err := e.ExecuteAction("A", encounter.Action{Type: encounter.ActionAttack, TargetID: "B"})
	require.NoError(t, err)
	assert.Equal(t, 16, res.Attack.TargetAC)
	assert.True(t, res.Attack.Hit, "14 + 2 exactly meets the raised AC")
}

// TestAttack_TotalCoverRefused: when most of the sight line runs through
// wall, the target is untargetable.
func TestAttack_TotalCoverRefused(t *testing.T) {
	// Wall along the sight line itself: 25 of the 29 interior fine
	// points are blocked, well past the total-cover threshold.
	full := grid.WallSegment{
		A: geometry.FinePoint{X: 8, Y: 5},
		B: geometry.FinePoint{X: 32, Y: 5},
	}
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	a.DamageExpr = "1d6"
	b := monster("B", 20, 14, 30, geometry.Position{X: 3, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b},
		func(p *encounter.Params) { p.Walls = []grid.WallSegment{full} })

	_, err := e.ExecuteAction("A", encounter.Action{Type: encounter.ActionAttack, TargetID: "B"})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
	assert.False(t, a.Economy.ActionUsed)
}

// TestAttack_DropsPlayerUnconscious: a player reduced to 0 hp falls
// unconscious and starts death saves instead of dying.
func TestAttack_DropsPlayerUnconscious(t *testing.T) {
	s := &script{vals: []int{
		4, 19, // initiative: P 5, M 20 → M first
		10, 0, // M hits: die 11 (+10), damage die 1 (+20 = 21)
	}}
	p := player("P", 10, 10, 30, geometry.Position{X: 0, Y: 0})
	m := monster("M", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	m.AttackBonus = 10
	m.DamageExpr = "1d4+20"
	e := newEncounter(t, s, []*encounter.Participant{p, m})
	require.Equal(t, "M", e.CurrentActor().ID)

	res, err := e.ExecuteAction("M", encounter.Action{Type: encounter.ActionAttack, TargetID: "P"})
	require.NoError(t, err)
	assert.True(t, res.Attack.Dropped)
	assert.False(t, res.Attack.Killed)
	assert.Equal(t, 0, p.HP)
	assert.False(t, p.Dead)
	assert.True(t, p.Conditions.Has(condition.Unconscious))

	turn, err := e.AdvanceTurn()
	require.NoError(t, err)
	require.NotNil(t, turn.Reminder)
	assert.Equal(t, "P", turn.Reminder.ParticipantID)
	assert.True(t, turn.Reminder.DeathSave)
}

// dropPlayer builds a two-combatant encounter where M has already
// knocked P to 0 hp. extra values feed the rolls that follow.
func dropPlayer(t *testing.T, extra ...int) (*encounter.Encounter, *encounter.Participant) {
	t.Helper()
	vals := append([]int{4, 19, 10, 0}, extra...)
	s := &script{vals: vals}
	p := player("P", 10, 10, 30, geometry.Position{X: 0, Y: 0})
	m := monster("M", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	m.AttackBonus = 10
	m.DamageExpr = "1d4+20"
	e := newEncounter(t, s, []*encounter.Participant{p, m})
	res, err := e.ExecuteAction("M", encounter.Action{Type: encounter.ActionAttack, TargetID: "P"})
	require.NoError(t, err)
	require.True(t, res.Attack.Dropped)
	return e, p
}

// TestRollDeathSave_Nat1ThenFailuresKill: a natural 1 counts double;
// the third failure kills.
func TestRollDeathSave_Nat1ThenFailuresKill(t *testing.T) {
	e, p := dropPlayer(t, 0, 3)

	res, err := e.RollDeathSave("P", 0, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Natural)
	assert.Equal(t, 2, res.Failures)
	assert.False(t, res.Dead)

	res, err = e.RollDeathSave("P", 0, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Failures)
	assert.True(t, res.Dead)
	assert.True(t, p.Dead)

	_, err = e.RollDeathSave("P", 0, dice.Normal)
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
}

// TestRollDeathSave_Nat20Revives: a natural 20 returns the player to
// 1 hp and clears the unconscious condition.
func TestRollDeathSave_Nat20Revives(t *testing.T) {
	e, p := dropPlayer(t, 19)

	res, err := e.RollDeathSave("P", 0, dice.Normal)
	require.NoError(t, err)
	assert.True(t, res.Revived)
	assert.Equal(t, 1, p.HP)
	assert.False(t, p.Conditions.Has(condition.Unconscious))
	assert.Equal(t, encounter.DeathSaves{}, p.DeathSaves)

	_, err = e.RollDeathSave("P", 0, dice.Normal)
	assert.ErrorIs(t, err, encounter.ErrIllegalState, "no saves above 0 hp")
}

// TestRollDeathSave_ThreeSuccessesStabilize: three saves of 10+ make the
// player stable, and further saves are refused.
func TestRollDeathSave_ThreeSuccessesStabilize(t *testing.T) {
	e, p := dropPlayer(t, 11, 11, 11)

	for i := 0; i < 3; i++ {
		res, err := e.RollDeathSave("P", 0, dice.Normal)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Successes)
	}
	assert.True(t, p.DeathSaves.Stable)

	_, err := e.RollDeathSave("P", 0, dice.Normal)
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
}

// TestRollDeathSave_ModifierLiftsThreshold: the save modifier counts
// toward the 10+ threshold; the same die fails unmodified and succeeds
// with a bonus.
func TestRollDeathSave_ModifierLiftsThreshold(t *testing.T) {
	e, p := dropPlayer(t, 6, 6)

	res, err := e.RollDeathSave("P", 0, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Natural)
	assert.Equal(t, 1, res.Failures)

	res, err = e.RollDeathSave("P", 4, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Natural)
	assert.Equal(t, 11, res.Roll.Total())
	assert.Equal(t, 1, res.Successes)
	assert.Equal(t, 1, p.DeathSaves.Successes)
}

// TestAttack_OnDownedPlayerAddsFailures: hitting a player already at 0
// adds a death save failure, two on a critical.
func TestAttack_OnDownedPlayerAddsFailures(t *testing.T) {
	// After the drop, M attacks the unconscious P at advantage (two
	// d20 draws). First attack: plain hit. Second: natural 20.
	e, p := dropPlayer(t, 10, 5, 1, 19, 19, 1, 1)

	res, err := e.ExecuteAction("M", encounter.Action{
		Type:     encounter.ActionAttack,
		TargetID: "P",
		Reaction: true,
	})
	require.NoError(t, err)
	require.True(t, res.Attack.Hit)
	assert.Len(t, res.Attack.Roll.Rolled, 2, "advantage against the unconscious")
	assert.Equal(t, 1, p.DeathSaves.Failures)

	_, err = e.AdvanceTurn()
	require.NoError(t, err)
	_, err = e.AdvanceTurn() // back to M
	require.NoError(t, err)

	res, err = e.ExecuteAction("M", encounter.Action{Type: encounter.ActionAttack, TargetID: "P"})
	require.NoError(t, err)
	require.True(t, res.Attack.Critical)
	assert.Equal(t, 3, p.DeathSaves.Failures)
	assert.True(t, res.Attack.Killed)
	assert.True(t, p.Dead)
}

// TestApplyDamage_ZeroOnDownedPlayer: applying zero damage to a player
// at 0 hp accrues no death save failure.
func TestApplyDamage_ZeroOnDownedPlayer(t *testing.T) {
	e, p := dropPlayer(t)

	res, err := e.ApplyDamage("P", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Lost)
	assert.False(t, res.Dropped)
	assert.False(t, res.Killed)
	assert.Equal(t, 0, p.DeathSaves.Failures)
}

// TestApplyDamage_NPCDiesAtZero: npcs share the monster drop rule and
// die outright at 0 hp, with no unconsciousness or death saves.
func TestApplyDamage_NPCDiesAtZero(t *testing.T) {
	kind, err := encounter.ParseKind("npc")
	require.NoError(t, err)
	require.Equal(t, encounter.KindNPC, kind)

	src := &script{vals: []int{19, 4}}
	p := player("P", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	n := npc("N", 5, 10, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{p, n})

	res, err := e.ApplyDamage("N", 5)
	require.NoError(t, err)
	assert.True(t, res.Killed)
	assert.False(t, res.Dropped)
	assert.True(t, n.Dead)
	assert.False(t, n.Conditions.Has(condition.Unconscious))
}

// TestMove_ChargesAllowance: movement feet accumulate across moves and
// run out at the speed cap.
func TestMove_ChargesAllowance(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 9, Y: 9})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	res, err := e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 3, Y: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Move.CostFeet)
	assert.Equal(t, 15, res.Move.RemainingFeet)
	assert.Equal(t, geometry.Position{X: 3, Y: 0}, a.Position)
	assert.False(t, a.Economy.ActionUsed, "plain movement is free of the action slot")

	res, err = e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 6, Y: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Move.RemainingFeet)

	_, err = e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 7, Y: 0},
	})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
	assert.Equal(t, geometry.Position{X: 6, Y: 0}, a.Position)
}

// TestMove_UnreachableLeavesStateUntouched: a destination beyond the
// allowance fails without spending movement.
func TestMove_UnreachableLeavesStateUntouched(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 9, Y: 9})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	_, err := e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 9, Y: 0},
	})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
	assert.Equal(t, geometry.Position{X: 0, Y: 0}, a.Position)
	assert.Equal(t, 0, a.Economy.MovementUsed)
}

// TestDash_DoublesAllowanceAndSpendsAction: dashing reaches squares a
// plain move cannot, at the cost of the action slot.
func TestDash_DoublesAllowanceAndSpendsAction(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	a.DamageExpr = "1d6"
	b := monster("B", 20, 10, 30, geometry.Position{X: 9, Y: 9})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	res, err := e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionDash,
		Destination: geometry.Position{X: 8, Y: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Move.CostFeet)
	assert.True(t, res.Move.Dashed)
	assert.True(t, a.Economy.ActionUsed)

	_, err = e.ExecuteAction("A", encounter.Action{Type: encounter.ActionAttack, TargetID: "B"})
	assert.ErrorIs(t, err, encounter.ErrIllegalState, "dash consumed the action")
}

// TestMove_OccupiedAndObstacleDestinations: squares held by living
// combatants or obstacle terrain cannot be entered.
func TestMove_OccupiedAndObstacleDestinations(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 2, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b},
		func(p *encounter.Params) {
			p.Terrain = []encounter.TerrainCell{
				{Position: geometry.Position{X: 0, Y: 2}, Kind: encounter.TerrainObstacle},
			}
		})

	_, err := e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 2, Y: 0},
	})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)

	_, err = e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 0, Y: 2},
	})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
}

// TestMove_DifficultTerrainSurcharge: each difficult square entered
// costs an extra square of movement.
func TestMove_DifficultTerrainSurcharge(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 9, Y: 9})
	e := newEncounter(t, src, []*encounter.Participant{a, b},
		func(p *encounter.Params) {
			p.Terrain = []encounter.TerrainCell{
				{Position: geometry.Position{X: 1, Y: 0}, Kind: encounter.TerrainDifficult},
			}
		})

	res, err := e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 2, Y: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Move.CostFeet, "two squares plus the difficult surcharge")
}

// TestMove_GrappledCannotMove: a zeroed speed multiplier leaves no
// allowance at all.
func TestMove_GrappledCannotMove(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 9, Y: 9})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	require.NoError(t, a.Conditions.Apply(condition.Grappled, condition.Indefinite, "test"))
	_, err := e.ExecuteAction("A", encounter.Action{
		Type:        encounter.ActionMove,
		Destination: geometry.Position{X: 1, Y: 0},
	})
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
}

// TestConcentration_BrokenByAttackDamage: weapon damage forces the save
// and a failed save drops the spell.
func TestConcentration_BrokenByAttackDamage(t *testing.T) {
	src := &script{vals: []int{
		4, 19, // initiative: M first
		10, 2, // M hits: die 11 (+10), damage 1d4+9: die 3 → 12 total
		3, // P's concentration save: die 4 vs DC 10 → broken
	}}
	p := player("P", 30, 10, 30, geometry.Position{X: 0, Y: 0})
	m := monster("M", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	m.AttackBonus = 10
	m.DamageExpr = "1d4+9"
	e := newEncounter(t, src, []*encounter.Participant{p, m})

	broken, err := e.SetConcentration("P", "bless", []string{"P"}, 10)
	require.NoError(t, err)
	assert.Nil(t, broken)

	res, err := e.ExecuteAction("M", encounter.Action{Type: encounter.ActionAttack, TargetID: "P"})
	require.NoError(t, err)
	require.True(t, res.Attack.Hit)
	assert.Equal(t, "bless", res.Attack.ConcentrationBroken)
	_, ok := e.Concentration().Get("P")
	assert.False(t, ok)
}

// TestConcentration_DeathBreaksSilently: a killed concentrator loses the
// spell without a save.
func TestConcentration_DeathBreaksSilently(t *testing.T) {
	src := &script{vals: []int{
		4, 19, // initiative: M first
		10, 3, // M hits C for 4+30, killing it outright
	}}
	c := monster("C", 10, 10, 30, geometry.Position{X: 0, Y: 0})
	m := monster("M", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	m.AttackBonus = 10
	m.DamageExpr = "1d4+30"
	e := newEncounter(t, src, []*encounter.Participant{c, m})

	_, err := e.SetConcentration("C", "hold person", nil, 10)
	require.NoError(t, err)

	res, err := e.ExecuteAction("M", encounter.Action{Type: encounter.ActionAttack, TargetID: "C"})
	require.NoError(t, err)
	require.True(t, res.Attack.Killed)
	assert.Equal(t, "hold person", res.Attack.ConcentrationBroken)
	_, ok := e.Concentration().Get("C")
	assert.False(t, ok)
}
