package encounter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
)

// TestAura_DamageWithSaveHalf: a successful save halves damage, a failed
// one takes it in full, and the aura expires when its duration runs out.
func TestAura_DamageWithSaveHalf(t *testing.T) {
	src := &script{vals: []int{
		19, 10, 0, // initiative: O, B, C
		14, 7, // tick 1: B saves (15 vs DC 10), takes 8/2 = 4
		2, 7, // tick 2: B fails (3 vs DC 10), takes 8
	}}
	o := monster("O", 20, 10, 30, geometry.Position{X: 0, Y: 0})
	b := player("B", 20, 12, 30, geometry.Position{X: 1, Y: 0})
	c := player("C", 20, 12, 30, geometry.Position{X: 9, Y: 9})
	e := newEncounter(t, src, []*encounter.Participant{o, b, c})

	id, err := e.AddAura(encounter.AuraParams{
		Name:     "spirit guardians",
		OwnerID:  "O",
		Radius:   10,
		Duration: 2,
		Effect: encounter.AuraEffect{
			Damage: "1d8",
			Save:   &encounter.SaveSpec{DC: 10, Half: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, e.Auras(), 1)

	results, err := e.ProcessAuras([]string{"B", "C"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Affected, 1, "C is out of range")
	hit := results[0].Affected[0]
	assert.Equal(t, "B", hit.ParticipantID)
	assert.True(t, hit.Saved)
	assert.Equal(t, 4, hit.Damage)
	assert.Equal(t, 16, b.HP)
	assert.False(t, results[0].Expired)

	results, err = e.ProcessAuras([]string{"B", "C"})
	require.NoError(t, err)
	hit = results[0].Affected[0]
	assert.False(t, hit.Saved)
	assert.Equal(t, 8, hit.Damage)
	assert.Equal(t, 8, b.HP)
	assert.True(t, results[0].Expired)
	assert.Empty(t, e.Auras())

	err = e.RemoveAura(id)
	assert.ErrorIs(t, err, encounter.ErrNotFound)
}

// TestAura_ConditionNegatedOnSave: the condition payload only lands on a
// failed save.
func TestAura_ConditionNegatedOnSave(t *testing.T) {
	src := &script{vals: []int{
		19, 4, // initiative
		19, // tick 1: B saves (20 vs DC 15)
		0,  // tick 2: B fails (1 vs DC 15)
	}}
	o := monster("O", 20, 10, 30, geometry.Position{X: 0, Y: 0})
	b := player("B", 20, 12, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{o, b})

	_, err := e.AddAura(encounter.AuraParams{
		Name:    "stinking cloud",
		OwnerID: "O",
		Radius:  10,
		Effect: encounter.AuraEffect{
			Condition:         condition.Poisoned,
			ConditionDuration: 2,
			Save:              &encounter.SaveSpec{DC: 15},
		},
	})
	require.NoError(t, err)

	results, err := e.ProcessAuras([]string{"B"})
	require.NoError(t, err)
	assert.Equal(t, condition.KindUnknown, results[0].Affected[0].ConditionApplied)
	assert.False(t, b.Conditions.Has(condition.Poisoned))

	results, err = e.ProcessAuras([]string{"B"})
	require.NoError(t, err)
	assert.Equal(t, condition.Poisoned, results[0].Affected[0].ConditionApplied)
	assert.True(t, b.Conditions.Has(condition.Poisoned))
}

// TestAura_OwnerDeathExpires: an aura whose owner died expires on the
// next processing pass without affecting anyone.
func TestAura_OwnerDeathExpires(t *testing.T) {
	src := &script{vals: []int{
		19, 0, // initiative: B first
		10, 0, // B kills O: die 11 (+5 = 16), damage 1 (+10 = 11)
	}}
	b := player("B", 20, 12, 30, geometry.Position{X: 0, Y: 0})
	b.AttackBonus = 5
	b.DamageExpr = "1d4+10"
	o := monster("O", 4, 10, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{b, o})

	_, err := e.AddAura(encounter.AuraParams{
		Name:    "fire shield",
		OwnerID: "O",
		Radius:  10,
		Effect:  encounter.AuraEffect{Damage: "1d6"},
	})
	require.NoError(t, err)

	res, err := e.ExecuteAction("B", encounter.Action{Type: encounter.ActionAttack, TargetID: "O"})
	require.NoError(t, err)
	require.True(t, res.Attack.Killed)

	results, err := e.ProcessAuras([]string{"B"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Expired)
	assert.Empty(t, results[0].Affected)
	assert.Empty(t, e.Auras())
}

// TestAura_HealingWakesTheDowned: aura healing that lifts a player above
// 0 hp clears the unconscious condition and resets their death saves.
func TestAura_HealingWakesTheDowned(t *testing.T) {
	e, p := dropPlayer(t, 2)

	_, err := e.AddAura(encounter.AuraParams{
		Name:    "healing spirit",
		OwnerID: "M",
		Radius:  10,
		Effect:  encounter.AuraEffect{Healing: "1d4"},
	})
	require.NoError(t, err)

	results, err := e.ProcessAuras([]string{"P"})
	require.NoError(t, err)
	require.Len(t, results[0].Affected, 1)
	assert.Equal(t, 3, results[0].Affected[0].Healing)
	assert.Equal(t, 3, p.HP)
	assert.False(t, p.Conditions.Has(condition.Unconscious))
	assert.Equal(t, encounter.DeathSaves{}, p.DeathSaves)
}

// TestAura_HealingCapped: healing never lifts hit points past the
// maximum; the reported amount is what was actually gained.
func TestAura_HealingCapped(t *testing.T) {
	src := &script{vals: []int{19, 4, 3}}
	o := monster("O", 20, 10, 30, geometry.Position{X: 0, Y: 0})
	b := player("B", 20, 12, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{o, b})
	b.HP = 12

	_, err := e.AddAura(encounter.AuraParams{
		Name:    "healing spirit",
		OwnerID: "O",
		Radius:  10,
		Effect:  encounter.AuraEffect{Healing: "1d4+10"},
	})
	require.NoError(t, err)

	results, err := e.ProcessAuras([]string{"B"})
	require.NoError(t, err)
	assert.Equal(t, 8, results[0].Affected[0].Healing)
	assert.Equal(t, 20, b.HP)
}

// TestAddAura_Validation: malformed aura params are rejected up front.
func TestAddAura_Validation(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	o := monster("O", 20, 10, 30, geometry.Position{X: 0, Y: 0})
	b := player("B", 20, 12, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{o, b})

	ok := func() encounter.AuraParams {
		return encounter.AuraParams{Name: "aura", OwnerID: "O", Radius: 10}
	}
	cases := map[string]struct {
		mutate func(*encounter.AuraParams)
		want   error
	}{
		"unknown owner": {func(p *encounter.AuraParams) { p.OwnerID = "ghost" }, encounter.ErrNotFound},
		"no name":       {func(p *encounter.AuraParams) { p.Name = "" }, encounter.ErrInvalid},
		"bad radius":    {func(p *encounter.AuraParams) { p.Radius = 0 }, encounter.ErrInvalid},
		"bad damage":    {func(p *encounter.AuraParams) { p.Effect.Damage = "d6x" }, encounter.ErrInvalid},
		"bad healing":   {func(p *encounter.AuraParams) { p.Effect.Healing = "0d4" }, encounter.ErrInvalid},
		"bad save dc":   {func(p *encounter.AuraParams) { p.Effect.Save = &encounter.SaveSpec{DC: 0} }, encounter.ErrInvalid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			params := ok()
			tc.mutate(&params)
			_, err := e.AddAura(params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, e.Auras())
}

// TestModifyTerrain_Lifecycle: set, clear, and reset batches, with the
// occupied-square guard.
func TestModifyTerrain_Lifecycle(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 2, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	err := e.ModifyTerrain(encounter.TerrainChange{
		Op: encounter.TerrainSet,
		Cells: []encounter.TerrainCell{
			{Position: geometry.Position{X: 5, Y: 5}, Kind: encounter.TerrainDifficult},
			{Position: geometry.Position{X: 6, Y: 5}, Kind: encounter.TerrainWater},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, encounter.TerrainDifficult, e.TerrainAt(geometry.Position{X: 5, Y: 5}))
	assert.Len(t, e.Terrain(), 2)

	err = e.ModifyTerrain(encounter.TerrainChange{
		Op: encounter.TerrainSet,
		Cells: []encounter.TerrainCell{
			{Position: geometry.Position{X: 2, Y: 0}, Kind: encounter.TerrainObstacle},
		},
	})
	assert.ErrorIs(t, err, encounter.ErrIllegalState, "B stands there")

	err = e.ModifyTerrain(encounter.TerrainChange{
		Op:    encounter.TerrainClear,
		Cells: []encounter.TerrainCell{{Position: geometry.Position{X: 5, Y: 5}}},
	})
	require.NoError(t, err)
	assert.Equal(t, encounter.TerrainNormal, e.TerrainAt(geometry.Position{X: 5, Y: 5}))

	require.NoError(t, e.ModifyTerrain(encounter.TerrainChange{Op: encounter.TerrainReset}))
	assert.Empty(t, e.Terrain())
}

// TestManage_ConditionsAndConcentration: the host-facing management
// surface validates targets and reports silent breaks.
func TestManage_ConditionsAndConcentration(t *testing.T) {
	src := &script{vals: []int{19, 4}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	require.NoError(t, e.ApplyCondition("A", condition.Frightened, 3, "dragon"))
	assert.True(t, a.Conditions.Has(condition.Frightened))
	assert.ErrorIs(t, e.ApplyCondition("ghost", condition.Prone, 1, ""), encounter.ErrNotFound)
	assert.ErrorIs(t, e.ApplyCondition("A", condition.KindUnknown, 1, ""), encounter.ErrInvalid)

	require.NoError(t, e.RemoveCondition("A", condition.Frightened))
	assert.False(t, a.Conditions.Has(condition.Frightened))
	require.NoError(t, e.RemoveCondition("A", condition.Frightened), "removing an absent condition is a no-op")

	broken, err := e.SetConcentration("A", "bless", nil, 10)
	require.NoError(t, err)
	assert.Nil(t, broken)

	broken, err = e.SetConcentration("A", "haste", nil, 10)
	require.NoError(t, err)
	require.NotNil(t, broken)
	assert.Equal(t, "bless", broken.Spell)

	r, ok, err := e.BreakConcentration("A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "haste", r.Spell)

	_, ok, err = e.BreakConcentration("A")
	require.NoError(t, err)
	assert.False(t, ok)

	check, err := e.CheckConcentration("A", 12, dice.Normal)
	require.NoError(t, err)
	assert.False(t, check.Concentrating)
}

// TestApplyDamage_DirectDamage: flat damage follows the normal drop rules
// and forces concentration saves.
func TestApplyDamage_DirectDamage(t *testing.T) {
	src := &script{vals: []int{19, 4, 3}}
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 8, 10, 30, geometry.Position{X: 1, Y: 0})
	e := newEncounter(t, src, []*encounter.Participant{a, b})

	_, err := e.SetConcentration("A", "shield of faith", nil, 10)
	require.NoError(t, err)

	// 12 damage → DC 10; save draw 3 → 4 + 0 fails.
	res, err := e.ApplyDamage("A", 12)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Lost)
	assert.Equal(t, 0, res.HP)
	assert.True(t, res.Dropped)
	assert.False(t, res.Killed)
	assert.Equal(t, "shield of faith", res.ConcentrationBroken)
	assert.True(t, a.Conditions.Has(condition.Unconscious))

	// Monsters die outright at 0.
	res, err = e.ApplyDamage("B", 8)
	require.NoError(t, err)
	assert.True(t, res.Killed)
	assert.True(t, b.Dead)

	_, err = e.ApplyDamage("B", 1)
	assert.ErrorIs(t, err, encounter.ErrIllegalState)
	_, err = e.ApplyDamage("A", -1)
	assert.ErrorIs(t, err, encounter.ErrInvalid)
	_, err = e.ApplyDamage("ghost", 1)
	assert.ErrorIs(t, err, encounter.ErrNotFound)
}

// recorder captures hook events.
type recorder struct {
	applied []condition.Kind
	expired []condition.Kind
	auras   []string
}

func (r *recorder) ConditionApplied(_, _ string, kind condition.Kind) {
	r.applied = append(r.applied, kind)
}

func (r *recorder) ConditionExpired(_, _ string, kind condition.Kind) {
	r.expired = append(r.expired, kind)
}

func (r *recorder) AuraTicked(_, auraID string, _ []string) {
	r.auras = append(r.auras, auraID)
}

// TestHooks_FireOnLifecycleEvents: condition application, expiry, and
// aura ticks reach the hook set.
func TestHooks_FireOnLifecycleEvents(t *testing.T) {
	rec := &recorder{}
	src := &script{vals: []int{19, 4}}
	roller := dice.NewLoggedRoller(src, zap.NewNop())
	a := player("A", 10, 12, 30, geometry.Position{X: 0, Y: 0})
	b := monster("B", 20, 10, 30, geometry.Position{X: 1, Y: 0})
	e, err := encounter.New(encounter.Params{
		ID:           "enc-hooks",
		Participants: []*encounter.Participant{a, b},
		Width:        10,
		Height:       10,
	}, roller, condition.DefaultRegistry(), rec, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, e.ApplyCondition("A", condition.Prone, 1, ""))
	assert.Equal(t, []condition.Kind{condition.Prone}, rec.applied)

	id, err := e.AddAura(encounter.AuraParams{
		Name: "ward", OwnerID: "B", Radius: 10,
		Effect: encounter.AuraEffect{Healing: "1d4"},
	})
	require.NoError(t, err)
	_, err = e.ProcessAuras(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, rec.auras)

	// Prone ticks away at the end of A's turn.
	_, err = e.AdvanceTurn()
	require.NoError(t, err)
	assert.Equal(t, []condition.Kind{condition.Prone}, rec.expired)
}
