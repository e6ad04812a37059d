package encounter

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/concentration"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Verbosity selects how much of the encounter a Snapshot carries.
type Verbosity int

const (
	// VerbosityMinimal carries only the lifecycle header.
	VerbosityMinimal Verbosity = iota
	// VerbositySummary adds a hit point and position line per participant.
	VerbositySummary
	// VerbosityStandard adds conditions, economy, auras, and terrain.
	VerbosityStandard
	// VerbosityDetailed adds concentration records and the map render.
	VerbosityDetailed
)

// ParseVerbosity maps a lowercase name to a Verbosity.
func ParseVerbosity(name string) (Verbosity, error) {
	switch name {
	case "minimal":
		return VerbosityMinimal, nil
	case "summary":
		return VerbositySummary, nil
	case "standard":
		return VerbosityStandard, nil
	case "detailed":
		return VerbosityDetailed, nil
	default:
		return VerbosityMinimal, fmt.Errorf("%w: verbosity %q", ErrInvalid, name)
	}
}

// ParticipantView is the read model of one combatant.
type ParticipantView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Position   geometry.Position `json:"position"`
	HP         int               `json:"hp"`
	MaxHP      int               `json:"max_hp"`
	AC         int               `json:"ac,omitempty"`
	Speed      int               `json:"speed,omitempty"`
	Initiative int               `json:"initiative,omitempty"`
	Dead       bool              `json:"dead,omitempty"`
	Stable     bool              `json:"stable,omitempty"`
	DeathSaves *DeathSaves       `json:"death_saves,omitempty"`
	Conditions []string          `json:"conditions,omitempty"`
	Economy    *Economy          `json:"economy,omitempty"`
}

// AuraView is the read model of one aura.
type AuraView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	Radius    int    `json:"radius"`
	Remaining int    `json:"remaining"`
}

// TerrainView is the read model of one non-normal square.
type TerrainView struct {
	Position geometry.Position `json:"position"`
	Kind     string            `json:"kind"`
}

// Snapshot is a point-in-time read model of an encounter. Fields beyond
// the header are filled in according to the requested verbosity.
type Snapshot struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Outcome      string `json:"outcome,omitempty"`
	Round        int    `json:"round"`
	CurrentActor string `json:"current_actor"`

	Participants []ParticipantView `json:"participants,omitempty"`

	Order   []string      `json:"order,omitempty"`
	Auras   []AuraView    `json:"auras,omitempty"`
	Terrain []TerrainView `json:"terrain,omitempty"`

	Concentration []concentration.Record `json:"concentration,omitempty"`
	Render        string                 `json:"render,omitempty"`
}

// Snapshot projects the encounter at the given verbosity. The result
// shares no mutable state with the encounter.
func (e *Encounter) Snapshot(v Verbosity) Snapshot {
	snap := Snapshot{
		ID:           e.ID,
		Status:       e.Status.String(),
		Round:        e.Round,
		CurrentActor: e.Order[e.turnIndex],
	}
	if e.Status == StatusEnded {
		snap.Outcome = e.Outcome.String()
	}
	if v < VerbositySummary {
		return snap
	}

	for _, p := range e.Participants() {
		view := ParticipantView{
			ID:       p.ID,
			Name:     p.Name,
			Kind:     p.Kind.String(),
			Position: p.Position,
			HP:       p.HP,
			MaxHP:    p.MaxHP,
			Dead:     p.Dead,
		}
		if v >= VerbosityStandard {
			view.AC = p.AC
			view.Speed = p.Speed
			view.Initiative = p.Initiative
			view.Stable = p.DeathSaves.Stable
			if p.Kind == KindPlayer && p.AtZero() && !p.Dead {
				ds := p.DeathSaves
				view.DeathSaves = &ds
			}
			for _, inst := range p.Conditions.All() {
				view.Conditions = append(view.Conditions, inst.Kind.String())
			}
			econ := p.Economy
			view.Economy = &econ
		}
		snap.Participants = append(snap.Participants, view)
	}
	if v < VerbosityStandard {
		return snap
	}

	snap.Order = append(snap.Order, e.Order...)
	for _, a := range e.Auras() {
		snap.Auras = append(snap.Auras, AuraView{
			ID:        a.ID,
			Name:      a.Name,
			OwnerID:   a.OwnerID,
			Radius:    a.Radius,
			Remaining: a.Remaining,
		})
	}
	for _, t := range e.Terrain() {
		snap.Terrain = append(snap.Terrain, TerrainView{Position: t.Position, Kind: t.Kind.String()})
	}
	if v < VerbosityDetailed {
		return snap
	}

	for _, owner := range e.concentration.Owners() {
		if r, ok := e.concentration.Get(owner); ok {
			snap.Concentration = append(snap.Concentration, r)
		}
	}
	snap.Render = e.Render()
	return snap
}

// Render draws the battlefield as one text row per grid row. Participant
// squares show the first letter of the name, uppercase for players and
// lowercase for monsters; walls render as '#', obstacles 'O', difficult
// terrain ',', water '~', hazards '^', and open squares '.'.
func (e *Encounter) Render() string {
	rows := make([][]rune, e.height)
	for y := 0; y < e.height; y++ {
		rows[y] = make([]rune, e.width)
		for x := 0; x < e.width; x++ {
			c := grid.Cell{X: x, Y: y}
			switch {
			case e.grid.Impassable(c):
				rows[y][x] = '#'
			default:
				rows[y][x] = '.'
			}
		}
	}
	for pos, kind := range e.terrain {
		if pos.X < 0 || pos.X >= e.width || pos.Y < 0 || pos.Y >= e.height {
			continue
		}
		rows[pos.Y][pos.X] = terrainRune(kind)
	}
	for _, id := range e.Order {
		p := e.participants[id]
		if p.Dead || !e.inBounds(p.Position) {
			continue
		}
		rows[p.Position.Y][p.Position.X] = participantRune(p)
	}

	var b strings.Builder
	for y := 0; y < e.height; y++ {
		b.WriteString(string(rows[y]))
		if y < e.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func terrainRune(kind TerrainKind) rune {
	switch kind {
	case TerrainObstacle:
		return 'O'
	case TerrainDifficult:
		return ','
	case TerrainWater:
		return '~'
	case TerrainHazard:
		return '^'
	default:
		return '.'
	}
}

func participantRune(p *Participant) rune {
	name := p.Name
	if name == "" {
		name = p.ID
	}
	r := rune(name[0])
	if p.Kind == KindPlayer {
		return toUpper(r)
	}
	return toLower(r)
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
