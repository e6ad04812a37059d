// Package main provides the skirmish engine host binary. It loads
// configuration, builds the encounter engine with its condition registry
// and Lua hook scripts, and runs under lifecycle management until
// signalled.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/skirmish.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cryptoSrc := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(cryptoSrc, logger)

	// Load condition definitions: builtin rules plus optional YAML overlay.
	condRegistry := condition.DefaultRegistry()
	if cfg.Engine.ConditionDir != "" {
		condStart := time.Now()
		if err := condRegistry.LoadDirectory(cfg.Engine.ConditionDir); err != nil {
			logger.Fatal("loading condition definitions",
				zap.String("dir", cfg.Engine.ConditionDir), zap.Error(err))
		}
		logger.Info("condition definitions loaded",
			zap.String("dir", cfg.Engine.ConditionDir),
			zap.Duration("elapsed", time.Since(condStart)))
	}

	// Initialise scripting and the hook dispatcher.
	var scriptMgr *scripting.Manager
	var hooks encounter.Hooks
	if cfg.Scripting.Dir != "" {
		scriptStart := time.Now()
		scriptMgr = scripting.NewManager(roller, logger)

		if info, statErr := os.Stat(cfg.Scripting.Dir); statErr == nil && info.IsDir() {
			if err := scriptMgr.LoadGlobal(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
				logger.Fatal("loading hook scripts",
					zap.String("dir", cfg.Scripting.Dir), zap.Error(err))
			}
			logger.Info("hook scripts loaded",
				zap.String("dir", cfg.Scripting.Dir),
				zap.Duration("elapsed", time.Since(scriptStart)))
		} else {
			logger.Warn("script dir not found, scripting disabled",
				zap.String("dir", cfg.Scripting.Dir))
			scriptMgr.Close()
			scriptMgr = nil
		}
		if scriptMgr != nil {
			hooks = scripting.NewDispatcher(scriptMgr)
		}
	}

	eng := encounter.NewEngine(roller, condRegistry, hooks, logger)

	if scriptMgr != nil {
		// Wire engine.* callbacks back into the encounter engine.
		scriptMgr.GetParticipant = func(encounterID, participantID string) *scripting.ParticipantInfo {
			enc, err := eng.Encounter(encounterID)
			if err != nil {
				return nil
			}
			p, err := enc.Participant(participantID)
			if err != nil {
				return nil
			}
			return participantInfo(p)
		}
		scriptMgr.Participants = func(encounterID string) []*scripting.ParticipantInfo {
			enc, err := eng.Encounter(encounterID)
			if err != nil {
				return nil
			}
			parts := enc.Participants()
			out := make([]*scripting.ParticipantInfo, 0, len(parts))
			for _, p := range parts {
				out = append(out, participantInfo(p))
			}
			return out
		}
		scriptMgr.ApplyCondition = func(encounterID, participantID, kindName string, duration int) error {
			enc, err := eng.Encounter(encounterID)
			if err != nil {
				return err
			}
			kind, err := condition.ParseKind(kindName)
			if err != nil {
				return err
			}
			return enc.ApplyCondition(participantID, kind, duration, "script")
		}
		scriptMgr.ApplyDamage = func(encounterID, participantID string, amount int) error {
			enc, err := eng.Encounter(encounterID)
			if err != nil {
				return err
			}
			_, err = enc.ApplyDamage(participantID, amount)
			return err
		}
	}

	lifecycle := server.NewLifecycle(logger)

	engineStop := make(chan struct{})
	lifecycle.Add("engine", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					logger.Debug("engine status",
						zap.Int("encounters", len(eng.List())))
				case <-engineStop:
					return nil
				}
			}
		},
		StopFn: func() {
			close(engineStop)
			if scriptMgr != nil {
				scriptMgr.Close()
			}
		},
	})

	logger.Info("skirmish engine initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("grid_width", cfg.Engine.GridWidth),
		zap.Int("grid_height", cfg.Engine.GridHeight),
		zap.String("distance_mode", cfg.Engine.DistanceMode))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("engine error", zap.Error(err))
	}
}

func participantInfo(p *encounter.Participant) *scripting.ParticipantInfo {
	conds := make([]string, 0, p.Conditions.Len())
	for _, inst := range p.Conditions.All() {
		conds = append(conds, inst.Kind.String())
	}
	return &scripting.ParticipantInfo{
		ID:         p.ID,
		Name:       p.Name,
		Kind:       p.Kind.String(),
		HP:         p.HP,
		MaxHP:      p.MaxHP,
		AC:         p.AC,
		Conditions: conds,
	}
}
