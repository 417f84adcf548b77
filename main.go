package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/arena-duel/bus"
	"github.com/mark3labs/arena-duel/config"
	"github.com/mark3labs/arena-duel/game"
	"github.com/mark3labs/arena-duel/game/physics"
)

func main() {
	config.InitConfig()

	// An unset ARENA_CONFIG means defaults plus env overrides
	path, _ := config.GetEnvVariable(config.EnvConfigFile)
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker, err := bus.StartEmbedded(cfg.Telemetry.StoreDir, logger)
	if err != nil {
		logger.Fatal("failed to start broker", "err", err)
	}
	defer broker.Close()

	kv, err := broker.OpenBucket(ctx, cfg.Telemetry.Bucket)
	if err != nil {
		logger.Fatal("failed to open telemetry bucket", "err", err)
	}

	matchID := uuid.NewString()
	telemetry, err := game.NewManager(ctx, kv, matchID, cfg.Telemetry.SnapshotEvery, logger)
	if err != nil {
		logger.Fatal("failed to initialize telemetry", "err", err)
	}

	match, err := setupMatch(cfg, matchID, telemetry, logger)
	if err != nil {
		logger.Fatal("failed to set up match", "err", err)
	}

	result, err := match.Run(ctx)
	if err != nil {
		logger.Error("match stopped", "err", err)
	}

	logger.Info("result",
		"match", result.MatchID,
		"winner", result.Winner,
		"ticks", result.Ticks,
		"survivors", result.Survivors,
		"damageDealt", result.DamageDealt,
		"damageTaken", result.DamageTaken)
}

// setupMatch builds the world, the agent and its opponents from cfg
func setupMatch(cfg config.Config, matchID string, telemetry *game.Manager, logger *log.Logger) (*physics.Match, error) {
	// separate streams so the agent's search stays reproducible however the
	// opponents consume randomness
	agentRng := rand.New(rand.NewSource(cfg.Match.Seed))
	worldRng := rand.New(rand.NewSource(cfg.Match.Seed + 1))

	planner := game.NewPlanner(cfg.PlannerTuning(), cfg.RiskEvaluator(), agentRng)
	solver := game.NewFiringSolver(cfg.SolverTuning())
	agent := game.NewAgent(logger, cfg.AgentTuning(), planner, solver)

	world := physics.NewWorld(cfg.Arena(), worldRng, logger)
	if _, err := world.AddRobot(cfg.Match.AgentName, world.RandomPosition(), worldRng.Float64()*360); err != nil {
		return nil, err
	}

	npcs := physics.NewNPCController(world, cfg.Match.AgentName, worldRng, logger)
	for _, o := range cfg.Match.Opponents {
		pattern, err := physics.ParsePattern(o.Pattern)
		if err != nil {
			return nil, err
		}
		if _, err := npcs.SpawnNPC(o.Name, pattern, o.Energy); err != nil {
			return nil, err
		}
	}

	return physics.NewMatch(matchID, cfg.Match.AgentName, agent, world, npcs, telemetry, cfg.Match.Ticks, logger), nil
}
