// Package config loads match settings from defaults, an optional YAML tuning
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mark3labs/arena-duel/game"
	"github.com/mark3labs/arena-duel/game/physics"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for settings no match can run with
var ErrInvalid = errors.New("invalid config")

// Environment variables read by Load
const (
	EnvSeed            = "ARENA_SEED"
	EnvTicks           = "ARENA_TICKS"
	EnvWidth           = "ARENA_WIDTH"
	EnvHeight          = "ARENA_HEIGHT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvStoreDir        = "NATS_STORE_DIR"
	EnvTelemetryBucket = "TELEMETRY_BUCKET"
	EnvConfigFile      = "ARENA_CONFIG"
)

type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Match     MatchConfig     `yaml:"match"`
	Planner   PlannerConfig   `yaml:"planner"`
	Risk      RiskConfig      `yaml:"risk"`
	Solver    SolverConfig    `yaml:"solver"`
	Agent     AgentConfig     `yaml:"agent"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type MatchConfig struct {
	Width     float64          `yaml:"width"`
	Height    float64          `yaml:"height"`
	Ticks     int64            `yaml:"ticks"`
	Seed      int64            `yaml:"seed"`
	AgentName string           `yaml:"agent_name"`
	Opponents []OpponentConfig `yaml:"opponents"`
}

// OpponentConfig describes one simulated opponent. An empty name gets a
// generated callsign; energy 0 keeps the standard start energy.
type OpponentConfig struct {
	Name    string  `yaml:"name"`
	Pattern string  `yaml:"pattern"`
	Energy  float64 `yaml:"energy"`
}

type PlannerConfig struct {
	Trials        int            `yaml:"trials"`
	MinDistance   float64        `yaml:"min_distance"`
	MaxDistance   float64        `yaml:"max_distance"`
	WallMargin    float64        `yaml:"wall_margin"`
	BulletBand    game.AngleBand `yaml:"bullet_band"`
	RobotBand     game.AngleBand `yaml:"robot_band"`
	MaxRejections int            `yaml:"max_rejections"`
}

type RiskConfig struct {
	MobilityWeight float64 `yaml:"mobility_weight"`
	EnergyRatioCap float64 `yaml:"energy_ratio_cap"`
}

type SolverConfig struct {
	Iterations           int     `yaml:"iterations"`
	GunTurnRate          float64 `yaml:"gun_turn_rate"`
	PowerScale           float64 `yaml:"power_scale"`
	MaxPower             float64 `yaml:"max_power"`
	TurnThreshold        float64 `yaml:"turn_threshold"`
	ReliabilityThreshold float64 `yaml:"reliability_threshold"`
}

type AgentConfig struct {
	ScanTimeout     int64   `yaml:"scan_timeout"`
	RadarStep       float64 `yaml:"radar_step"`
	CollisionOffset float64 `yaml:"collision_offset"`
}

type TelemetryConfig struct {
	Bucket        string `yaml:"bucket"`
	StoreDir      string `yaml:"store_dir"`
	SnapshotEvery int64  `yaml:"snapshot_every"`
}

// Default returns the canonical settings: an 800x600 arena against three
// opponents with the standard planner, solver and loop constants
func Default() Config {
	planner := game.DefaultPlannerTuning()
	risk := game.DefaultRiskEvaluator()
	solver := game.DefaultSolverTuning()
	agent := game.DefaultAgentTuning()

	return Config{
		LogLevel: "info",
		Match: MatchConfig{
			Width:     800,
			Height:    600,
			Ticks:     5000,
			Seed:      1,
			AgentName: "duelist",
			Opponents: []OpponentConfig{
				{Pattern: string(physics.CircleMovement)},
				{Pattern: string(physics.ZigzagMovement)},
				{Pattern: string(physics.PatrolMovement)},
			},
		},
		Planner: PlannerConfig{
			Trials:        planner.Trials,
			MinDistance:   planner.MinDistance,
			MaxDistance:   planner.MaxDistance,
			WallMargin:    planner.WallMargin,
			BulletBand:    planner.BulletBand,
			RobotBand:     planner.RobotBand,
			MaxRejections: planner.MaxRejections,
		},
		Risk: RiskConfig{
			MobilityWeight: risk.MobilityWeight,
			EnergyRatioCap: risk.EnergyRatioCap,
		},
		Solver: SolverConfig{
			Iterations:           solver.Iterations,
			GunTurnRate:          solver.GunTurnRate,
			PowerScale:           solver.PowerScale,
			MaxPower:             solver.MaxPower,
			TurnThreshold:        solver.TurnThreshold,
			ReliabilityThreshold: solver.ReliabilityThreshold,
		},
		Agent: AgentConfig{
			ScanTimeout:     agent.ScanTimeout,
			RadarStep:       agent.RadarStep,
			CollisionOffset: agent.CollisionOffset,
		},
		Telemetry: TelemetryConfig{
			Bucket:        "arena",
			SnapshotEvery: 10,
		},
	}
}

// InitConfig loads a .env file into the environment when one exists
func InitConfig() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "err", err)
		return
	}
	log.Info("Successfully loaded environment variables")
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil
}

// Load builds the config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, then validates it
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, err := GetEnvVariable(EnvSeed); err == nil {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Match.Seed = seed
	}
	if v, err := GetEnvVariable(EnvTicks); err == nil {
		ticks, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTicks, err)
		}
		c.Match.Ticks = ticks
	}
	if v, err := GetEnvVariable(EnvWidth); err == nil {
		width, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWidth, err)
		}
		c.Match.Width = width
	}
	if v, err := GetEnvVariable(EnvHeight); err == nil {
		height, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeight, err)
		}
		c.Match.Height = height
	}
	if v, err := GetEnvVariable(EnvLogLevel); err == nil {
		c.LogLevel = v
	}
	if v, err := GetEnvVariable(EnvStoreDir); err == nil {
		c.Telemetry.StoreDir = v
	}
	if v, err := GetEnvVariable(EnvTelemetryBucket); err == nil {
		c.Telemetry.Bucket = v
	}
	return nil
}

// Validate rejects settings that would leave the planner, solver or match
// unable to run
func (c Config) Validate() error {
	if c.Match.Width <= 0 || c.Match.Height <= 0 {
		return fmt.Errorf("%w: arena must have positive size, got %gx%g", ErrInvalid, c.Match.Width, c.Match.Height)
	}
	if c.Match.AgentName == "" {
		return fmt.Errorf("%w: agent name is empty", ErrInvalid)
	}
	if c.Planner.Trials <= 0 {
		return fmt.Errorf("%w: planner trials must be positive", ErrInvalid)
	}
	if c.Planner.MaxRejections <= 0 {
		return fmt.Errorf("%w: planner max rejections must be positive", ErrInvalid)
	}
	if c.Planner.MinDistance < 0 || c.Planner.MaxDistance < c.Planner.MinDistance {
		return fmt.Errorf("%w: planner distance range [%g, %g]", ErrInvalid, c.Planner.MinDistance, c.Planner.MaxDistance)
	}
	for name, band := range map[string]game.AngleBand{"bullet": c.Planner.BulletBand, "robot": c.Planner.RobotBand} {
		if band.Min < 0 || band.Max > 180 || band.Max <= band.Min {
			return fmt.Errorf("%w: %s band (%g, %g)", ErrInvalid, name, band.Min, band.Max)
		}
	}
	if c.Solver.Iterations <= 0 {
		return fmt.Errorf("%w: solver iterations must be positive", ErrInvalid)
	}
	if c.Solver.GunTurnRate <= 0 || c.Solver.PowerScale <= 0 || c.Solver.MaxPower <= 0 {
		return fmt.Errorf("%w: solver rates must be positive", ErrInvalid)
	}
	// bullet speed 20-3p must stay positive
	if c.Solver.MaxPower >= 20.0/3 {
		return fmt.Errorf("%w: solver max power %g stops bullets", ErrInvalid, c.Solver.MaxPower)
	}
	if c.Agent.ScanTimeout <= 0 {
		return fmt.Errorf("%w: scan timeout must be positive", ErrInvalid)
	}
	if c.Telemetry.Bucket == "" {
		return fmt.Errorf("%w: telemetry bucket is empty", ErrInvalid)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for i, o := range c.Match.Opponents {
		if _, err := physics.ParsePattern(o.Pattern); err != nil {
			return fmt.Errorf("%w: opponent %d: %v", ErrInvalid, i, err)
		}
		if o.Name == c.Match.AgentName {
			return fmt.Errorf("%w: opponent %d shares the agent name %q", ErrInvalid, i, o.Name)
		}
	}
	return nil
}

// Arena returns the battlefield the match runs in
func (c Config) Arena() game.Arena {
	return game.Arena{Width: c.Match.Width, Height: c.Match.Height}
}

// PlannerTuning converts the planner section
func (c Config) PlannerTuning() game.PlannerTuning {
	return game.PlannerTuning{
		Trials:        c.Planner.Trials,
		MinDistance:   c.Planner.MinDistance,
		MaxDistance:   c.Planner.MaxDistance,
		WallMargin:    c.Planner.WallMargin,
		BulletBand:    c.Planner.BulletBand,
		RobotBand:     c.Planner.RobotBand,
		MaxRejections: c.Planner.MaxRejections,
	}
}

func (c Config) RiskEvaluator() game.RiskEvaluator {
	return game.RiskEvaluator{
		MobilityWeight: c.Risk.MobilityWeight,
		EnergyRatioCap: c.Risk.EnergyRatioCap,
	}
}

func (c Config) SolverTuning() game.SolverTuning {
	return game.SolverTuning{
		Iterations:           c.Solver.Iterations,
		GunTurnRate:          c.Solver.GunTurnRate,
		PowerScale:           c.Solver.PowerScale,
		MaxPower:             c.Solver.MaxPower,
		TurnThreshold:        c.Solver.TurnThreshold,
		ReliabilityThreshold: c.Solver.ReliabilityThreshold,
	}
}

func (c Config) AgentTuning() game.AgentTuning {
	return game.AgentTuning{
		ScanTimeout:     c.Agent.ScanTimeout,
		RadarStep:       c.Agent.RadarStep,
		CollisionOffset: c.Agent.CollisionOffset,
	}
}
