package physics

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/arena-duel/game"
	"github.com/mark3labs/arena-duel/utils"
)

// MovementPattern selects how an NPC drives
type MovementPattern string

const (
	CircleMovement MovementPattern = "circle"
	ZigzagMovement MovementPattern = "zigzag"
	PatrolMovement MovementPattern = "patrol"
	RandomMovement MovementPattern = "random"
	LinearMovement MovementPattern = "linear"
)

// ParsePattern validates a pattern name from configuration
func ParsePattern(s string) (MovementPattern, error) {
	switch p := MovementPattern(s); p {
	case CircleMovement, ZigzagMovement, PatrolMovement, RandomMovement, LinearMovement:
		return p, nil
	}
	return "", fmt.Errorf("unknown movement pattern %q", s)
}

// NPC driving and gunnery constants
const (
	npcCircleTurn   = 5.0
	npcZigzagAngle  = 40.0
	npcZigzagPeriod = 20
	npcPatrolReach  = 10.0
	npcBoundary     = 80.0
	npcFireRange    = 800.0
	npcFirePower    = 1.5
	npcFireCooldown = 30
	npcAimJitter    = 12.0
)

// NPCTank is the driver state for one computer-controlled robot
type NPCTank struct {
	Name            string
	MovementPattern MovementPattern
	PatrolPoints    []game.Point
	CurrentPoint    int
	LastFire        int64
	FireCooldown    int64
	IsActive        bool

	baseHeading float64
}

// NPCController drives the opponent robots against a single target
type NPCController struct {
	world  *World
	target string
	npcs   map[string]*NPCTank
	order  []string
	rng    *rand.Rand
	logger *log.Logger
}

// NewNPCController creates a controller whose NPCs all hunt target
func NewNPCController(world *World, target string, rng *rand.Rand, logger *log.Logger) *NPCController {
	if logger == nil {
		logger = log.Default()
	}
	return &NPCController{
		world:  world,
		target: target,
		npcs:   make(map[string]*NPCTank),
		rng:    rng,
		logger: logger.WithPrefix("npc"),
	}
}

// SpawnNPC adds a robot to the world and starts driving it. An empty name
// gets a generated callsign; energy <= 0 keeps the standard start energy.
func (c *NPCController) SpawnNPC(name string, pattern MovementPattern, energy float64) (*NPCTank, error) {
	if name != "" && c.nameTaken(name) {
		return nil, fmt.Errorf("spawn %s: %w", name, ErrDuplicateRobot)
	}
	for name == "" || c.nameTaken(name) {
		name = utils.GenerateCallsign(c.rng)
	}

	pos := c.world.RandomPosition()
	heading := c.rng.Float64() * 360
	body, err := c.world.AddRobot(name, pos, heading)
	if err != nil {
		return nil, err
	}
	if energy > 0 {
		body.Energy = energy
	}

	var patrolPoints []game.Point
	if pattern == PatrolMovement {
		// square route around the spawn point, kept off the walls
		size := 50.0 + c.rng.Float64()*50.0
		for _, offset := range [][2]float64{{size, size}, {size, -size}, {-size, -size}, {-size, size}} {
			patrolPoints = append(patrolPoints, c.inside(game.Point{X: pos.X + offset[0], Y: pos.Y + offset[1]}))
		}
	}

	npc := &NPCTank{
		Name:            name,
		MovementPattern: pattern,
		PatrolPoints:    patrolPoints,
		FireCooldown:    npcFireCooldown + int64(c.rng.Intn(15)),
		IsActive:        true,
		baseHeading:     heading,
	}
	c.npcs[name] = npc
	c.order = append(c.order, name)

	if err := c.world.Steer(name, heading, 0); err != nil {
		return nil, err
	}

	c.logger.Info("spawned", "name", name, "pattern", pattern, "x", pos.X, "y", pos.Y)
	return npc, nil
}

func (c *NPCController) nameTaken(name string) bool {
	_, exists := c.world.Body(name)
	return exists
}

// inside pulls a point into the driveable part of the arena
func (c *NPCController) inside(p game.Point) game.Point {
	arena := c.world.Arena()
	margin := npcBoundary
	if p.X < margin {
		p.X = margin
	}
	if p.X > arena.Width-margin {
		p.X = arena.Width - margin
	}
	if p.Y < margin {
		p.Y = margin
	}
	if p.Y > arena.Height-margin {
		p.Y = arena.Height - margin
	}
	return p
}

// Update steers and fires every live NPC for the coming tick
func (c *NPCController) Update() error {
	for _, name := range c.order {
		npc := c.npcs[name]
		body, ok := c.world.Body(name)
		if !ok {
			return fmt.Errorf("npc %s: %w", name, ErrUnknownRobot)
		}
		if !body.Alive {
			if npc.IsActive {
				npc.IsActive = false
				c.logger.Debug("npc down", "name", name)
			}
			continue
		}

		heading, speed := c.updateMovement(npc, body)
		heading = c.boundary(npc, body, heading)
		if err := c.world.Steer(name, heading, speed); err != nil {
			return err
		}
		if err := c.updateAimingAndFiring(npc, body); err != nil {
			return err
		}
	}
	return nil
}

func (c *NPCController) updateMovement(npc *NPCTank, body *Body) (heading, speed float64) {
	switch npc.MovementPattern {
	case CircleMovement:
		return body.Heading + npcCircleTurn, MaxVelocity
	case ZigzagMovement:
		return c.moveInZigzag(npc), 6
	case PatrolMovement:
		return c.moveInPatrol(npc, body), 5
	case RandomMovement:
		return c.moveRandomly(body), 4 + c.rng.Float64()*4
	}
	return body.Heading, MaxVelocity
}

func (c *NPCController) moveInZigzag(npc *NPCTank) float64 {
	if (c.world.Tick()/npcZigzagPeriod)%2 == 0 {
		return npc.baseHeading + npcZigzagAngle
	}
	return npc.baseHeading - npcZigzagAngle
}

func (c *NPCController) moveInPatrol(npc *NPCTank, body *Body) float64 {
	if len(npc.PatrolPoints) == 0 {
		return body.Heading
	}
	target := npc.PatrolPoints[npc.CurrentPoint]
	if body.Position.Distance(target) < npcPatrolReach {
		npc.CurrentPoint = (npc.CurrentPoint + 1) % len(npc.PatrolPoints)
		target = npc.PatrolPoints[npc.CurrentPoint]
		c.logger.Debug("patrol point reached", "name", npc.Name, "next", npc.CurrentPoint)
	}
	return game.AngleTo(body.Position, target)
}

func (c *NPCController) moveRandomly(body *Body) float64 {
	if c.rng.Float64() < 0.2 {
		return body.Heading + (c.rng.Float64()-0.5)*90
	}
	return body.Heading
}

// boundary turns an NPC back toward the centre before it reaches a wall.
// Zigzag drivers also flip their base course so they leave the wall behind.
func (c *NPCController) boundary(npc *NPCTank, body *Body, heading float64) float64 {
	arena := c.world.Arena()
	if npc.MovementPattern == PatrolMovement || arena.Contains(body.Position, npcBoundary) {
		return heading
	}
	centre := game.AngleTo(body.Position, arena.Center())
	if npc.MovementPattern == ZigzagMovement {
		npc.baseHeading = centre
	}
	return centre
}

// updateAimingAndFiring swings the gun head-on at the target and fires when
// the cooldown and gun heat allow
func (c *NPCController) updateAimingAndFiring(npc *NPCTank, body *Body) error {
	target, ok := c.world.Body(c.target)
	if !ok || !target.Alive {
		return nil
	}
	distance := body.Position.Distance(target.Position)
	if distance > npcFireRange {
		return nil
	}

	tick := c.world.Tick()
	if tick-npc.LastFire < npc.FireCooldown || body.GunHeat > 0 {
		return nil
	}

	aim := game.AngleTo(body.Position, target.Position) + (c.rng.Float64()-0.5)*npcAimJitter
	cmds := []game.Command{
		{Kind: game.CommandRotateGun, Value: game.NormalizeRelative(aim - body.GunHeading)},
		{Kind: game.CommandFire, Value: npcFirePower},
	}
	if err := c.world.Order(npc.Name, cmds); err != nil {
		return err
	}
	npc.LastFire = tick

	c.logger.Debug("npc firing", "name", npc.Name, "target", c.target, "distance", distance)
	return nil
}

// GetActiveNPCs returns the names of NPCs still in the match
func (c *NPCController) GetActiveNPCs() []string {
	var names []string
	for _, name := range c.order {
		if c.world.Alive(name) {
			names = append(names, name)
		}
	}
	return names
}

// NPCs returns the driver state for every spawned NPC in spawn order
func (c *NPCController) NPCs() []*NPCTank {
	npcs := make([]*NPCTank, 0, len(c.order))
	for _, name := range c.order {
		npcs = append(npcs, c.npcs[name])
	}
	return npcs
}
