package physics

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/arena-duel/game"
)

func newTestWorld(t *testing.T, width, height float64) *World {
	t.Helper()
	return NewWorld(game.Arena{Width: width, Height: height}, rand.New(rand.NewSource(1)), log.New(io.Discard))
}

func mustAdd(t *testing.T, w *World, name string, pos game.Point, heading float64) *Body {
	t.Helper()
	body, err := w.AddRobot(name, pos, heading)
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return body
}

func eventsOf(events []game.GameEvent, kind game.EventType) []game.GameEvent {
	var out []game.GameEvent
	for _, ev := range events {
		if ev.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestWorld_AddRobotDuplicate(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	mustAdd(t, w, "a", game.Point{X: 100, Y: 100}, 0)
	if _, err := w.AddRobot("a", game.Point{X: 200, Y: 200}, 0); !errors.Is(err, ErrDuplicateRobot) {
		t.Fatalf("expected ErrDuplicateRobot, got %v", err)
	}
}

func TestWorld_UnknownRobot(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	if err := w.Order("ghost", nil); !errors.Is(err, ErrUnknownRobot) {
		t.Fatalf("order: expected ErrUnknownRobot, got %v", err)
	}
	if _, err := w.SelfState("ghost"); !errors.Is(err, ErrUnknownRobot) {
		t.Fatalf("self state: expected ErrUnknownRobot, got %v", err)
	}
	if _, err := w.Stats("ghost"); !errors.Is(err, ErrUnknownRobot) {
		t.Fatalf("stats: expected ErrUnknownRobot, got %v", err)
	}
}

func TestWorld_TurnThenMove(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	mustAdd(t, w, "a", game.Point{X: 400, Y: 300}, 0)

	if err := w.Order("a", []game.Command{
		{Kind: game.CommandRotateBody, Value: 90},
		{Kind: game.CommandMove, Value: 100},
	}); err != nil {
		t.Fatalf("order: %v", err)
	}

	ticks := 0
	for ; ticks < 100; ticks++ {
		self, _ := w.SelfState("a")
		if ticks > 0 && !self.Moving {
			break
		}
		w.Step()
		self, _ = w.SelfState("a")
		if self.Velocity > MaxVelocity {
			t.Fatalf("tick %d: velocity %g over the limit", ticks, self.Velocity)
		}
	}

	self, _ := w.SelfState("a")
	if self.Heading != 90 {
		t.Fatalf("expected heading 90, got %g", self.Heading)
	}
	if math.Abs(self.Position.X-500) > 1e-9 || math.Abs(self.Position.Y-300) > 1e-9 {
		t.Fatalf("expected to arrive at (500,300), got %+v", self.Position)
	}
	// 9 turning ticks, then 1+2+...+8 and eight more at full speed
	if ticks != 25 {
		t.Fatalf("expected the order to take 25 ticks, took %d", ticks)
	}
}

func TestWorld_ReverseMove(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	mustAdd(t, w, "a", game.Point{X: 400, Y: 300}, 0)
	_ = w.Order("a", []game.Command{{Kind: game.CommandRotateBody, Value: 0}, {Kind: game.CommandMove, Value: -50}})

	for i := 0; i < 50; i++ {
		w.Step()
	}
	self, _ := w.SelfState("a")
	if math.Abs(self.Position.Y-250) > 1e-9 || self.Heading != 0 || self.Moving {
		t.Fatalf("expected to back up to y=250 facing north, got %+v", self)
	}
}

func TestWorld_WallStopsMove(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	mustAdd(t, w, "a", game.Point{X: 40, Y: 300}, 270)
	_ = w.Order("a", []game.Command{{Kind: game.CommandMove, Value: 200}})

	for i := 0; i < 40; i++ {
		w.Step()
	}
	self, _ := w.SelfState("a")
	if self.Position.X != RobotRadius {
		t.Fatalf("expected to stop against the wall at x=%g, got %g", RobotRadius, self.Position.X)
	}
	if self.Moving {
		t.Fatalf("wall contact must cancel the remaining move")
	}
}

func TestWorld_FireWaitsForGunTurn(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	a := mustAdd(t, w, "a", game.Point{X: 400, Y: 300}, 0)
	a.GunHeat = 0
	_ = w.Order("a", []game.Command{{Kind: game.CommandRotateGun, Value: 90}, {Kind: game.CommandFire, Value: 1}})

	for tick := 1; tick <= 4; tick++ {
		w.Step()
		if len(w.Shells()) != 0 {
			t.Fatalf("tick %d: fired before the gun finished turning", tick)
		}
	}
	w.Step()
	shells := w.Shells()
	if len(shells) != 1 || shells[0].Heading != 90 || shells[0].Speed != 17 {
		t.Fatalf("expected one power-1 shell heading 90, got %+v", shells)
	}
	if a.Energy != StartEnergy-1 || math.Abs(a.GunHeat-GunHeatFor(1)) > 1e-9 {
		t.Fatalf("firing must cost energy and heat the gun, energy=%g heat=%g", a.Energy, a.GunHeat)
	}
}

func TestWorld_ColdGunReachesZero(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	mustAdd(t, w, "a", game.Point{X: 400, Y: 300}, 0)
	for i := 0; i < 30; i++ {
		w.Step()
	}
	self, _ := w.SelfState("a")
	if self.GunHeat != 0 {
		t.Fatalf("expected a cold gun after 30 ticks, got heat %g", self.GunHeat)
	}
}

func TestWorld_BulletHit(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	a := mustAdd(t, w, "a", game.Point{X: 400, Y: 100}, 0)
	b := mustAdd(t, w, "b", game.Point{X: 400, Y: 300}, 90)
	a.GunHeat = 0
	_ = w.Order("a", []game.Command{{Kind: game.CommandRotateGun, Value: 0}, {Kind: game.CommandFire, Value: 3}})

	var hit []game.GameEvent
	for i := 0; i < 40 && len(hit) == 0; i++ {
		hit = eventsOf(w.Step()["b"], game.EventHitByBullet)
	}
	if len(hit) != 1 {
		t.Fatalf("expected b to be hit once, got %d", len(hit))
	}
	data := hit[0].Data.(game.HitByBulletEvent)
	if data.Name != "a" || data.Heading != 0 || data.Power != 3 {
		t.Fatalf("unexpected hit event %+v", data)
	}

	if b.Energy != StartEnergy-BulletDamage(3) {
		t.Fatalf("expected victim energy %g, got %g", StartEnergy-BulletDamage(3), b.Energy)
	}
	if a.Energy != StartEnergy-3+BulletEnergyGain(3) {
		t.Fatalf("expected shooter energy %g, got %g", StartEnergy-3+BulletEnergyGain(3), a.Energy)
	}
	stats, _ := w.Stats("a")
	if stats.ShotsFired != 1 || stats.ShotsHit != 1 || stats.DamageDealt != 16 {
		t.Fatalf("unexpected shooter stats %+v", stats)
	}
	if len(w.Shells()) != 0 {
		t.Fatalf("shell must be removed after a hit")
	}
}

func TestWorld_ShellLeavesArena(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	a := mustAdd(t, w, "a", game.Point{X: 400, Y: 300}, 90)
	a.GunHeat = 0
	_ = w.Order("a", []game.Command{{Kind: game.CommandRotateGun, Value: 0}, {Kind: game.CommandFire, Value: 0.01}})

	w.Step()
	if len(w.Shells()) != 1 || w.Shells()[0].Power != MinPower {
		t.Fatalf("expected one shell clamped to min power, got %+v", w.Shells())
	}
	for i := 0; i < 30; i++ {
		w.Step()
	}
	if len(w.Shells()) != 0 {
		t.Fatalf("shell should have left the arena")
	}
}

func TestWorld_RadarSweep(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	origin := game.Point{X: 400, Y: 300}
	mustAdd(t, w, "a", origin, 0)
	mustAdd(t, w, "b", game.Project(origin, 100, 30), 180)

	if scans := eventsOf(w.Step()["a"], game.EventScannedRobot); len(scans) != 0 {
		t.Fatalf("a still radar must not scan, got %d", len(scans))
	}

	_ = w.Order("a", []game.Command{{Kind: game.CommandRotateRadar, Value: 45}})
	scans := eventsOf(w.Step()["a"], game.EventScannedRobot)
	if len(scans) != 1 {
		t.Fatalf("expected one scan, got %d", len(scans))
	}
	scan := scans[0].Data.(game.ScanEvent)
	if scan.Name != "b" || math.Abs(scan.Bearing-30) > 1e-9 || math.Abs(scan.Distance-100) > 1e-9 || scan.Heading != 180 {
		t.Fatalf("unexpected scan %+v", scan)
	}
	if scan.Self.Position != origin {
		t.Fatalf("scan must carry the scanner's own state")
	}
}

func TestWorld_RadarRange(t *testing.T) {
	w := newTestWorld(t, 2000, 2000)
	mustAdd(t, w, "a", game.Point{X: 100, Y: 100}, 0)
	mustAdd(t, w, "b", game.Point{X: 100, Y: 1400}, 0)
	_ = w.Order("a", []game.Command{{Kind: game.CommandRotateRadar, Value: 45}})
	if scans := eventsOf(w.Step()["a"], game.EventScannedRobot); len(scans) != 0 {
		t.Fatalf("robot beyond radar range was scanned")
	}
}

func TestWorld_RamAndDeath(t *testing.T) {
	w := newTestWorld(t, 800, 600)
	a := mustAdd(t, w, "a", game.Point{X: 400, Y: 300}, 0)
	b := mustAdd(t, w, "b", game.Point{X: 420, Y: 300}, 0)
	b.Energy = 0.5

	events := w.Step()
	rams := eventsOf(events["a"], game.EventHitRobot)
	if len(rams) != 1 {
		t.Fatalf("expected a ram event for a, got %d", len(rams))
	}
	ram := rams[0].Data.(game.HitRobotEvent)
	if ram.Name != "b" || math.Abs(ram.Bearing-90) > 1e-9 {
		t.Fatalf("unexpected ram event %+v", ram)
	}
	if got := eventsOf(events["b"], game.EventHitRobot); len(got) != 1 || math.Abs(got[0].Data.(game.HitRobotEvent).Bearing+90) > 1e-9 {
		t.Fatalf("b must see a at bearing -90")
	}
	if d := a.Position.Distance(b.Position); math.Abs(d-2*RobotRadius) > 1e-9 {
		t.Fatalf("ram must separate the robots to contact distance, got %g", d)
	}
	if a.Energy != StartEnergy-RamDamage {
		t.Fatalf("expected ram damage on a, energy %g", a.Energy)
	}

	deaths := eventsOf(events["a"], game.EventRobotDeath)
	if len(deaths) != 1 || deaths[0].Data.(game.RobotDeathEvent).Name != "b" {
		t.Fatalf("a must be told b died, got %+v", deaths)
	}
	if w.Alive("b") || len(w.AliveNames()) != 1 {
		t.Fatalf("b should be dead, alive=%v", w.AliveNames())
	}
	if err := w.Order("b", []game.Command{{Kind: game.CommandMove, Value: 10}}); err != nil {
		t.Fatalf("orders to a dead robot are ignored, got %v", err)
	}
}

func TestInArc(t *testing.T) {
	cases := []struct {
		start, sweep, angle float64
		want                bool
	}{
		{350, 45, 10, true},
		{350, 45, 40, false},
		{0, 45, 45, true},
		{10, -45, 340, true},
		{10, -45, 20, false},
		{0, 0, 30, false},
	}
	for _, c := range cases {
		if got := inArc(c.start, c.sweep, c.angle); got != c.want {
			t.Fatalf("inArc(%g, %g, %g): expected %v", c.start, c.sweep, c.angle, c.want)
		}
	}
}

func TestDamageRules(t *testing.T) {
	if BulletDamage(1) != 4 || BulletDamage(3) != 16 || BulletDamage(0.5) != 2 {
		t.Fatalf("unexpected damage %g %g %g", BulletDamage(1), BulletDamage(3), BulletDamage(0.5))
	}
	if BulletEnergyGain(2) != 6 || GunHeatFor(0) != 1 {
		t.Fatalf("unexpected gain or heat")
	}
}
