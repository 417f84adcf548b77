package game

import (
	"math"
	"math/rand"
	"testing"
)

func newTestPlanner(seed int64) *Planner {
	return NewPlanner(DefaultPlannerTuning(), DefaultRiskEvaluator(), rand.New(rand.NewSource(seed)))
}

func TestSampleAngle_BulletBand(t *testing.T) {
	p := newTestPlanner(1)
	for i := 0; i < 1000; i++ {
		angle := p.SampleAngle(ModeHitByBullet, 0)
		d := math.Abs(NormalizeRelative(angle - 0))
		if d <= 30 || d >= 150 {
			t.Fatalf("sample %d: angle %g is %g from the bullet line", i, angle, d)
		}
	}
}

func TestSampleAngle_RobotBand(t *testing.T) {
	p := newTestPlanner(2)
	for i := 0; i < 1000; i++ {
		angle := p.SampleAngle(ModeHitRobot, 250)
		d := math.Abs(NormalizeRelative(angle - 250))
		if d <= 90 || d >= 110 {
			t.Fatalf("sample %d: angle %g is %g from the robot bearing", i, angle, d)
		}
	}
}

func TestSampleAngle_UnrestrictedModes(t *testing.T) {
	p := newTestPlanner(3)
	for _, mode := range []Mode{ModeScanning, ModeFired} {
		for i := 0; i < 200; i++ {
			angle := p.SampleAngle(mode, 0)
			if angle < 0 || angle >= 360 {
				t.Fatalf("mode %s: angle %g outside [0,360)", mode, angle)
			}
		}
	}
}

func TestSampleAngle_ExhaustedRejectionsUseBandCentre(t *testing.T) {
	tuning := DefaultPlannerTuning()
	tuning.MaxRejections = 1
	tuning.BulletBand = AngleBand{Min: 89.999, Max: 90.001}
	p := NewPlanner(tuning, DefaultRiskEvaluator(), rand.New(rand.NewSource(4)))

	for i := 0; i < 100; i++ {
		angle := p.SampleAngle(ModeHitByBullet, 10)
		if !tuning.BulletBand.Allows(angle, 10) {
			t.Fatalf("fallback angle %g not inside the band", angle)
		}
	}
}

func TestPlanner_NextStaysInsideWallMargin(t *testing.T) {
	p := newTestPlanner(5)
	arena := Arena{Width: 800, Height: 600}
	r := NewRegistry()
	place(r, "a", Point{X: 700, Y: 500}, 100)

	corner := Point{X: 60, Y: 60}
	for i := 0; i < 50; i++ {
		next := p.Next(PlanRequest{
			Mode:       ModeScanning,
			Current:    corner,
			Last:       corner,
			Previous:   corner,
			Arena:      arena,
			SelfEnergy: 100,
			Registry:   r,
		})
		if next != corner && !arena.Contains(next, 18) {
			t.Fatalf("destination %+v violates the wall margin", next)
		}
	}
}

func TestPlanner_NextPicksDistanceInRange(t *testing.T) {
	p := newTestPlanner(6)
	arena := Arena{Width: 800, Height: 600}
	current := Point{X: 400, Y: 300}
	// a warm start right on the current spot is beaten by any real trial
	next := p.Next(PlanRequest{
		Current:    current,
		Last:       current,
		Previous:   current,
		Arena:      arena,
		SelfEnergy: 100,
		Registry:   NewRegistry(),
	})
	d := current.Distance(next)
	if d < 75 || d > 210 {
		t.Fatalf("expected a leg of 75..210, got %g", d)
	}
}

func TestPlanner_WarmStartWinsWhenNoTrialBeatsIt(t *testing.T) {
	tuning := DefaultPlannerTuning()
	tuning.WallMargin = 1000 // rejects every trial candidate
	p := NewPlanner(tuning, DefaultRiskEvaluator(), rand.New(rand.NewSource(7)))

	previous := Point{X: 123, Y: 456}
	next := p.Next(PlanRequest{
		Current:    Point{X: 400, Y: 300},
		Last:       Point{X: 400, Y: 300},
		Previous:   previous,
		Arena:      Arena{Width: 800, Height: 600},
		SelfEnergy: 100,
		Registry:   NewRegistry(),
	})
	if next != previous {
		t.Fatalf("expected the previous destination %+v, got %+v", previous, next)
	}
}

func TestPlanner_HitByBulletLegCrossesBulletLine(t *testing.T) {
	p := newTestPlanner(8)
	current := Point{X: 400, Y: 300}
	for i := 0; i < 20; i++ {
		next := p.Next(PlanRequest{
			Mode:         ModeHitByBullet,
			AngleToAvoid: 0,
			Current:      current,
			Last:         current,
			Previous:     current,
			Arena:        Arena{Width: 800, Height: 600},
			SelfEnergy:   100,
			Registry:     NewRegistry(),
		})
		d := math.Abs(NormalizeRelative(AngleTo(current, next)))
		if d <= 30 || d >= 150 {
			t.Fatalf("escape leg heading %g is inside the bullet cone", AngleTo(current, next))
		}
	}
}

func TestPlanMove_Forward(t *testing.T) {
	m := PlanMove(Point{X: 0, Y: 0}, 0, Point{X: 100, Y: 100})
	if m.Reverse || !near(m.Turn, 45, 1e-9) || !near(m.Distance, math.Sqrt(20000), 1e-9) {
		t.Fatalf("unexpected move %+v", m)
	}
	cmds := m.Commands()
	if len(cmds) != 2 || cmds[0].Kind != CommandRotateBody || cmds[1].Kind != CommandMove || cmds[1].Value <= 0 {
		t.Fatalf("unexpected commands %+v", cmds)
	}
}

func TestPlanMove_FoldsIntoReverse(t *testing.T) {
	cases := []struct {
		heading float64
		dest    Point
		turn    float64
	}{
		{0, Point{X: 0, Y: -100}, 0},     // straight behind
		{0, Point{X: 100, Y: -100}, -45}, // 135 right folds to -45
		{0, Point{X: -100, Y: -100}, 45}, // -135 folds to 45
		{90, Point{X: -100, Y: 0}, 0},    // -180 folds to 0
	}
	for _, c := range cases {
		m := PlanMove(Point{}, c.heading, c.dest)
		if !m.Reverse {
			t.Fatalf("heading %g to %+v: expected reverse, got %+v", c.heading, c.dest, m)
		}
		if !near(m.Turn, c.turn, 1e-9) {
			t.Fatalf("heading %g to %+v: expected turn %g, got %g", c.heading, c.dest, c.turn, m.Turn)
		}
		if math.Abs(m.Turn) > 90 {
			t.Fatalf("folded turn %g exceeds 90", m.Turn)
		}
		if cmds := m.Commands(); cmds[1].Value >= 0 {
			t.Fatalf("reverse leg must carry a negative distance, got %g", cmds[1].Value)
		}
	}
}
