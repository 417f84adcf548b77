package game

// TurnThreshold is the heading change rate (deg/tick) above which an
// observation counts as a turn
const TurnThreshold = 0.01

// unseenCoordinate places a fresh model far outside any arena so it never
// wins a nearest-opponent comparison
const unseenCoordinate = -100000

// Opponent is everything we remember about one enemy robot
type Opponent struct {
	name              string
	alive             bool
	killed            bool
	energy            float64
	position          Point
	heading           float64
	velocity          float64
	headingChangeRate float64
	lastScanTick      int64
	scanCount         int
	turnCount         int
}

// OpponentState is a serializable copy of an Opponent
type OpponentState struct {
	Name              string  `json:"name"`
	Alive             bool    `json:"alive"`
	Energy            float64 `json:"energy"`
	Position          Point   `json:"position"`
	Heading           float64 `json:"heading"`
	Velocity          float64 `json:"velocity"`
	HeadingChangeRate float64 `json:"headingChangeRate"`
	LastScanTick      int64   `json:"lastScanTick"`
	ScanCount         int     `json:"scanCount"`
	TurnCount         int     `json:"turnCount"`
	Reliability       float64 `json:"reliability"`
}

// NewOpponent creates an unobserved model
func NewOpponent(name string) *Opponent {
	return &Opponent{
		name:     name,
		position: Point{X: unseenCoordinate, Y: unseenCoordinate},
	}
}

// Update folds one radar observation into the model. A killed model ignores
// further observations.
func (o *Opponent) Update(energy float64, position Point, heading, velocity float64, tick int64) {
	if o.killed {
		return
	}

	o.headingChangeRate = 0
	if o.scanCount > 0 {
		// Replayed or same-tick scans leave the rate at zero. The delta is
		// normalized first so a turn across north reads as +10, not -350.
		if elapsed := tick - o.lastScanTick; elapsed > 0 {
			o.headingChangeRate = NormalizeRelative(heading-o.heading) / float64(elapsed)
		}
	}

	o.alive = true
	o.energy = energy
	o.position = position
	o.heading = heading
	o.velocity = velocity
	o.lastScanTick = tick

	o.scanCount++
	if o.headingChangeRate > TurnThreshold || o.headingChangeRate < -TurnThreshold {
		o.turnCount++
	}
}

// CollisionUpdate pins the opponent to a contact point after a ram. Contact
// means it has momentarily stopped.
func (o *Opponent) CollisionUpdate(position Point, heading float64) {
	o.position = position
	o.heading = heading
	o.velocity = 0
}

// Kill marks the opponent dead for the rest of the match
func (o *Opponent) Kill() {
	o.alive = false
	o.killed = true
}

// TurningReliability returns turnCount/scanCount. ok is false before the
// first scan, when the ratio is undefined.
func (o *Opponent) TurningReliability() (ratio float64, ok bool) {
	if o.scanCount == 0 {
		return 0, false
	}
	return float64(o.turnCount) / float64(o.scanCount), true
}

func (o *Opponent) Name() string               { return o.name }
func (o *Opponent) Alive() bool                { return o.alive }
func (o *Opponent) Energy() float64            { return o.energy }
func (o *Opponent) Position() Point            { return o.position }
func (o *Opponent) Heading() float64           { return o.heading }
func (o *Opponent) Velocity() float64          { return o.velocity }
func (o *Opponent) HeadingChangeRate() float64 { return o.headingChangeRate }
func (o *Opponent) LastScanTick() int64        { return o.lastScanTick }
func (o *Opponent) ScanCount() int             { return o.scanCount }
func (o *Opponent) TurnCount() int             { return o.turnCount }

// State returns a snapshot of the model
func (o *Opponent) State() OpponentState {
	reliability, _ := o.TurningReliability()
	return OpponentState{
		Name:              o.name,
		Alive:             o.alive,
		Energy:            o.energy,
		Position:          o.position,
		Heading:           o.heading,
		Velocity:          o.velocity,
		HeadingChangeRate: o.headingChangeRate,
		LastScanTick:      o.lastScanTick,
		ScanCount:         o.scanCount,
		TurnCount:         o.turnCount,
		Reliability:       reliability,
	}
}
