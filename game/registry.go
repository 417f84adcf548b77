package game

import "sort"

// Registry owns every Opponent seen this match and tracks the current target
type Registry struct {
	opponents map[string]*Opponent
	target    *Opponent
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		opponents: make(map[string]*Opponent),
	}
}

// Lookup returns the model for name if it has been observed
func (r *Registry) Lookup(name string) (*Opponent, bool) {
	o, ok := r.opponents[name]
	return o, ok
}

// Observe records a radar contact and re-evaluates the target. The opponent
// becomes the target when it is closer than the last known position of the
// current target or the current target is dead.
func (r *Registry) Observe(e ScanEvent) *Opponent {
	opponent, ok := r.opponents[e.Name]
	if !ok {
		opponent = NewOpponent(e.Name)
		r.opponents[e.Name] = opponent
	}

	position := Project(e.Self.Position, e.Distance, e.Self.Heading+e.Bearing)
	opponent.Update(e.Energy, position, e.Heading, e.Velocity, e.Self.Tick)

	if r.target == nil || !r.target.Alive() ||
		e.Distance < e.Self.Position.Distance(r.target.Position()) {
		r.target = opponent
	}

	return opponent
}

// Target returns the current target, nil before the first observation.
// A killed target is still returned until the next Observe replaces it.
func (r *Registry) Target() *Opponent {
	return r.target
}

// SetTarget forces the current target
func (r *Registry) SetTarget(o *Opponent) {
	r.target = o
}

// IsTarget reports whether o is the current target
func (r *Registry) IsTarget(o *Opponent) bool {
	return o != nil && r.target == o
}

// Kill marks a robot dead. Unknown names are ignored and report false.
func (r *Registry) Kill(name string) bool {
	o, ok := r.opponents[name]
	if !ok {
		return false
	}
	o.Kill()
	return true
}

// Alive returns the live opponents ordered by name
func (r *Registry) Alive() []*Opponent {
	alive := make([]*Opponent, 0, len(r.opponents))
	for _, o := range r.opponents {
		if o.Alive() {
			alive = append(alive, o)
		}
	}
	sort.Slice(alive, func(i, j int) bool { return alive[i].name < alive[j].name })
	return alive
}

// All returns every known opponent ordered by name
func (r *Registry) All() []*Opponent {
	all := make([]*Opponent, 0, len(r.opponents))
	for _, o := range r.opponents {
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].name < all[j].name })
	return all
}

// Len returns the number of known opponents, dead or alive
func (r *Registry) Len() int {
	return len(r.opponents)
}
