// Package sim implements the simulation engine: a fixed-tick update of a
// cell population and a free-particle population coupled by infection,
// latency, shedding, death, and clearance rules. The World is the single
// owner of all state; callers drive it with Tick and the intervention
// methods from one goroutine and read it through Counts and Snapshot.
package sim

import (
	"math/rand"
	"time"
)

// World owns the full simulation state: a fixed-size agent population, a
// dynamic particle population, the therapy toggle, and the elapsed
// simulation clock. It is not safe for concurrent use; the intended model
// is a single timer-driven loop that calls Tick and applies interventions
// between ticks.
type World struct {
	cfg   Config
	seed  int64
	rng   *rand.Rand
	field Field

	agents    []Agent
	particles []Particle
	scratch   []int // reusable index buffer for candidate selection

	therapy bool
	elapsed time.Duration

	infection       Cadence
	clearance       Cadence
	clearancePolicy ClearancePolicy
}

// NewWorld validates cfg and builds a world in its initial configuration:
// all agents Healthy, the initial particle load scattered uniformly,
// therapy off, clock at zero. A zero cfg.Seed picks a time-based seed;
// the resolved seed is kept so Reset reproduces the layout exactly.
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	policy := cfg.Clearance
	if policy == nil {
		policy = DefaultClearance()
	}

	w := &World{
		cfg:             cfg,
		seed:            seed,
		clearancePolicy: policy,
	}
	w.Reset()
	return w, nil
}

// Reset reinitializes the world to its documented initial configuration.
// The random source is reseeded with the world's resolved seed, so a
// reset world replays the original run exactly.
func (w *World) Reset() {
	w.rng = rand.New(rand.NewSource(w.seed))
	w.field = Field{
		Width:    w.cfg.WorldWidth,
		Height:   w.cfg.WorldHeight,
		Inset:    w.cfg.BoundaryInset,
		Jitter:   w.cfg.ParticleJitter,
		MaxSpeed: w.cfg.MaxParticleSpeed,
	}

	w.agents = placeAgents(&w.cfg, w.rng)
	w.particles = make([]Particle, 0, w.cfg.InitialParticles+256)
	w.spawnUniform(w.cfg.InitialParticles, Virion)

	w.therapy = false
	w.elapsed = 0
	w.infection = Cadence{Period: w.cfg.InfectionPeriod}
	w.clearance = Cadence{Period: w.cfg.ClearancePeriod}
}

// Tick advances the simulation by one fixed tick period. The evaluation
// order is fixed for reproducibility: motion first (so particles spawned
// by this tick's rules stay put until the next tick), then infection,
// shedding, aging/death, and clearance.
func (w *World) Tick() {
	dt := w.cfg.TickPeriod

	w.field.Advance(w.particles, w.rng)
	w.stepInfection(dt)
	w.stepShedding(dt)
	w.stepDeaths(dt)
	w.stepClearance(dt)

	w.elapsed += dt
}

// SetTherapy sets the suppressive-therapy toggle. The off-to-on edge
// moves every Active agent to Latent in the same step, before any further
// tick can observe an Active agent.
func (w *World) SetTherapy(on bool) {
	if on && !w.therapy {
		for i := range w.agents {
			w.agents[i].suppress()
		}
	}
	w.therapy = on
}

// ToggleTherapy flips the therapy toggle and returns the new state.
func (w *World) ToggleTherapy() bool {
	w.SetTherapy(!w.therapy)
	return w.therapy
}

// Therapy reports whether suppressive therapy is on.
func (w *World) Therapy() bool {
	return w.therapy
}

// Flush removes every free particle immediately.
func (w *World) Flush() {
	w.particles = w.particles[:0]
}

// FlushKind removes every particle of one species and leaves the rest.
func (w *World) FlushKind(kind ParticleKind) {
	kept := w.particles[:0]
	for _, p := range w.particles {
		if p.Kind != kind {
			kept = append(kept, p)
		}
	}
	w.particles = kept
}

// Boost adds n virions at uniform random positions. A non-positive n adds
// the configured default boost quantity.
func (w *World) Boost(n int) {
	if n <= 0 {
		n = w.cfg.BoostQuantity
	}
	w.spawnUniform(n, Virion)
}

// IntroducePathogen models an unrelated infection challenging the immune
// system: every Latent agent reactivates to Active, and a burst of
// pathogen-species particles appears biased toward infected-agent
// locations (uniform if nothing is infected). The burst quantity is the
// configured base plus the per-infected term.
func (w *World) IntroducePathogen() {
	infected := w.scratch[:0]
	for i := range w.agents {
		if w.agents[i].Infected() {
			infected = append(infected, i)
		}
	}
	w.scratch = infected

	for i := range w.agents {
		w.agents[i].reactivate()
	}

	n := w.cfg.PathogenBoost + w.cfg.PathogenPerInfected*len(infected)
	if len(infected) == 0 {
		w.spawnUniform(n, Pathogen)
		return
	}
	for ; n > 0; n-- {
		a := &w.agents[infected[w.rng.Intn(len(infected))]]
		w.spawnNear(a.X, a.Y, w.cfg.BurstHalo, 1, Pathogen)
	}
}

// Counts is the per-state census of the population plus the particle
// totals by species.
type Counts struct {
	Healthy   int `json:"healthy"`
	Active    int `json:"active"`
	Latent    int `json:"latent"`
	Dead      int `json:"dead"`
	Virions   int `json:"virions"`
	Pathogens int `json:"pathogens"`
}

// Particles returns the total free-particle count across species.
func (c Counts) Particles() int {
	return c.Virions + c.Pathogens
}

// Counts scans the population and returns the current census.
func (w *World) Counts() Counts {
	var c Counts
	for i := range w.agents {
		switch w.agents[i].State {
		case Healthy:
			c.Healthy++
		case Active:
			c.Active++
		case Latent:
			c.Latent++
		case Dead:
			c.Dead++
		}
	}
	for i := range w.particles {
		if w.particles[i].Kind == Pathogen {
			c.Pathogens++
		} else {
			c.Virions++
		}
	}
	return c
}

// Elapsed returns the simulated time advanced so far.
func (w *World) Elapsed() time.Duration {
	return w.elapsed
}

// Config returns a copy of the configuration the world was built with.
func (w *World) Config() Config {
	return w.cfg
}

// AgentView is the render-facing projection of one agent.
type AgentView struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	State string  `json:"state"`
}

// ParticleView is the render-facing projection of one particle.
type ParticleView struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Kind string  `json:"kind"`
}

// Snapshot is a deep copy of the observable world state, safe to hand to
// a presentation layer while the world keeps ticking.
type Snapshot struct {
	Elapsed   float64        `json:"elapsed"` // seconds
	Therapy   bool           `json:"therapy"`
	Counts    Counts         `json:"counts"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Agents    []AgentView    `json:"agents"`
	Particles []ParticleView `json:"particles"`
}

// Snapshot copies the current positions and states of every agent and
// particle together with the census and toggles.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Elapsed:   w.elapsed.Seconds(),
		Therapy:   w.therapy,
		Counts:    w.Counts(),
		Width:     w.cfg.WorldWidth,
		Height:    w.cfg.WorldHeight,
		Agents:    make([]AgentView, len(w.agents)),
		Particles: make([]ParticleView, len(w.particles)),
	}
	for i := range w.agents {
		a := &w.agents[i]
		s.Agents[i] = AgentView{X: a.X, Y: a.Y, R: a.Radius, State: a.State.String()}
	}
	for i := range w.particles {
		p := &w.particles[i]
		s.Particles[i] = ParticleView{X: p.X, Y: p.Y, Kind: p.Kind.String()}
	}
	return s
}

// virionCount is the free-virion load that drives the infection batch
// formula. Pathogen particles model a different antigen and are excluded.
func (w *World) virionCount() int {
	n := 0
	for i := range w.particles {
		if w.particles[i].Kind == Virion {
			n++
		}
	}
	return n
}

// spawnNear adds count particles offset at most halo from (x, y), the
// local spawn bias that keeps shed virus visually clustered around its
// producing cell.
func (w *World) spawnNear(x, y, halo float64, count int, kind ParticleKind) {
	for i := 0; i < count; i++ {
		vx, vy := w.field.randomVelocity(w.rng)
		w.particles = append(w.particles, Particle{
			X:    clamp(x+(w.rng.Float64()*2-1)*halo, w.field.Inset, w.field.Width-w.field.Inset),
			Y:    clamp(y+(w.rng.Float64()*2-1)*halo, w.field.Inset, w.field.Height-w.field.Inset),
			VX:   vx,
			VY:   vy,
			Kind: kind,
		})
	}
}

// spawnUniform adds count particles at uniform random world positions.
func (w *World) spawnUniform(count int, kind ParticleKind) {
	for i := 0; i < count; i++ {
		vx, vy := w.field.randomVelocity(w.rng)
		w.particles = append(w.particles, Particle{
			X:    w.field.Inset + w.rng.Float64()*(w.field.Width-2*w.field.Inset),
			Y:    w.field.Inset + w.rng.Float64()*(w.field.Height-2*w.field.Inset),
			VX:   vx,
			VY:   vy,
			Kind: kind,
		})
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
