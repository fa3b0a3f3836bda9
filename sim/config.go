package sim

import (
	"fmt"
	"time"
)

// Config collects every tunable parameter of the simulation. Variants of
// this teaching model differ exactly on these values, so nothing here is
// hard-coded elsewhere; construct with DefaultConfig and override fields
// before passing the result to NewWorld.
type Config struct {
	// Timing.
	TickPeriod time.Duration // wall-clock period of one engine tick

	// World and population.
	WorldWidth       float64
	WorldHeight      float64
	AgentCount       int
	InitialParticles int
	Seed             int64 // 0 selects a time-based seed

	// Population layout.
	MinAgentSpacing     float64 // minimum pairwise distance for random placement
	GridLayoutThreshold int     // counts at or above this use the jittered grid

	// Particle motion.
	MaxParticleSpeed float64 // speed clamp, world units per tick
	ParticleJitter   float64 // symmetric per-tick velocity perturbation; 0 disables
	BoundaryInset    float64 // reflected particles are clamped this far inside the walls

	// Infection rule (suspended while therapy is on).
	InfectionPeriod      time.Duration // cadence of infection batches
	InfectionLoadDivisor int           // batch size is 1 + load/divisor, capped by healthy count

	// Viral shedding (trickle).
	SheddingPeriod   time.Duration // per-agent cadence of trickle emission
	SheddingQuantity int           // particles emitted per firing
	SheddingHalo     float64       // max offset of trickle spawns from the agent
	LatentShedding   bool          // whether latent agents keep shedding

	// Aging and death of active agents.
	DeathMinDwell       time.Duration // no death is possible before this much time in Active
	DeathChance         float64       // per-tick death probability once past the dwell
	BurstQuantity       int           // particles released when an agent dies
	BurstHalo           float64       // max offset of burst spawns from the agent
	BurstOnlyOffTherapy bool          // gate death bursts to therapy-off periods

	// Particle clearance.
	ClearancePeriod time.Duration   // cadence of the clearance rule
	Clearance       ClearancePolicy // nil selects DefaultClearance

	// Manual interventions.
	BoostQuantity       int // particles added by a boost with no explicit quantity
	PathogenBoost       int // fixed particle count added by a pathogen introduction
	PathogenPerInfected int // extra pathogen particles per infected agent
}

// DefaultConfig returns the documented default parameter set: a 1000-cell
// population in an 800x600 world ticking every 320ms, infection batches
// every 2s, trickle every 10s, clearance every 1s.
func DefaultConfig() Config {
	return Config{
		TickPeriod: 320 * time.Millisecond,

		WorldWidth:       800,
		WorldHeight:      600,
		AgentCount:       1000,
		InitialParticles: 100,

		MinAgentSpacing:     18,
		GridLayoutThreshold: 64,

		MaxParticleSpeed: 2.4,
		ParticleJitter:   0.5,
		BoundaryInset:    2,

		InfectionPeriod:      2 * time.Second,
		InfectionLoadDivisor: 100,

		SheddingPeriod:   10 * time.Second,
		SheddingQuantity: 5,
		SheddingHalo:     12,
		LatentShedding:   true,

		DeathMinDwell:       20 * time.Second,
		DeathChance:         0.01,
		BurstQuantity:       50,
		BurstHalo:           16,
		BurstOnlyOffTherapy: true,

		ClearancePeriod: time.Second,
		Clearance:       nil, // DefaultClearance

		BoostQuantity:       100,
		PathogenBoost:       100,
		PathogenPerInfected: 0,
	}
}

// Validate rejects configurations the engine cannot run. It reports the
// first offending field with its value; a nil error means the config is
// safe to hand to NewWorld.
func (c *Config) Validate() error {
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive, got %v", c.TickPeriod)
	}
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		return fmt.Errorf(
			"world dimensions must be positive, got %gx%g",
			c.WorldWidth, c.WorldHeight,
		)
	}
	if c.AgentCount <= 0 {
		return fmt.Errorf("agent count must be positive, got %d", c.AgentCount)
	}
	if c.InitialParticles < 0 {
		return fmt.Errorf("initial particle count must not be negative, got %d", c.InitialParticles)
	}
	if c.InfectionPeriod < 0 || c.SheddingPeriod < 0 || c.ClearancePeriod < 0 {
		return fmt.Errorf(
			"cadence periods must not be negative, got infection=%v shedding=%v clearance=%v",
			c.InfectionPeriod, c.SheddingPeriod, c.ClearancePeriod,
		)
	}
	if c.InfectionLoadDivisor <= 0 {
		return fmt.Errorf("infection load divisor must be positive, got %d", c.InfectionLoadDivisor)
	}
	if c.DeathMinDwell < 0 {
		return fmt.Errorf("death dwell must not be negative, got %v", c.DeathMinDwell)
	}
	if c.DeathChance < 0 || c.DeathChance > 1 {
		return fmt.Errorf("death chance must be in [0,1], got %g", c.DeathChance)
	}
	if c.SheddingQuantity < 0 || c.BurstQuantity < 0 {
		return fmt.Errorf(
			"emission quantities must not be negative, got shedding=%d burst=%d",
			c.SheddingQuantity, c.BurstQuantity,
		)
	}
	if c.BoostQuantity < 0 || c.PathogenBoost < 0 || c.PathogenPerInfected < 0 {
		return fmt.Errorf(
			"intervention quantities must not be negative, got boost=%d pathogen=%d per-infected=%d",
			c.BoostQuantity, c.PathogenBoost, c.PathogenPerInfected,
		)
	}
	if c.MaxParticleSpeed <= 0 {
		return fmt.Errorf("max particle speed must be positive, got %g", c.MaxParticleSpeed)
	}
	if c.ParticleJitter < 0 {
		return fmt.Errorf("particle jitter must not be negative, got %g", c.ParticleJitter)
	}
	if c.MinAgentSpacing < 0 {
		return fmt.Errorf("agent spacing must not be negative, got %g", c.MinAgentSpacing)
	}
	return nil
}
