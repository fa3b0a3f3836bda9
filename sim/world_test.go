package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestWorld builds a deterministic world: fixed seed, no motion jitter.
func newTestWorld(t *testing.T, mutate func(*Config)) *World {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.ParticleJitter = 0
	if mutate != nil {
		mutate(&cfg)
	}
	w, err := NewWorld(cfg)
	require.NoError(t, err)
	return w
}

func agentTotal(c Counts) int {
	return c.Healthy + c.Active + c.Latent + c.Dead
}

// Agents are never created or destroyed after initialization: the census
// total must equal the configured count at every tick, across every
// intervention.
func TestPopulationSizeInvariant(t *testing.T) {
	w := newTestWorld(t, nil)

	for i := 0; i < 150; i++ {
		switch i {
		case 50:
			w.SetTherapy(true)
		case 75:
			w.IntroducePathogen()
		case 100:
			w.Flush()
		case 110:
			w.SetTherapy(false)
		case 120:
			w.Boost(200)
		}
		w.Tick()
		require.Equal(t, w.cfg.AgentCount, agentTotal(w.Counts()), "tick %d", i)
	}
}

func TestDeadIsAbsorbing(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 10
		c.DeathMinDwell = 0
		c.DeathChance = 1
	})

	w.agents[0].infect()
	w.Tick()
	require.Equal(t, Dead, w.agents[0].State)

	w.SetTherapy(true)
	w.IntroducePathogen()
	w.Boost(50)
	w.Flush()
	w.SetTherapy(false)
	for i := 0; i < 20; i++ {
		w.Tick()
	}
	assert.Equal(t, Dead, w.agents[0].State)
}

// Toggling therapy on must move every Active agent to Latent in the same
// logical step, with no tick in between.
func TestTherapyOnEdgeSuppressesImmediately(t *testing.T) {
	w := newTestWorld(t, func(c *Config) { c.AgentCount = 100 })

	for i := 0; i < 5; i++ {
		w.agents[i].infect()
	}
	require.Equal(t, 5, w.Counts().Active)

	w.SetTherapy(true)

	c := w.Counts()
	assert.Equal(t, 0, c.Active)
	assert.Equal(t, 5, c.Latent)
	assert.Equal(t, 95, c.Healthy)
}

func TestTherapyOnEdgeResetsAgeButKeepsShedTimer(t *testing.T) {
	w := newTestWorld(t, nil)

	w.agents[0].infect()
	w.agents[0].Age = 5 * time.Second
	w.agents[0].Shed = 7 * time.Second

	w.SetTherapy(true)

	assert.Equal(t, Latent, w.agents[0].State)
	assert.Equal(t, time.Duration(0), w.agents[0].Age)
	assert.Equal(t, 7*time.Second, w.agents[0].Shed)
}

// With therapy on the infection rule never fires: an all-healthy
// population stays all-healthy no matter the particle load.
func TestInfectionSuspendedWhileTherapyOn(t *testing.T) {
	w := newTestWorld(t, func(c *Config) { c.InitialParticles = 500 })

	w.SetTherapy(true)
	for i := 0; i < 50; i++ {
		w.Tick()
		c := w.Counts()
		require.Zero(t, c.Active, "tick %d", i)
		require.Zero(t, c.Latent, "tick %d", i)
	}
}

// 1000 agents, 100 free particles, therapy off: the first infection batch
// infects exactly 1 + floor(100/100) = 2 healthy agents.
func TestInfectionBatchScalesWithLoad(t *testing.T) {
	w := newTestWorld(t, func(c *Config) { c.DeathChance = 0 })

	// The 2s cadence first fires on the 7th 320ms tick (2240ms).
	for i := 0; i < 6; i++ {
		w.Tick()
		require.Zero(t, w.Counts().Active, "tick %d", i)
	}
	w.Tick()

	c := w.Counts()
	assert.Equal(t, 2, c.Active)
	assert.Equal(t, 998, c.Healthy)
}

// Over a long run the infection cadence converges on elapsed/period
// firings. With a huge load divisor each firing infects exactly one
// agent, so the infected total counts the firings.
func TestInfectionCadenceConvergence(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.DeathChance = 0
		c.InfectionLoadDivisor = 1 << 30
	})

	for i := 0; i < 100; i++ {
		w.Tick()
	}

	// 100 * 320ms = 32s -> floor(32s / 2s) = 16 firings.
	c := w.Counts()
	assert.Equal(t, 16, c.Active+c.Latent)
}

func TestInfectionWithNoHealthyAgentsIsNoOp(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 3
		c.DeathChance = 0
	})
	for i := range w.agents {
		w.agents[i].infect()
	}

	for i := 0; i < 20; i++ {
		w.Tick()
	}
	assert.Equal(t, 3, w.Counts().Active)
}

func TestSheddingSpawnsHaloAroundProducer(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 1
		c.InitialParticles = 0
		c.DeathChance = 0
	})
	w.agents[0].infect()

	// The 10s trickle first fires on the 32nd 320ms tick (10240ms).
	for i := 0; i < 32; i++ {
		w.Tick()
	}

	require.Equal(t, w.cfg.SheddingQuantity, w.Counts().Virions)
	for _, p := range w.particles {
		assert.LessOrEqual(t, math.Abs(p.X-w.agents[0].X), w.cfg.SheddingHalo)
		assert.LessOrEqual(t, math.Abs(p.Y-w.agents[0].Y), w.cfg.SheddingHalo)
	}
}

func TestLatentSheddingFlag(t *testing.T) {
	run := func(latentSheds bool) int {
		w := newTestWorld(t, func(c *Config) {
			c.AgentCount = 1
			c.InitialParticles = 0
			c.LatentShedding = latentSheds
			c.Clearance = FractionClearance(0, 0)
		})
		w.agents[0].infect()
		w.SetTherapy(true) // agent is now Latent
		for i := 0; i < 64; i++ {
			w.Tick()
		}
		return w.Counts().Virions
	}

	assert.Zero(t, run(false))
	assert.Equal(t, 2*DefaultConfig().SheddingQuantity, run(true))
}

// An agent converted to Latent on the therapy edge leaves the death
// rule's reach: even a certain death draw cannot kill it or burst.
func TestTherapyEdgeRemovesDeathEligibility(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 1
		c.InitialParticles = 0
		c.DeathMinDwell = 0
		c.DeathChance = 1
		c.LatentShedding = false
	})
	w.agents[0].infect()
	w.SetTherapy(true)

	for i := 0; i < 10; i++ {
		w.Tick()
	}

	c := w.Counts()
	assert.Equal(t, Latent, w.agents[0].State)
	assert.Zero(t, c.Dead)
	assert.Zero(t, c.Particles())
}

func TestDeathBurstGate(t *testing.T) {
	table := []struct {
		name         string
		gated        bool
		therapyOn    bool
		wantParticle int
	}{
		{"gated, therapy off", true, false, 50},
		{"gated, therapy on", true, true, 0},
		{"ungated, therapy on", false, true, 50},
	}

	for _, test := range table {
		w := newTestWorld(t, func(c *Config) {
			c.AgentCount = 1
			c.InitialParticles = 0
			c.DeathMinDwell = 0
			c.DeathChance = 1
			c.BurstOnlyOffTherapy = test.gated
			c.Clearance = FractionClearance(0, 0)
		})
		w.agents[0].infect()
		if test.therapyOn {
			// Force eligibility under therapy to isolate the burst gate
			// from the suppression edge.
			w.therapy = true
			w.agents[0].State = Active
		}

		w.Tick()

		require.Equal(t, Dead, w.agents[0].State, test.name)
		assert.Equal(t, test.wantParticle, w.Counts().Virions, test.name)
	}
}

func TestDeathWaitsForMinimumDwell(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 1
		c.InitialParticles = 0
		c.DeathMinDwell = 2 * time.Second
		c.DeathChance = 1
	})
	w.agents[0].infect()

	// Age must exceed 2s: ticks 1..6 reach 1920ms, the 7th passes 2240ms.
	for i := 0; i < 6; i++ {
		w.Tick()
		require.Equal(t, Active, w.agents[0].State, "tick %d", i)
	}
	w.Tick()
	assert.Equal(t, Dead, w.agents[0].State)
}

func TestFlushIsExactAndSheddingResumes(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 1
		c.InitialParticles = 37
		c.DeathChance = 0
	})
	w.agents[0].infect()

	w.Flush()
	require.Zero(t, w.Counts().Particles())

	for i := 0; i < 32; i++ {
		w.Tick()
	}
	assert.Equal(t, w.cfg.SheddingQuantity, w.Counts().Virions)
}

func TestFlushKindLeavesOtherSpecies(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 10
		c.InitialParticles = 20
		c.PathogenBoost = 30
	})
	w.IntroducePathogen()
	require.Equal(t, 30, w.Counts().Pathogens)

	w.FlushKind(Pathogen)
	c := w.Counts()
	assert.Zero(t, c.Pathogens)
	assert.Equal(t, 20, c.Virions)
}

func TestBoostQuantities(t *testing.T) {
	w := newTestWorld(t, func(c *Config) { c.InitialParticles = 0 })

	w.Boost(25)
	assert.Equal(t, 25, w.Counts().Virions)

	w.Boost(0) // falls back to the configured default
	assert.Equal(t, 25+w.cfg.BoostQuantity, w.Counts().Virions)
}

func TestPathogenReactivatesLatentAndBoosts(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 50
		c.InitialParticles = 0
		c.PathogenBoost = 40
		c.PathogenPerInfected = 2
	})
	for i := 0; i < 10; i++ {
		w.agents[i].infect()
	}
	w.SetTherapy(true)
	require.Equal(t, 10, w.Counts().Latent)

	w.IntroducePathogen()

	c := w.Counts()
	assert.Zero(t, c.Latent)
	assert.Equal(t, 10, c.Active)
	assert.Equal(t, 40+2*10, c.Pathogens)
	// The pathogen species carries no infection pressure.
	assert.Zero(t, w.virionCount())
}

func TestClearancePolicies(t *testing.T) {
	fixed := FixedClearance(10, true)
	assert.Zero(t, fixed(false, 100))
	assert.Equal(t, 10, fixed(true, 100))

	frac := FractionClearance(0.5, 0.1)
	assert.Equal(t, 50, frac(true, 100))
	assert.Equal(t, 10, frac(false, 100))

	assert.Zero(t, DefaultClearance()(false, 80))
	assert.Equal(t, 20, DefaultClearance()(true, 80))
}

func TestClearanceRunsOnItsCadence(t *testing.T) {
	w := newTestWorld(t, nil) // 100 particles, default 25%-on policy
	w.SetTherapy(true)

	// The 1s cadence first fires on the 4th 320ms tick (1280ms).
	for i := 0; i < 3; i++ {
		w.Tick()
		require.Equal(t, 100, w.Counts().Virions, "tick %d", i)
	}
	w.Tick()
	require.Equal(t, 75, w.Counts().Virions)

	// Second firing on the 7th tick (2240ms): 25% of 75 is 18.
	for i := 0; i < 3; i++ {
		w.Tick()
	}
	assert.Equal(t, 57, w.Counts().Virions)
}

func TestCustomClearancePolicyIsUsed(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.InitialParticles = 50
		c.Clearance = FixedClearance(7, false)
	})

	for i := 0; i < 4; i++ {
		w.Tick()
	}
	assert.Equal(t, 43, w.Counts().Virions)
}

func TestResetRestoresInitialConfiguration(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 200
		c.InitialParticles = 50
		c.Seed = 5
	})
	initial := w.Snapshot()

	for i := 0; i < 30; i++ {
		w.Tick()
	}
	w.SetTherapy(true)
	w.IntroducePathogen()
	w.Boost(100)

	w.Reset()

	restored := w.Snapshot()
	assert.Equal(t, initial, restored)
	assert.False(t, w.Therapy())
	assert.Zero(t, w.Elapsed())
	assert.Equal(t, 200, restored.Counts.Healthy)
	assert.Equal(t, 50, restored.Counts.Virions)
}

func TestElapsedTracksTicks(t *testing.T) {
	w := newTestWorld(t, nil)
	for i := 0; i < 10; i++ {
		w.Tick()
	}
	assert.Equal(t, 3200*time.Millisecond, w.Elapsed())
}

// Particles spawned by a tick's rules must not move during that same
// tick: a death burst lands inside its halo even though motion ran.
func TestSpawnsDoNotMoveOnTheirFirstTick(t *testing.T) {
	w := newTestWorld(t, func(c *Config) {
		c.AgentCount = 1
		c.InitialParticles = 0
		c.DeathMinDwell = 0
		c.DeathChance = 1
	})
	w.agents[0].infect()

	w.Tick()

	require.Equal(t, w.cfg.BurstQuantity, w.Counts().Virions)
	for _, p := range w.particles {
		assert.LessOrEqual(t, math.Abs(p.X-w.agents[0].X), w.cfg.BurstHalo)
		assert.LessOrEqual(t, math.Abs(p.Y-w.agents[0].Y), w.cfg.BurstHalo)
	}
}
