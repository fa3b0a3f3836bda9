package sim

import "time"

// ClearancePolicy computes how many particles the clearance rule removes
// on one firing, given the current therapy state and particle count. The
// policy is deliberately a plain function: the acceptable behaviors differ
// across teaching scenarios, so callers can plug in their own.
type ClearancePolicy func(therapyOn bool, count int) int

// FractionClearance removes a fraction of the current particle count per
// firing, with separate fractions for therapy on and off.
func FractionClearance(onFraction, offFraction float64) ClearancePolicy {
	return func(therapyOn bool, count int) int {
		frac := offFraction
		if therapyOn {
			frac = onFraction
		}
		return int(float64(count) * frac)
	}
}

// FixedClearance removes a fixed number of particles per firing. With
// therapyOnly set, nothing is cleared while therapy is off.
func FixedClearance(perFiring int, therapyOnly bool) ClearancePolicy {
	return func(therapyOn bool, count int) int {
		if therapyOnly && !therapyOn {
			return 0
		}
		return perFiring
	}
}

// DefaultClearance is the documented default policy: 25% of the current
// count per firing while therapy is on, nothing while it is off.
func DefaultClearance() ClearancePolicy {
	return FractionClearance(0.25, 0)
}

// stepInfection fires the infection batch on its own cadence. The cadence
// accumulates through therapy so its phase survives a toggle, but a firing
// has no effect while therapy is on. Each firing infects
// min(healthy, 1 + load/divisor) distinct Healthy agents chosen uniformly
// without replacement; an empty healthy set is a no-op.
func (w *World) stepInfection(dt time.Duration) {
	fires := w.infection.Advance(dt)
	if fires == 0 || w.therapy {
		return
	}

	for ; fires > 0; fires-- {
		healthy := w.scratch[:0]
		for i := range w.agents {
			if w.agents[i].State == Healthy {
				healthy = append(healthy, i)
			}
		}
		w.scratch = healthy
		if len(healthy) == 0 {
			return
		}

		toInfect := 1 + w.virionCount()/w.cfg.InfectionLoadDivisor
		if toInfect > len(healthy) {
			toInfect = len(healthy)
		}

		// Partial Fisher-Yates: the first toInfect entries end up as a
		// uniform sample without replacement.
		for i := 0; i < toInfect; i++ {
			j := i + w.rng.Intn(len(healthy)-i)
			healthy[i], healthy[j] = healthy[j], healthy[i]
			w.agents[healthy[i]].infect()
		}
	}
}

// stepShedding advances each producing agent's trickle timer and emits a
// small batch of virions in a halo around the agent on every firing.
// Latent agents keep producing only when LatentShedding is set; their
// timer is frozen otherwise.
func (w *World) stepShedding(dt time.Duration) {
	for i := range w.agents {
		a := &w.agents[i]
		if a.State != Active && !(a.State == Latent && w.cfg.LatentShedding) {
			continue
		}
		fires := fireCount(&a.Shed, dt, w.cfg.SheddingPeriod)
		for ; fires > 0; fires-- {
			w.spawnNear(a.X, a.Y, w.cfg.SheddingHalo, w.cfg.SheddingQuantity, Virion)
		}
	}
}

// stepDeaths ages Active agents and, once past the minimum dwell, rolls
// the per-tick death probability. A death releases a burst of virions at
// the agent unless the burst is gated to therapy-off periods and therapy
// is on.
func (w *World) stepDeaths(dt time.Duration) {
	for i := range w.agents {
		a := &w.agents[i]
		if a.State != Active {
			continue
		}
		a.Age += dt
		if a.Age <= w.cfg.DeathMinDwell {
			continue
		}
		if w.rng.Float64() >= w.cfg.DeathChance {
			continue
		}
		a.State = Dead
		if w.cfg.BurstOnlyOffTherapy && w.therapy {
			continue
		}
		w.spawnNear(a.X, a.Y, w.cfg.BurstHalo, w.cfg.BurstQuantity, Virion)
	}
}

// stepClearance removes particles on its own cadence, the quantity per
// firing decided by the configured policy. Removal picks random indices:
// particles are fungible, so no ordering is implied.
func (w *World) stepClearance(dt time.Duration) {
	fires := w.clearance.Advance(dt)
	for ; fires > 0; fires-- {
		n := w.clearancePolicy(w.therapy, len(w.particles))
		w.removeRandom(n)
	}
}

func (w *World) removeRandom(n int) {
	for ; n > 0 && len(w.particles) > 0; n-- {
		j := w.rng.Intn(len(w.particles))
		last := len(w.particles) - 1
		w.particles[j] = w.particles[last]
		w.particles = w.particles[:last]
	}
}
