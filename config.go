package main

import (
	"fmt"
	"time"

	"gopkg.in/gcfg.v1"

	"reservoir/sim"
)

// fileConfig mirrors sim.Config as an INI file, durations in
// milliseconds. Fields are prefilled from the current config before
// parsing, so the file only needs to name the values it overrides.
type fileConfig struct {
	World struct {
		Width     float64
		Height    float64
		Agents    int
		Particles int
		Seed      int64
	}
	Timing struct {
		TickMS      int
		InfectionMS int
		SheddingMS  int
		ClearanceMS int
	}
	Infection struct {
		LoadDivisor int
	}
	Shedding struct {
		Quantity int
		Halo     float64
		Latent   bool
	}
	Death struct {
		DwellMS        int
		Chance         float64
		Burst          int
		BurstHalo      float64
		GateOffTherapy bool
	}
	Clearance struct {
		Policy      string // "fraction" or "fixed"
		Rate        int
		TherapyOnly bool
		OnFraction  float64
		OffFraction float64
	}
	Motion struct {
		MaxSpeed float64
		Jitter   float64
		Inset    float64
	}
	Layout struct {
		Spacing       float64
		GridThreshold int
	}
	Interventions struct {
		Boost               int
		PathogenBoost       int
		PathogenPerInfected int
	}
}

// loadConfig applies the INI file at path on top of cfg.
func loadConfig(path string, cfg *sim.Config) error {
	var fc fileConfig

	fc.World.Width = cfg.WorldWidth
	fc.World.Height = cfg.WorldHeight
	fc.World.Agents = cfg.AgentCount
	fc.World.Particles = cfg.InitialParticles
	fc.World.Seed = cfg.Seed

	fc.Timing.TickMS = int(cfg.TickPeriod / time.Millisecond)
	fc.Timing.InfectionMS = int(cfg.InfectionPeriod / time.Millisecond)
	fc.Timing.SheddingMS = int(cfg.SheddingPeriod / time.Millisecond)
	fc.Timing.ClearanceMS = int(cfg.ClearancePeriod / time.Millisecond)

	fc.Infection.LoadDivisor = cfg.InfectionLoadDivisor

	fc.Shedding.Quantity = cfg.SheddingQuantity
	fc.Shedding.Halo = cfg.SheddingHalo
	fc.Shedding.Latent = cfg.LatentShedding

	fc.Death.DwellMS = int(cfg.DeathMinDwell / time.Millisecond)
	fc.Death.Chance = cfg.DeathChance
	fc.Death.Burst = cfg.BurstQuantity
	fc.Death.BurstHalo = cfg.BurstHalo
	fc.Death.GateOffTherapy = cfg.BurstOnlyOffTherapy

	fc.Clearance.Policy = "fraction"
	fc.Clearance.Rate = 10
	fc.Clearance.OnFraction = 0.25
	fc.Clearance.OffFraction = 0

	fc.Motion.MaxSpeed = cfg.MaxParticleSpeed
	fc.Motion.Jitter = cfg.ParticleJitter
	fc.Motion.Inset = cfg.BoundaryInset

	fc.Layout.Spacing = cfg.MinAgentSpacing
	fc.Layout.GridThreshold = cfg.GridLayoutThreshold

	fc.Interventions.Boost = cfg.BoostQuantity
	fc.Interventions.PathogenBoost = cfg.PathogenBoost
	fc.Interventions.PathogenPerInfected = cfg.PathogenPerInfected

	if err := gcfg.ReadFileInto(&fc, path); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.WorldWidth = fc.World.Width
	cfg.WorldHeight = fc.World.Height
	cfg.AgentCount = fc.World.Agents
	cfg.InitialParticles = fc.World.Particles
	cfg.Seed = fc.World.Seed

	cfg.TickPeriod = time.Duration(fc.Timing.TickMS) * time.Millisecond
	cfg.InfectionPeriod = time.Duration(fc.Timing.InfectionMS) * time.Millisecond
	cfg.SheddingPeriod = time.Duration(fc.Timing.SheddingMS) * time.Millisecond
	cfg.ClearancePeriod = time.Duration(fc.Timing.ClearanceMS) * time.Millisecond

	cfg.InfectionLoadDivisor = fc.Infection.LoadDivisor

	cfg.SheddingQuantity = fc.Shedding.Quantity
	cfg.SheddingHalo = fc.Shedding.Halo
	cfg.LatentShedding = fc.Shedding.Latent

	cfg.DeathMinDwell = time.Duration(fc.Death.DwellMS) * time.Millisecond
	cfg.DeathChance = fc.Death.Chance
	cfg.BurstQuantity = fc.Death.Burst
	cfg.BurstHalo = fc.Death.BurstHalo
	cfg.BurstOnlyOffTherapy = fc.Death.GateOffTherapy

	switch fc.Clearance.Policy {
	case "fraction":
		cfg.Clearance = sim.FractionClearance(fc.Clearance.OnFraction, fc.Clearance.OffFraction)
	case "fixed":
		cfg.Clearance = sim.FixedClearance(fc.Clearance.Rate, fc.Clearance.TherapyOnly)
	default:
		return fmt.Errorf("unknown clearance policy %q, want fraction or fixed", fc.Clearance.Policy)
	}

	cfg.MaxParticleSpeed = fc.Motion.MaxSpeed
	cfg.ParticleJitter = fc.Motion.Jitter
	cfg.BoundaryInset = fc.Motion.Inset

	cfg.MinAgentSpacing = fc.Layout.Spacing
	cfg.GridLayoutThreshold = fc.Layout.GridThreshold

	cfg.BoostQuantity = fc.Interventions.Boost
	cfg.PathogenBoost = fc.Interventions.PathogenBoost
	cfg.PathogenPerInfected = fc.Interventions.PathogenPerInfected

	return nil
}
